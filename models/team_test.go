package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamHasMember(t *testing.T) {
	team := Team{Members: []User{{ID: 1}, {ID: 4}}}
	assert.True(t, team.HasMember(4))
	assert.False(t, team.HasMember(2))
}

func TestTournamentIsFull(t *testing.T) {
	tr := Tournament{MaxTeams: 2, TeamCount: 1}
	assert.False(t, tr.IsFull())
	tr.TeamCount = 2
	assert.True(t, tr.IsFull())
}

func TestConversationPartner(t *testing.T) {
	c := Conversation{UserOneID: 3, UserTwoID: 9}
	assert.Equal(t, 9, c.PartnerID(3))
	assert.Equal(t, 3, c.PartnerID(9))
	assert.True(t, c.Includes(9))
	assert.False(t, c.Includes(4))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "dunk", (&User{Username: "dunk", FirstName: "Max"}).DisplayName())
	assert.Equal(t, "Max Muster", (&User{FirstName: "Max", LastName: "Muster"}).DisplayName())
	var nilUser *User
	assert.Empty(t, nilUser.DisplayName())
}
