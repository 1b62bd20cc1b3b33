package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/meetbasket/cache"
)

// Cache tags. A key carries one or more tags; a mutation invalidates tags.
const (
	tagCourts  = "courts"
	tagPlayers = "players"
	tagUsers   = "users"
	tagGames   = "games"
)

func tagSettings(userID int) string       { return fmt.Sprintf("settings:%d", userID) }
func tagOrganizerGames(userID int) string { return fmt.Sprintf("games:organizer:%d", userID) }

// Cached collections.
func courtsEntry() cache.Entry {
	return cache.Entry{Key: "courts:all", TTL: 300 * time.Second, Tags: []string{tagCourts}}
}

func playersEntry() cache.Entry {
	return cache.Entry{Key: "players:all", TTL: 120 * time.Second, Tags: []string{tagPlayers}}
}

func usersEntry() cache.Entry {
	return cache.Entry{Key: "users:all", TTL: 120 * time.Second, Tags: []string{tagUsers}}
}

func settingsEntry(userID int) cache.Entry {
	return cache.Entry{Key: fmt.Sprintf("settings:%d", userID), TTL: 60 * time.Second, Tags: []string{tagSettings(userID)}}
}

func organizerGamesEntry(userID int) cache.Entry {
	return cache.Entry{
		Key:  fmt.Sprintf("games:organizer:%d", userID),
		TTL:  60 * time.Second,
		Tags: []string{tagGames, tagOrganizerGames(userID)},
	}
}

// Mutation names a write path. Every write path declares the tags it stales
// here, in one place, instead of deleting keys at the call site.
type Mutation string

const (
	CourtCreated      Mutation = "court_created"
	CourtImageChanged Mutation = "court_image_changed"
	CourtRated        Mutation = "court_rated"
	CourtCheckedIn    Mutation = "court_checked_in"
	CourtReviewed     Mutation = "court_reviewed"

	GameCreated     Mutation = "game_created"
	GameJoined      Mutation = "game_joined"
	GameLeft        Mutation = "game_left"
	GameDeleted     Mutation = "game_deleted"
	GameResultSaved Mutation = "game_result_saved"

	UserRegistered  Mutation = "user_registered"
	ProfileUpdated  Mutation = "profile_updated"
	AvatarChanged   Mutation = "avatar_changed"
	PlayerRated     Mutation = "player_rated"
	PremiumChanged  Mutation = "premium_changed"
	AccountDeleted  Mutation = "account_deleted"
	SettingsUpdated Mutation = "settings_updated"
)

// mutationTags lists the static tags each mutation invalidates. Per-user tags
// are added by invalidationTags.
var mutationTags = map[Mutation][]string{
	CourtCreated:      {tagCourts},
	CourtImageChanged: {tagCourts},
	CourtRated:        {tagCourts},
	CourtCheckedIn:    {tagCourts},
	CourtReviewed:     {},

	GameCreated:     {},
	GameJoined:      {tagGames, tagPlayers},
	GameLeft:        {tagGames, tagPlayers},
	GameDeleted:     {tagGames, tagPlayers},
	GameResultSaved: {tagGames, tagPlayers},

	UserRegistered:  {tagUsers, tagPlayers},
	ProfileUpdated:  {tagUsers, tagPlayers},
	AvatarChanged:   {tagUsers, tagPlayers},
	PlayerRated:     {tagPlayers, tagUsers},
	PremiumChanged:  {tagUsers, tagPlayers},
	AccountDeleted:  {tagUsers, tagPlayers, tagGames, tagCourts},
	SettingsUpdated: {},
}

// invalidationTags resolves the full tag set for a mutation performed by or on
// userID (0 when no user-scoped tag applies).
func invalidationTags(m Mutation, userID int) []string {
	tags := append([]string(nil), mutationTags[m]...)
	switch m {
	case GameCreated, GameDeleted:
		tags = append(tags, tagOrganizerGames(userID))
	case SettingsUpdated, AccountDeleted:
		tags = append(tags, tagSettings(userID))
	}
	return tags
}

// Invalidator applies mutation declarations to a cache.
type Invalidator struct {
	cache  *cache.Cache
	logger *slog.Logger
}

func NewInvalidator(c *cache.Cache, logger *slog.Logger) *Invalidator {
	return &Invalidator{cache: c, logger: logger}
}

// Apply invalidates the tags of m. Failures are logged: a stale entry is
// bounded by its TTL and never fails the write that caused it.
func (inv *Invalidator) Apply(ctx context.Context, m Mutation, userID int) {
	if inv == nil || inv.cache == nil {
		return
	}
	tags := invalidationTags(m, userID)
	if len(tags) == 0 {
		return
	}
	if err := inv.cache.Invalidate(ctx, tags...); err != nil && inv.logger != nil {
		inv.logger.WarnContext(ctx, "cache invalidation failed",
			slog.String("mutation", string(m)), slog.Any("tags", tags), slog.Any("error", err))
	}
}
