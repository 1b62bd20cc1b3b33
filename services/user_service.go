package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/Dosada05/meetbasket/stats"
	"github.com/Dosada05/meetbasket/storage"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const avatarsFolder = "avatars"

type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListPlayers(ctx context.Context) ([]models.PlayerListItem, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetPlayer(ctx context.Context, id, viewerID int) (*PlayerDetail, error)
	GetPlayerByUsername(ctx context.Context, username string, viewerID int) (*PlayerDetail, error)
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, file io.Reader, contentType string) (*models.User, error)
	GetStats(ctx context.Context, userID int) (*stats.Summary, error)
	ChangePassword(ctx context.Context, userID int, input ChangePasswordInput) error
	DeleteAccount(ctx context.Context, userID int, password string) error
}

// PlayerDetail is a public profile with the player's derived stats. Stats are
// nil when the owner hides them; a restricted profile carries only the name
// and avatar.
type PlayerDetail struct {
	User       *models.User   `json:"user"`
	Stats      *stats.Summary `json:"stats,omitempty"`
	Restricted bool           `json:"restricted,omitempty"`
}

type UpdateProfileInput struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	City       *string `json:"city"`
	Bio        *string `json:"bio"`
	Position   *string `json:"position"`
	SkillLevel *int    `json:"skill_level"`
	HeightCM   *int    `json:"height_cm"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userService struct {
	userRepo       repositories.UserRepository
	gameRepo       repositories.GameRepository
	tournamentRepo repositories.TournamentRepository
	settingsRepo   repositories.SettingsRepository
	ratingRepo     repositories.RatingRepository
	friendRepo     repositories.FriendshipRepository
	tx             repositories.Transactor
	cache          *cache.Cache
	invalidator    *Invalidator
	uploader       storage.FileUploader
	clock          clockwork.Clock
}

type UserServiceDeps struct {
	UserRepo       repositories.UserRepository
	GameRepo       repositories.GameRepository
	TournamentRepo repositories.TournamentRepository
	SettingsRepo   repositories.SettingsRepository
	RatingRepo     repositories.RatingRepository
	FriendRepo     repositories.FriendshipRepository
	Tx             repositories.Transactor
	Cache          *cache.Cache
	Invalidator    *Invalidator
	Uploader       storage.FileUploader
	Clock          clockwork.Clock
}

func NewUserService(deps UserServiceDeps) UserService {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &userService{
		userRepo:       deps.UserRepo,
		gameRepo:       deps.GameRepo,
		tournamentRepo: deps.TournamentRepo,
		settingsRepo:   deps.SettingsRepo,
		ratingRepo:     deps.RatingRepo,
		friendRepo:     deps.FriendRepo,
		tx:             deps.Tx,
		cache:          deps.Cache,
		invalidator:    deps.Invalidator,
		uploader:       deps.Uploader,
		clock:          clock,
	}
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := cache.GetOrLoad(ctx, s.cache, usersEntry(), func(ctx context.Context) ([]models.User, error) {
		users, err := s.userRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		// cached entries must never carry credentials
		for i := range users {
			users[i].PasswordHash = ""
			users[i].Email = ""
		}
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		populatePublicUser(&users[i], s.uploader)
	}
	return users, nil
}

func (s *userService) ListPlayers(ctx context.Context) ([]models.PlayerListItem, error) {
	players, err := cache.GetOrLoad(ctx, s.cache, playersEntry(), s.userRepo.ListPlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	for i := range players {
		players[i].AvatarURL = publicURL(s.uploader, players[i].AvatarKey)
	}
	return players, nil
}

func (s *userService) getUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	populatePublicUser(user, s.uploader)
	return user, nil
}

func (s *userService) GetPlayer(ctx context.Context, id, viewerID int) (*PlayerDetail, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.playerDetail(ctx, user, viewerID)
}

func (s *userService) GetPlayerByUsername(ctx context.Context, username string, viewerID int) (*PlayerDetail, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user '%s': %w", username, err)
	}
	return s.playerDetail(ctx, user, viewerID)
}

// playerDetail applies the owner's privacy settings for viewerID (0 for
// anonymous). The owner always sees everything.
func (s *userService) playerDetail(ctx context.Context, user *models.User, viewerID int) (*PlayerDetail, error) {
	populatePublicUser(user, s.uploader)
	if viewerID == user.ID {
		summary, err := s.GetStats(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &PlayerDetail{User: user, Stats: summary}, nil
	}

	settings, err := loadSettings(ctx, s.cache, s.settingsRepo, user.ID)
	if err != nil {
		return nil, err
	}
	visible, err := s.profileVisible(ctx, settings.ProfileVisibility, user.ID, viewerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return &PlayerDetail{
			User:       &models.User{ID: user.ID, Username: user.Username, AvatarURL: user.AvatarURL},
			Restricted: true,
		}, nil
	}

	detail := &PlayerDetail{User: user}
	if settings.ShowStats {
		if detail.Stats, err = s.GetStats(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *userService) profileVisible(ctx context.Context, visibility models.ProfileVisibility, ownerID, viewerID int) (bool, error) {
	switch visibility {
	case models.VisibilityPrivate:
		return false, nil
	case models.VisibilityFriends:
		if viewerID == 0 || s.friendRepo == nil {
			return false, nil
		}
		f, err := s.friendRepo.GetBetween(ctx, ownerID, viewerID)
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to check friendship: %w", err)
		}
		return f.Status == models.FriendshipAccepted, nil
	}
	return true, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	populateUserDetailsFunc(user, s.uploader)
	return user, nil
}

// GetStats loads the user's history and counters concurrently and derives
// the stat summary and badges from them.
func (s *userService) GetStats(ctx context.Context, userID int) (*stats.Summary, error) {
	history := stats.History{UserID: userID}
	now := s.clock.Now()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participations, err := s.gameRepo.ListHistory(gCtx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to load game history: %w", err)
		}
		history.Participations = participations
		return nil
	})
	g.Go(func() error {
		organized, err := s.gameRepo.CountOrganizedBy(gCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to count organized games: %w", err)
		}
		history.GamesOrganized = organized
		return nil
	})
	g.Go(func() error {
		tournaments, err := s.tournamentRepo.CountByMember(gCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to count tournaments: %w", err)
		}
		history.Tournaments = tournaments
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := stats.Summarize(history)
	return &summary, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", ErrValidationFailed)
		}
		user.Username = username
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: invalid email address", ErrValidationFailed)
		}
		user.Email = email
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.City != nil {
		user.City = trimmedOrNil(input.City)
	}
	if input.Bio != nil {
		user.Bio = trimmedOrNil(input.Bio)
	}
	if input.Position != nil {
		user.Position = trimmedOrNil(input.Position)
	}
	if input.SkillLevel != nil {
		if *input.SkillLevel < 1 || *input.SkillLevel > 10 {
			return nil, fmt.Errorf("%w: skill_level must be between 1 and 10", ErrValidationFailed)
		}
		user.SkillLevel = input.SkillLevel
	}
	if input.HeightCM != nil {
		if *input.HeightCM < 100 || *input.HeightCM > 250 {
			return nil, fmt.Errorf("%w: height_cm must be between 100 and 250", ErrValidationFailed)
		}
		user.HeightCM = input.HeightCM
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUsernameConflict):
			return nil, ErrUsernameConflict
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.invalidator.Apply(ctx, ProfileUpdated, userID)

	populateUserDetailsFunc(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, file io.Reader, contentType string) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := uploadImage(ctx, s.uploader, avatarsFolder, userID, contentType, file)
	if err != nil {
		return nil, err
	}
	oldKey := user.AvatarKey
	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}
	_ = deleteObject(ctx, s.uploader, oldKey)
	s.invalidator.Apply(ctx, AvatarChanged, userID)

	user.AvatarKey = &key
	populateUserDetailsFunc(user, s.uploader)
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int, input ChangePasswordInput) error {
	if len(input.NewPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := checkPassword(user.PasswordHash, input.CurrentPassword); err != nil {
		return err
	}

	hashed, err := hashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// DeleteAccount removes the user after re-checking the password. Settings and
// the ratings the user gave go in the same transaction, and every court, team
// and player they rated gets its aggregate recomputed. Everything else
// cascades from the users row.
func (s *userService) DeleteAccount(ctx context.Context, userID int, password string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := checkPassword(user.PasswordHash, password); err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.settingsRepo.Delete(ctx, exec, userID); err != nil && !errors.Is(err, repositories.ErrSettingsNotFound) {
			return err
		}
		if err := withdrawRatings(ctx, s.ratingRepo, exec, userID); err != nil {
			return err
		}
		return s.userRepo.Delete(ctx, exec, userID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	_ = deleteObject(ctx, s.uploader, user.AvatarKey)
	s.invalidator.Apply(ctx, AccountDeleted, userID)
	return nil
}
