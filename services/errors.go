package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrSelfRating           = errors.New("you cannot rate yourself")
	ErrInvalidCoordinates   = errors.New("latitude/longitude out of range")
	ErrGameInPast           = errors.New("game cannot be scheduled in the past")
	ErrInvalidTeamSide      = errors.New("team must be one of the game's two teams")
	ErrNotParticipant       = errors.New("user is not a participant of this game")
	ErrInvalidGameResult    = errors.New("invalid game result")
	ErrInvalidPremiumTier   = errors.New("invalid premium tier")
	ErrCheckoutMismatch     = errors.New("checkout session does not belong to this user or tier")
	ErrSelfFriendRequest    = errors.New("you cannot send a friend request to yourself")
	ErrSelfConversation     = errors.New("you cannot start a conversation with yourself")
	ErrEmptyMessage         = errors.New("message content is required")
	ErrTournamentDates      = errors.New("tournament end date must not be before start date")
	ErrTournamentClosed     = errors.New("tournament no longer accepts registrations")
	ErrInvalidSettings      = errors.New("invalid settings value")
	ErrUnsupportedImageType = errors.New("unsupported image content type")
	ErrUploadsDisabled      = errors.New("file uploads are not configured")
	ErrGameNotOpen          = errors.New("game is no longer open")

	// Ошибки конфликтов
	ErrUserEmailConflict     = errors.New("email address is already in use")
	ErrUsernameConflict      = errors.New("username is already in use")
	ErrTeamNameConflict      = errors.New("team name is already in use")
	ErrAlreadyJoined         = errors.New("you already joined this game")
	ErrGameFull              = errors.New("game is full")
	ErrTournamentFull        = errors.New("tournament is full")
	ErrTeamAlreadyRegistered = errors.New("team is already registered for this tournament")
	ErrFriendRequestExists   = errors.New("a friend request or friendship already exists")
	ErrCheckoutCompleted     = errors.New("checkout session already completed")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrOrganizerOnly          = errors.New("only the organizer can perform this action")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound          = errors.New("user not found")
	ErrCourtNotFound         = errors.New("court not found")
	ErrGameNotFound          = errors.New("game not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrTournamentNotFound    = errors.New("tournament not found")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrFriendshipNotFound    = errors.New("friendship not found")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrMessageNotFound       = errors.New("message not found")
	ErrCheckoutNotFound      = errors.New("checkout session not found")
	ErrParticipantNotFound   = errors.New("you are not part of this game")
	ErrTeamNotRegistered     = errors.New("team is not registered for this tournament")
)
