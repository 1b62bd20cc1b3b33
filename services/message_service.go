package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/realtime"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/Dosada05/meetbasket/storage"
)

const maxMessageLength = 2000

type MessageService interface {
	ListConversations(ctx context.Context, userID int) ([]models.Conversation, error)
	OpenConversation(ctx context.Context, userID, partnerID int) (*models.Conversation, error)
	GetConversation(ctx context.Context, conversationID, userID int) (*ConversationDetail, error)
	SendMessage(ctx context.Context, conversationID, senderID int, content string) (*models.Message, error)
	DeleteMessage(ctx context.Context, messageID, currentUserID int) error
	UnreadCount(ctx context.Context, userID int) (int, error)
}

type ConversationDetail struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []models.Message     `json:"messages"`
}

type messageService struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	tx          repositories.Transactor
	notifier    Notifier
	uploader    storage.FileUploader
	metrics     metrics.Metrics
	logger      *slog.Logger
}

func NewMessageService(
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	tx repositories.Transactor,
	notifier Notifier,
	uploader storage.FileUploader,
	m metrics.Metrics,
	logger *slog.Logger,
) MessageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		tx:          tx,
		notifier:    notifierOrNoop(notifier),
		uploader:    uploader,
		metrics:     m,
		logger:      logger,
	}
}

func (s *messageService) ListConversations(ctx context.Context, userID int) ([]models.Conversation, error) {
	conversations, err := s.messageRepo.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	for i := range conversations {
		populatePublicUser(conversations[i].Partner, s.uploader)
	}
	return conversations, nil
}

// OpenConversation returns the existing thread between the two users or
// creates it.
func (s *messageService) OpenConversation(ctx context.Context, userID, partnerID int) (*models.Conversation, error) {
	if partnerID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidationFailed)
	}
	if userID == partnerID {
		return nil, ErrSelfConversation
	}

	conv, err := s.messageRepo.GetOrCreateConversation(ctx, userID, partnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}

	partner, err := s.userRepo.GetByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load conversation partner: %w", err)
	}
	populatePublicUser(partner, s.uploader)
	conv.Partner = partner
	return conv, nil
}

func (s *messageService) conversationFor(ctx context.Context, conversationID, userID int) (*models.Conversation, error) {
	conv, err := s.messageRepo.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation %d: %w", conversationID, err)
	}
	if !conv.Includes(userID) {
		return nil, ErrForbiddenOperation
	}
	return conv, nil
}

// GetConversation returns the thread in chronological order and marks the
// partner's messages as read.
func (s *messageService) GetConversation(ctx context.Context, conversationID, userID int) (*ConversationDetail, error) {
	conv, err := s.conversationFor(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	read, err := s.messageRepo.MarkRead(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	messages, err := s.messageRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	if read > 0 {
		s.notifier.NotifyUser(conv.PartnerID(userID), realtime.EventConversationRead, map[string]int{
			"conversation_id": conversationID,
			"reader_id":       userID,
		})
	}
	return &ConversationDetail{Conversation: conv, Messages: messages}, nil
}

func (s *messageService) SendMessage(ctx context.Context, conversationID, senderID int, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrValidationFailed, maxMessageLength)
	}

	conv, err := s.conversationFor(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.messageRepo.CreateMessage(ctx, exec, msg)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncMessageSent()
	}
	recipient := conv.PartnerID(senderID)
	s.notifier.NotifyUser(recipient, realtime.EventMessageNew, msg)
	s.logger.DebugContext(ctx, "message sent",
		slog.Int("conversation_id", conversationID), slog.Int("sender_id", senderID), slog.Int("recipient_id", recipient))
	return msg, nil
}

func (s *messageService) DeleteMessage(ctx context.Context, messageID, currentUserID int) error {
	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to get message %d: %w", messageID, err)
	}
	if msg.SenderID != currentUserID {
		return ErrForbiddenOperation
	}
	if err := s.messageRepo.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}
	return nil
}

func (s *messageService) UnreadCount(ctx context.Context, userID int) (int, error) {
	n, err := s.messageRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}
