package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
)

type ContactService interface {
	// Subscribe is idempotent; the bool reports a new subscription.
	Subscribe(ctx context.Context, email string) (bool, error)
	SubmitContact(ctx context.Context, input ContactInput) (*models.ContactMessage, error)
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type contactService struct {
	contactRepo repositories.ContactRepository
	mailer      Mailer
	logger      *slog.Logger
}

func NewContactService(contactRepo repositories.ContactRepository, mailer Mailer, logger *slog.Logger) ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &contactService{
		contactRepo: contactRepo,
		mailer:      mailer,
		logger:      logger,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidationFailed)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}
	return email, nil
}

func (s *contactService) Subscribe(ctx context.Context, email string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	created, err := s.contactRepo.Subscribe(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe: %w", err)
	}
	if created && s.mailer != nil {
		go func() {
			if err := s.mailer.SendNewsletterConfirmation(email); err != nil {
				s.logger.Warn("failed to send newsletter confirmation", slog.String("email", email), slog.Any("error", err))
			}
		}()
	}
	return created, nil
}

// SubmitContact stores the message first; forwarding it by email is best effort.
func (s *contactService) SubmitContact(ctx context.Context, input ContactInput) (*models.ContactMessage, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	body := strings.TrimSpace(input.Message)
	if name == "" || body == "" {
		return nil, fmt.Errorf("%w: name and message are required", ErrValidationFailed)
	}

	msg := &models.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(input.Subject),
		Body:    body,
	}
	if err := s.contactRepo.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save contact message: %w", err)
	}

	if s.mailer != nil {
		data := ContactEmailData{Name: msg.Name, Email: msg.Email, Subject: msg.Subject, Body: msg.Body}
		go func() {
			if err := s.mailer.SendContactEmail(data); err != nil {
				s.logger.Warn("failed to forward contact message", slog.Int("id", msg.ID), slog.Any("error", err))
			}
		}()
	}
	return msg, nil
}
