package services

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/Dosada05/meetbasket/config"
)

//go:embed templates/*.html
var emailTemplates embed.FS

var parsedEmailTemplates = template.Must(template.ParseFS(emailTemplates, "templates/*.html"))

// Mailer sends transactional email. Services hold it as an interface so a
// deployment without SMTP simply gets no mailer.
type Mailer interface {
	SendWelcomeEmail(userEmail, username string) error
	SendContactEmail(msg ContactEmailData) error
	SendNewsletterConfirmation(email string) error
}

type ContactEmailData struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("нет получателей письма")
	}
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + strings.Join(to, ", ") + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

// GenerateEmailBody renders one of the embedded templates.
func GenerateEmailBody(name string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := parsedEmailTemplates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", name, err)
	}
	return body.String(), nil
}

func (s *EmailService) SendWelcomeEmail(userEmail, username string) error {
	htmlBody, err := GenerateEmailBody("welcome_email.html", struct {
		Username string
		Link     string
	}{
		Username: username,
		Link:     s.cfg.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("ошибка генерации тела приветственного письма: %w", err)
	}
	return s.SendEmail([]string{userEmail}, "Willkommen bei MeetBasket!", htmlBody)
}

func (s *EmailService) SendContactEmail(msg ContactEmailData) error {
	if s.cfg.ContactEmail == "" {
		return fmt.Errorf("CONTACT_EMAIL не задан")
	}
	htmlBody, err := GenerateEmailBody("contact_email.html", msg)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела контактного письма: %w", err)
	}
	subject := strings.NewReplacer("\r", " ", "\n", " ").Replace(msg.Subject)
	return s.SendEmail([]string{s.cfg.ContactEmail}, "Kontakt: "+subject, htmlBody)
}

func (s *EmailService) SendNewsletterConfirmation(email string) error {
	htmlBody, err := GenerateEmailBody("newsletter_email.html", nil)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма рассылки: %w", err)
	}
	return s.SendEmail([]string{email}, "MeetBasket Newsletter", htmlBody)
}
