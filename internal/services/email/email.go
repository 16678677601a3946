// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email renders and sends transactional email.
package email

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/wneessen/go-mail"

	"codeberg.org/qna-service/backend/internal/config"
	"codeberg.org/qna-service/backend/internal/i18n"
	"codeberg.org/qna-service/backend/internal/mailer"
	"codeberg.org/qna-service/backend/internal/models"
)

//go:embed templates/base.html
var templateFS embed.FS

// Service builds localized messages and delivers them via SMTP.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
	tmpl    *template.Template
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	tmpl, err := template.ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing email template: %w", err)
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tmpl:    tmpl,
	}, nil
}

type templateData struct {
	Title        string
	Text         string
	Organization string
	ButtonLink   string
	ButtonText   string
	Token        string
}

// VerificationMessage builds the email-verification message for a user.
func (s *Service) VerificationMessage(ctx context.Context, user *models.User, tokenValue string) (mailer.Message, error) {
	confirmURL := fmt.Sprintf("%s/auth/confirm_email?token=%s", s.baseURL, tokenValue)

	body, err := s.render(templateData{
		Title:        i18n.T(ctx, "email_verification_title"),
		Text:         i18n.T(ctx, "email_verification_text"),
		Organization: i18n.T(ctx, "email_organization"),
		ButtonLink:   confirmURL,
		ButtonText:   i18n.T(ctx, "email_verification_button"),
		Token:        tokenValue,
	})
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:      user.Email,
		Subject: i18n.T(ctx, "email_verification_subject"),
		HTML:    body,
	}, nil
}

// PasswordResetMessage builds the password-reset message for a user.
func (s *Service) PasswordResetMessage(ctx context.Context, user *models.User, tokenValue string) (mailer.Message, error) {
	resetURL := fmt.Sprintf("%s/auth/reset_password?token=%s", s.baseURL, tokenValue)

	body, err := s.render(templateData{
		Title:        i18n.T(ctx, "reset_password_title"),
		Text:         i18n.T(ctx, "reset_password_text"),
		Organization: i18n.T(ctx, "email_organization"),
		ButtonLink:   resetURL,
		ButtonText:   i18n.T(ctx, "reset_password_button"),
		Token:        tokenValue,
	})
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:      user.Email,
		Subject: i18n.T(ctx, "reset_password_subject"),
		HTML:    body,
	}, nil
}

func (s *Service) render(data templateData) (string, error) {
	var sb strings.Builder
	if err := s.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering email body: %w", err)
	}
	return sb.String(), nil
}

// Send delivers a message via SMTP using go-mail.
func (s *Service) Send(msg mailer.Message) error {
	m := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := m.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	// Build client options
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
