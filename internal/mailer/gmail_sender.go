package mailer

import (
	"context"
	"fmt"

	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/wneessen/go-mail"
)

const (
	smtpGmailHost = "smtp.gmail.com"
	smtpGmailPort = 587

	senderEmailName = "Backoffice RH"
)

type EmailHeader struct {
	Subject string
	To      []string
}

type EmailSender interface {
	SendEmail(ctx context.Context, header EmailHeader, htmlBody string) error
	SendNotificationEmail(ctx context.Context, to string, n model.Notification) error
}

type GmailSender struct {
	client  *mail.Client
	address string
	baseURL string
}

// NewGmailSender connects to Gmail's SMTP server. baseURL is prepended to
// notification links in emails.
func NewGmailSender(username, password, baseURL string) (*GmailSender, error) {
	client, err := mail.NewClient(smtpGmailHost, mail.WithPort(smtpGmailPort), mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username), mail.WithPassword(password))
	if err != nil {
		return nil, err
	}
	if err = client.DialWithContext(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	return &GmailSender{
		client:  client,
		address: username,
		baseURL: baseURL,
	}, nil
}

func (sender *GmailSender) SendEmail(ctx context.Context, header EmailHeader, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.FromFormat(senderEmailName, sender.address); err != nil {
		return fmt.Errorf("failed to set From address: %w", err)
	}

	msg.Subject(header.Subject)

	if err := msg.To(header.To...); err != nil {
		return fmt.Errorf("failed to set To address: %w", err)
	}

	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := sender.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (sender *GmailSender) SendNotificationEmail(ctx context.Context, to string, n model.Notification) error {
	return sender.SendEmail(ctx, EmailHeader{
		Subject: NotificationSubject(n),
		To:      []string{to},
	}, NotificationBody(n, sender.baseURL))
}

func (sender *GmailSender) Close() error {
	return sender.client.Close()
}
