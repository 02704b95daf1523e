// Package email provides email notification sending via SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/bissquit/meetup-hub/internal/notifications"
	"github.com/google/uuid"
)

// ChannelType identifies the email transport in metrics and logs.
const ChannelType = "email"

// Config holds email sender configuration.
type Config struct {
	Enabled      bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
}

// Sender delivers notifications over SMTP, upgrading to TLS when offered.
type Sender struct {
	config Config
	from   *mail.Address
	auth   smtp.Auth
}

// NewSender creates a new email sender.
// Returns error if enabled but required config is missing.
func NewSender(config Config) (*Sender, error) {
	if config.Enabled {
		if config.SMTPHost == "" {
			return nil, errors.New("email sender: SMTP host is required when enabled")
		}
		if config.FromAddress == "" {
			return nil, errors.New("email sender: from address is required when enabled")
		}
	}

	if config.SMTPPort == 0 {
		config.SMTPPort = 587
	}

	var from *mail.Address
	if config.FromAddress != "" {
		addr, err := mail.ParseAddress(config.FromAddress)
		if err != nil {
			return nil, fmt.Errorf("email sender: invalid from address: %w", err)
		}
		from = addr
	}

	var auth smtp.Auth
	if config.SMTPUser != "" && config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", config.SMTPUser, config.SMTPPassword, config.SMTPHost)
	}

	slog.Info("email sender configured",
		"enabled", config.Enabled,
		"smtp_host", config.SMTPHost,
		"smtp_port", config.SMTPPort,
		"from_address", config.FromAddress,
	)

	return &Sender{
		config: config,
		from:   from,
		auth:   auth,
	}, nil
}

// Type returns the channel type.
func (s *Sender) Type() string {
	return ChannelType
}

// Send sends an email notification to a single recipient.
// Permanent SMTP failures are returned as non-retryable.
func (s *Sender) Send(ctx context.Context, notification notifications.Notification) error {
	if !s.config.Enabled {
		slog.Warn("email sender disabled, skipping send")
		return nil
	}

	rcpt, err := mail.ParseAddress(notification.To)
	if err != nil {
		return notifications.NewNonRetryableError(fmt.Errorf("parse recipient: %w", err))
	}

	msg := s.buildMessage(notification.To, notification.Subject, notification.Body)
	addr := net.JoinHostPort(s.config.SMTPHost, fmt.Sprint(s.config.SMTPPort))

	tlsConfig := &tls.Config{
		ServerName: s.config.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	if err := s.sendWithSTARTTLS(ctx, addr, tlsConfig, rcpt.Address, msg); err != nil {
		if IsRetryable(err) {
			return notifications.NewRetryableError(err)
		}
		return notifications.NewNonRetryableError(err)
	}
	return nil
}

func (s *Sender) buildMessage(to, subject, body string) []byte {
	var msg strings.Builder

	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "Message-ID: <%s@%s>\r\n", uuid.NewString(), domainOf(s.from.Address))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return []byte(msg.String())
}

func domainOf(address string) string {
	if at := strings.LastIndexByte(address, '@'); at != -1 {
		return address[at+1:]
	}
	return "localhost"
}

// sendWithSTARTTLS sends an email using STARTTLS (port 587).
func (s *Sender) sendWithSTARTTLS(ctx context.Context, addr string, tlsConfig *tls.Config, rcpt string, msg []byte) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(s.from.Address); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := client.Rcpt(rcpt); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

// IsRetryable reports whether a delivery failure is transient: network
// errors, a dropped connection, and SMTP 4xx replies. 552 (mailbox full) is
// also retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var reply *textproto.Error
	if errors.As(err, &reply) {
		return reply.Code/100 == 4 || reply.Code == 552
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.EOF)
}
