package services

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/config"
	"github.com/ChartFly/ChartFlyBackEnd/pkg/logger"
)

// SMTPEmailService sends mail through an authenticated SMTP relay.
// Port 465 uses implicit TLS, any other port upgrades with STARTTLS.
type SMTPEmailService struct {
	host        string
	port        int
	username    string
	password    string
	fromAddress string
	dialTimeout time.Duration
	logger      *slog.Logger
}

func NewSMTPEmailService(cfg config.EmailConfig, log *slog.Logger) *SMTPEmailService {
	return &SMTPEmailService{
		host:        cfg.SMTPHost,
		port:        cfg.SMTPPort,
		username:    cfg.SMTPUsername,
		password:    cfg.SMTPPassword,
		fromAddress: cfg.FromAddress,
		dialTimeout: 15 * time.Second,
		logger:      log,
	}
}

func (s *SMTPEmailService) SendPasswordResetEmail(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	msg := passwordResetMessage(resetURL, expiresAt)
	raw, err := buildMIMEMessage(s.fromAddress, to, msg)
	if err != nil {
		return err
	}

	if err := s.send(ctx, to, raw); err != nil {
		s.logger.Error("failed to send password reset email via SMTP",
			slog.String("email", logger.SanitizedEmail(to)),
			slog.String("host", s.host),
			slog.Any("error", err))
		return err
	}

	s.logger.Info("password reset email sent",
		slog.String("email", logger.SanitizedEmail(to)))
	return nil
}

func (s *SMTPEmailService) send(ctx context.Context, to string, raw []byte) error {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	tlsConfig := &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}

	dialer := &net.Dialer{Timeout: s.dialTimeout}
	var conn net.Conn
	var err error
	if s.port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial failed: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp client failed: %w", err)
	}
	defer client.Close()

	if s.port != 465 {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("smtp server %s does not offer STARTTLS", s.host)
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
	}

	if s.username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(s.fromAddress); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return client.Quit()
}

// buildMIMEMessage renders a multipart/alternative message with text and HTML parts
func buildMIMEMessage(from, to string, msg emailMessage) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(from, "\r\n") {
		return nil, fmt.Errorf("invalid address header")
	}

	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate boundary: %w", err)
	}
	boundary := "chartfly-" + hex.EncodeToString(b)

	var sb strings.Builder
	sb.WriteString("From: ChartFly <" + from + ">\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	sb.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: multipart/alternative; boundary=\"" + boundary + "\"\r\n\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	sb.WriteString(msg.TextBody + "\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	sb.WriteString(msg.HTMLBody + "\r\n")

	sb.WriteString("--" + boundary + "--\r\n")
	return []byte(sb.String()), nil
}
