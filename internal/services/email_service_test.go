package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetMessage(t *testing.T) {
	link := `https://admin.chartfly.io/auth/reset-password?token=abc"<x>`
	msg := passwordResetMessage(link, time.Now().Add(15*time.Minute))

	assert.Equal(t, "Reset your ChartFly password", msg.Subject)
	assert.Contains(t, msg.TextBody, link)
	assert.Contains(t, msg.TextBody, "15 minutes")
	assert.NotContains(t, msg.HTMLBody, `"<x>`)
	assert.Contains(t, msg.HTMLBody, "&lt;x&gt;")
}

func TestBuildMIMEMessage(t *testing.T) {
	msg := emailMessage{Subject: "Reset your ChartFly password", HTMLBody: "<p>hi</p>", TextBody: "hi"}
	raw, err := buildMIMEMessage("noreply@chartfly.io", "alice@chartfly.io", msg)
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "To: alice@chartfly.io\r\n")
	assert.Contains(t, s, "multipart/alternative")
	assert.Contains(t, s, "text/plain")
	assert.Contains(t, s, "text/html")
	assert.True(t, strings.HasSuffix(s, "--\r\n"))

	_, err = buildMIMEMessage("noreply@chartfly.io", "alice@chartfly.io\r\nBcc: eve@evil.test", msg)
	assert.Error(t, err)
}

func TestNewEmailService(t *testing.T) {
	svc, err := NewEmailService(context.Background(), config.EmailConfig{Provider: "log"}, newTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &LogEmailService{}, svc)
	assert.NoError(t, svc.SendPasswordResetEmail(context.Background(), "a@chartfly.io", "https://x/?token=t", time.Now()))

	svc, err = NewEmailService(context.Background(), config.EmailConfig{Provider: "smtp", SMTPHost: "smtp.gmail.com", SMTPPort: 587}, newTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &SMTPEmailService{}, svc)

	_, err = NewEmailService(context.Background(), config.EmailConfig{Provider: "carrier-pigeon"}, newTestLogger())
	assert.Error(t, err)
}

func TestSMTPEmailService_DialFailureIsReported(t *testing.T) {
	svc := NewSMTPEmailService(config.EmailConfig{
		SMTPHost:    "127.0.0.1",
		SMTPPort:    1,
		FromAddress: "noreply@chartfly.io",
	}, newTestLogger())
	svc.dialTimeout = 200 * time.Millisecond

	err := svc.SendPasswordResetEmail(context.Background(), "alice@chartfly.io", "https://x/?token=t", time.Now().Add(time.Minute))
	assert.ErrorContains(t, err, "smtp dial failed")
}
