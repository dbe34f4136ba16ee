// Package email consumes email events from Kafka and delivers them. It
// supports a log-only development mode and an SMTP production mode, with a
// Redis idempotency store in front of delivery.
package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strconv"
)

// Sender delivers a single email event.
type Sender interface {
	Send(event Event) error
}

// Config holds delivery configuration.
type Config struct {
	Mode     string // "log" or "smtp"
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// NewConfig reads delivery configuration from environment variables.
func NewConfig() *Config {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	return &Config{
		Mode:     getEnvOrDefault("EMAIL_MODE", "log"),
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getEnvOrDefault("SMTP_FROM", "noreply@mediaverse.example"),
		FromName: getEnvOrDefault("SMTP_FROM_NAME", "Mediaverse"),
	}
}

// NewSender returns the sender matching the configured mode.
func NewSender(cfg *Config) Sender {
	if cfg.Mode == "smtp" {
		return &smtpSender{config: cfg}
	}
	return &logSender{}
}

// logSender writes emails to the log (development mode).
type logSender struct{}

func (s *logSender) Send(event Event) error {
	switch event.EventType {
	case TypeWelcome:
		log.Printf("[DEV] Welcome email for %s: name=%v", event.Recipient, event.Data["name"])
	case TypePasswordReset:
		log.Printf("[DEV] Password reset email for %s: link=%v", event.Recipient, event.Data["reset_link"])
	default:
		log.Printf("[DEV] Email event for %s: type=%s, data=%v", event.Recipient, event.EventType, event.Data)
	}
	return nil
}

// smtpSender delivers via SMTP (production mode).
type smtpSender struct {
	config *Config
}

func (s *smtpSender) Send(event Event) error {
	subject, body, err := renderEmail(event)
	if err != nil {
		return err
	}
	return s.sendMail(event.Recipient, subject, body)
}

func (s *smtpSender) sendMail(recipient, subject, body string) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From)
	message += fmt.Sprintf("To: %s\r\n", recipient)
	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "MIME-Version: 1.0\r\n"
	message += "Content-Type: text/html; charset=UTF-8\r\n"
	message += "\r\n"
	message += body

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if err := smtp.SendMail(addr, auth, s.config.From, []string{recipient}, []byte(message)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	log.Printf("Email sent to %s via SMTP", recipient)
	return nil
}

// renderEmail builds the subject and HTML body for an event.
func renderEmail(event Event) (subject, body string, err error) {
	switch event.EventType {
	case TypeWelcome:
		name, _ := event.Data["name"].(string)
		if name == "" {
			name = "there"
		}
		return "Welcome to Mediaverse", fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Welcome, %s!</h1>
    <p>Your account is ready. Sign in to start posting.</p>
    <p style="font-size: 12px; color: #999;">This is an automated message, please do not reply.</p>
</body>
</html>
`, name), nil

	case TypePasswordReset:
		link, ok := event.Data["reset_link"].(string)
		if !ok || link == "" {
			return "", "", fmt.Errorf("password reset event missing reset_link")
		}
		return "Reset your password", fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Password reset</h1>
    <p>Follow this link to reset your password:</p>
    <p><a href="%s">%s</a></p>
    <p style="font-size: 14px; color: #666;">If you didn't request this, you can safely ignore this email.</p>
</body>
</html>
`, link, link), nil

	default:
		return "", "", fmt.Errorf("unsupported email type: %s", event.EventType)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
