package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Message is one outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// SMTPSender delivers mail through an SMTP relay. Each send dials a new
// connection bounded by the context deadline and Timeout.
type SMTPSender struct {
	config EmailConfig
}

func NewSMTPSender(config EmailConfig) *SMTPSender {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &SMTPSender{config: config}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			return fmt.Errorf("failed to start tls: %w", err)
		}
	}
	if s.config.User != "" {
		if err := c.Auth(smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}
	if err := c.Mail(s.config.From); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(s.compose(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (s *SMTPSender) compose(msg Message) []byte {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, msg.To, msg.Subject, msg.HTML))
}

// LogSender records that a message would have been sent. Used when no SMTP
// relay is configured. The body is not logged since it carries the token.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("email not sent, smtp not configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

// LinkConfig holds the public URLs embedded in account emails.
type LinkConfig struct {
	// AppBaseURL is where this service is reachable; verification links point here.
	AppBaseURL string
	// ClientURL is the frontend that renders the reset password form.
	ClientURL string

	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

// EmailService renders account emails and hands them to a Sender.
type EmailService struct {
	sender Sender
	links  LinkConfig
}

func NewEmailService(sender Sender, links LinkConfig) *EmailService {
	return &EmailService{sender: sender, links: links}
}

// VerificationURL builds the link that verifies email with token.
func (s *EmailService) VerificationURL(email, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimRight(s.links.AppBaseURL, "/") + "/api/users/verify-email?" + q.Encode()
}

// ResetURL builds the link to the reset password form.
func (s *EmailService) ResetURL(token string) string {
	return strings.TrimRight(s.links.ClientURL, "/") + "/reset-password/" + url.PathEscape(token)
}

func (s *EmailService) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := html.EscapeString(s.VerificationURL(to, token))
	body := fmt.Sprintf(`<html><body>
		<h2>Verify Your Email Address</h2>
		<p>Thank you for registering! Please verify your email address to complete your registration.</p>
		<p><a href="%s">Click here to verify your email</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This link will expire in %s.</p>
	</body></html>`, link, link, humanDuration(s.links.VerificationTTL))
	return s.sender.Send(ctx, Message{To: to, Subject: "Email Verification", HTML: body})
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	link := html.EscapeString(s.ResetURL(token))
	body := fmt.Sprintf(`<html><body>
		<h2>Reset Your Password</h2>
		<p>You requested a password reset. Click the link below to reset your password.</p>
		<p><a href="%s">Click here to reset your password</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This link will expire in %s.</p>
		<p>If you did not request this password reset, please ignore this email.</p>
	</body></html>`, link, link, humanDuration(s.links.ResetTTL))
	return s.sender.Send(ctx, Message{To: to, Subject: "Password Reset Request", HTML: body})
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short time"
	case d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
