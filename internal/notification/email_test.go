package notification

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	msgs []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func newTestEmailService(sender Sender) *EmailService {
	return NewEmailService(sender, LinkConfig{
		AppBaseURL:      "https://accounts.example.com/",
		ClientURL:       "https://app.example.com",
		VerificationTTL: 10 * time.Minute,
		ResetTTL:        time.Hour,
	})
}

func TestEmailService_VerificationEmail(t *testing.T) {
	sender := &captureSender{}
	svc := newTestEmailService(sender)

	require.NoError(t, svc.SendVerificationEmail(context.Background(), "ann+1@x.com", "abc123"))
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "ann+1@x.com", msg.To)
	assert.Equal(t, "Email Verification", msg.Subject)
	assert.Contains(t, msg.HTML, "10 minutes")

	link := svc.VerificationURL("ann+1@x.com", "abc123")
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "accounts.example.com", u.Host)
	assert.Equal(t, "/api/users/verify-email", u.Path)
	assert.Equal(t, "abc123", u.Query().Get("token"))
	assert.Equal(t, "ann+1@x.com", u.Query().Get("email"))
	assert.Contains(t, msg.HTML, strings.ReplaceAll(link, "&", "&amp;"))
}

func TestEmailService_PasswordResetEmail(t *testing.T) {
	sender := &captureSender{}
	svc := newTestEmailService(sender)

	require.NoError(t, svc.SendPasswordResetEmail(context.Background(), "ann@x.com", "deadbeef"))
	require.Len(t, sender.msgs, 1)

	msg := sender.msgs[0]
	assert.Equal(t, "Password Reset Request", msg.Subject)
	assert.Contains(t, msg.HTML, "https://app.example.com/reset-password/deadbeef")
	assert.Contains(t, msg.HTML, "1 hour")
}

func TestEmailService_PropagatesSendError(t *testing.T) {
	sender := &captureSender{err: errors.New("relay refused")}
	svc := newTestEmailService(sender)

	err := svc.SendPasswordResetEmail(context.Background(), "ann@x.com", "t")
	assert.EqualError(t, err, "relay refused")
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: 10 * time.Minute, want: "10 minutes"},
		{d: time.Hour, want: "1 hour"},
		{d: 24 * time.Hour, want: "24 hours"},
		{d: 90 * time.Minute, want: "90 minutes"},
		{d: 0, want: "a short time"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanDuration(tt.d), tt.d.String())
	}
}

// fakeSMTP accepts one session and records the DATA payload.
type fakeSMTP struct {
	listener net.Listener
	mu       sync.Mutex
	from     string
	rcpt     string
	data     string
	done     chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{listener: l, done: make(chan struct{})}
	t.Cleanup(func() { l.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) serve() {
	defer close(f.done)
	conn, err := f.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
	write("220 localhost ESMTP")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			write("250 localhost")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			f.mu.Lock()
			f.from = strings.TrimSpace(line[len("MAIL FROM:"):])
			f.mu.Unlock()
			write("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			f.mu.Lock()
			f.rcpt = strings.TrimSpace(line[len("RCPT TO:"):])
			f.mu.Unlock()
			write("250 OK")
		case cmd == "DATA":
			write("354 go ahead")
			var b strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				b.WriteString(l)
			}
			f.mu.Lock()
			f.data = b.String()
			f.mu.Unlock()
			write("250 queued")
		case cmd == "QUIT":
			write("221 bye")
			return
		default:
			write("250 OK")
		}
	}
}

func TestSMTPSender_Send(t *testing.T) {
	srv := startFakeSMTP(t)
	addr := srv.listener.Addr().(*net.TCPAddr)

	sender := NewSMTPSender(EmailConfig{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		From:     "noreply@example.com",
		FromName: "Accounts",
		Timeout:  5 * time.Second,
	})

	err := sender.Send(context.Background(), Message{To: "ann@x.com", Subject: "Hello", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	<-srv.done

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "<noreply@example.com>", srv.from)
	assert.Equal(t, "<ann@x.com>", srv.rcpt)
	assert.Contains(t, srv.data, "From: Accounts <noreply@example.com>\r\n")
	assert.Contains(t, srv.data, "Subject: Hello\r\n")
	assert.Contains(t, srv.data, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.Contains(t, srv.data, "<p>hi</p>")
}

func TestSMTPSender_DialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	sender := NewSMTPSender(EmailConfig{Host: "127.0.0.1", Port: port, From: "noreply@example.com", Timeout: time.Second})
	err = sender.Send(context.Background(), Message{To: "ann@x.com", Subject: "x", HTML: "x"})
	assert.Error(t, err)
}
