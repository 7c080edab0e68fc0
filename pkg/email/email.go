package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Error is the class of mail delivery errors.
var Error = errs.Class("email")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

type Message struct {
	To          []string
	Subject     string
	Body        string
	ContentType string // defaults to text/html
}

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// Client sends mail over SMTP, upgrading with STARTTLS when configured.
type Client struct {
	config Config
}

func NewClient(config Config) *Client {
	if config.Port == 0 {
		config.Port = 587
	}
	return &Client{config: config}
}

func (c *Client) Send(ctx context.Context, msg *Message) error {
	if err := msg.check(); err != nil {
		return err
	}
	raw := msg.build(c.config.From)
	addr := net.JoinHostPort(c.config.Host, fmt.Sprint(c.config.Port))

	var auth smtp.Auth
	if c.config.Username != "" {
		auth = smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
	}

	done := make(chan error, 1)
	go func() { done <- c.deliver(addr, auth, msg.To, raw) }()
	select {
	case <-ctx.Done():
		return Error.Wrap(ctx.Err())
	case err := <-done:
		return Error.Wrap(err)
	}
}

func (c *Client) deliver(addr string, auth smtp.Auth, to []string, raw []byte) error {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if c.config.UseTLS {
		if err = client.StartTLS(&tls.Config{ServerName: c.config.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err = client.Mail(senderAddress(c.config.From)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err = w.Write(raw); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}

func (m *Message) check() error {
	if len(m.To) == 0 {
		return Error.New("no recipients")
	}
	if m.Subject == "" {
		return Error.New("empty subject")
	}
	return nil
}

func (m *Message) build(from string) []byte {
	contentType := m.ContentType
	if contentType == "" {
		contentType = "text/html; charset=UTF-8"
	}
	headers := map[string]string{
		"From":         from,
		"To":           strings.Join(m.To, ", "),
		"Subject":      m.Subject,
		"MIME-Version": "1.0",
		"Content-Type": contentType,
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(m.Body)
	return []byte(b.String())
}

// senderAddress extracts the bare address from "Name <addr>".
func senderAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(_ context.Context, msg *Message) error {
	if err := msg.check(); err != nil {
		return err
	}
	l.log.Info("email not delivered, smtp disabled",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("bytes", len(msg.Body)))
	return nil
}
