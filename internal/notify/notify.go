// Package notify emails the operator after every run: a short status note
// on the happy path, and the full rendered edition when no transport could
// deliver it.
package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/logger"
)

// Message is one operator email. HTML, when set, rides along as the
// alternative body.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Notifier sends operator emails over SMTP with implicit TLS. A missing
// password disables sending entirely; the pipeline never depends on email.
type Notifier struct {
	cfg  config.NotifyConfig
	log  *logger.Logger
	send func(ctx context.Context, msg *mail.Msg) error
}

// New creates the notifier.
func New(cfg config.NotifyConfig, log *logger.Logger) *Notifier {
	n := &Notifier{cfg: cfg, log: log}
	n.send = n.dialAndSend
	return n
}

// Enabled reports whether operator notification is configured.
func (n *Notifier) Enabled() bool {
	return n.cfg.Operator != "" && n.cfg.Password != "" && n.cfg.SMTPHost != ""
}

// Send delivers msg to the operator. Failures are logged and swallowed;
// notification is never allowed to fail a run that already finished.
func (n *Notifier) Send(ctx context.Context, msg Message) {
	if !n.Enabled() {
		n.log.Debug("notification disabled, skipping: " + msg.Subject)
		return
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.Operator); err != nil {
		n.log.Error(err, "building notification sender")
		return
	}
	if err := m.To(n.cfg.Operator); err != nil {
		n.log.Error(err, "building notification recipient")
		return
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	if err := n.send(ctx, m); err != nil {
		n.log.Error(err, "notification send failed")
		return
	}
	n.log.Info("operator notified: " + msg.Subject)
}

func (n *Notifier) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(n.cfg.SMTPHost,
		mail.WithPort(n.cfg.SMTPPort),
		mail.WithSSLPort(false),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Operator),
		mail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
