// Package notify delivers templated email to item reporters. Templates
// and subjects live in the settings store so staff can edit them without
// a redeploy; placeholders use {name} syntax.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/psc-ict/frontdesk/internal/store"
)

// Mailer sends mail through a plain SMTP relay. A zero address disables
// sending; Send then reports the skip reason instead of failing.
type Mailer struct {
	db   *sql.DB
	addr string
	from string
	log  *slog.Logger
}

func NewMailer(db *sql.DB, addr, from string, log *slog.Logger) *Mailer {
	return &Mailer{db: db, addr: addr, from: from, log: log}
}

// Send renders the named template against subs and delivers it. The
// subject key is derived from the template key by convention
// (x_template -> x_subject). Returns false with a reason when the
// message could not be handed to the relay.
func (m *Mailer) Send(ctx context.Context, recipient, templateKey string, subs map[string]string) (bool, string) {
	if m.addr == "" {
		return false, "smtp relay not configured"
	}

	tmpl, err := store.GetSetting(ctx, m.db, templateKey, "")
	if err != nil || tmpl == "" {
		return false, fmt.Sprintf("no template for %s", templateKey)
	}
	subjectKey := strings.Replace(templateKey, "_template", "_subject", 1)
	subject, err := store.GetSetting(ctx, m.db, subjectKey, "Front Desk Notification")
	if err != nil {
		subject = "Front Desk Notification"
	}

	body := Expand(tmpl, subs)
	subject = Expand(subject, subs)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.from, recipient, subject, body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn("smtp send failed", "recipient", recipient, "template", templateKey, "error", err)
		return false, err.Error()
	}

	m.log.Info("email sent", "recipient", recipient, "template", templateKey)
	return true, ""
}

// Expand substitutes {placeholder} occurrences in template with values
// from subs. Unknown placeholders are left intact.
func Expand(template string, subs map[string]string) string {
	for k, v := range subs {
		template = strings.ReplaceAll(template, "{"+k+"}", v)
	}
	return template
}
