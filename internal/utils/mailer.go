package utils

import (
	"fmt"
	"net/smtp"
)

// Mailer sends HTML mail over SMTP. Sending is best-effort: callers fire it
// from a goroutine and log failures instead of failing the request.
type Mailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewMailer creates a new Mailer
func NewMailer(host, port, user, pass, from string) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Configured reports whether SMTP credentials are present
func (m *Mailer) Configured() bool {
	return m.host != "" && m.port != "" && m.user != "" && m.pass != ""
}

// Send delivers a single HTML message
func (m *Mailer) Send(to, subject, html string) error {
	if !m.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	addr := m.host + ":" + m.port
	msg := "From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" +
		html + "\r\n"

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
