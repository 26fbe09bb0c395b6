// Package email sends HTML notifications over SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/personnel_accounting/configs"
)

var ErrNotConfigured = errors.New("SMTP_HOST and SMTP_FROM must be set")

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers messages through one SMTP server.
type Sender struct {
	opts configs.SMTPOptions
	send sendFunc
}

// NewSender creates a Sender for opts.
func NewSender(opts configs.SMTPOptions) *Sender {
	return &Sender{opts: opts, send: smtp.SendMail}
}

// Send delivers an HTML message to every recipient.
func (s *Sender) Send(to []string, subject, htmlBody string) error {
	if s.opts.Host == "" || s.opts.From == "" {
		return ErrNotConfigured
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	// CRLF line endings are required in headers
	msg := []byte(strings.Join([]string{
		"To: " + strings.Join(to, ", "),
		"From: " + s.opts.From,
		"Subject: " + mimeSubject(subject),
		"MIME-version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	}, "\r\n"))

	// servers without authentication get a nil Auth
	var auth smtp.Auth
	if s.opts.Username != "" {
		auth = smtp.PlainAuth("", s.opts.Username, s.opts.Password, s.opts.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	if err := s.send(addr, auth, s.opts.From, to, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// mimeSubject encodes non-ASCII subjects per RFC 2047.
func mimeSubject(subject string) string {
	for _, r := range subject {
		if r > 127 {
			return mime.QEncoding.Encode("UTF-8", subject)
		}
	}
	return subject
}

// DigestEntry is one contract in the digest.
type DigestEntry struct {
	Name     string
	Position string
	EndDate  time.Time
	DaysLeft int
}

// ContractDigest lists contracts that need attention on Date.
type ContractDigest struct {
	Date         time.Time
	Ending30     []DigestEntry
	Ending90     []DigestEntry
	Expired      []DigestEntry
	ExpiredTotal int64
}

// Empty reports whether the digest has nothing to report.
func (d ContractDigest) Empty() bool {
	return len(d.Ending30) == 0 && len(d.Ending90) == 0 && d.ExpiredTotal == 0
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format("02.01.2006") },
}).Parse(`<html>
<body>
<p>Стан контрактів на {{date .Date}}.</p>
{{define "table"}}<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Військовослужбовець</th><th>Посада</th><th>Закінчення</th><th>Днів</th></tr>
{{range .}}<tr><td>{{.Name}}</td><td>{{.Position}}</td><td>{{date .EndDate}}</td><td>{{.DaysLeft}}</td></tr>
{{end}}</table>{{end}}
{{if .Ending30}}<h3>Закінчуються протягом 30 днів ({{len .Ending30}})</h3>
{{template "table" .Ending30}}{{end}}
{{if .Ending90}}<h3>Закінчуються протягом 31-90 днів ({{len .Ending90}})</h3>
{{template "table" .Ending90}}{{end}}
{{if .ExpiredTotal}}<h3>Прострочені ({{.ExpiredTotal}})</h3>
{{template "table" .Expired}}{{end}}
<p><small>Повідомлення сформовано автоматично АСООС ОБРІГ.</small></p>
</body>
</html>
`))

// RenderContractDigest returns the subject and HTML body of the digest.
func RenderContractDigest(d ContractDigest) (string, string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("render digest: %w", err)
	}
	subject := fmt.Sprintf("Контракти: %d закінчуються, %d прострочено", len(d.Ending30)+len(d.Ending90), d.ExpiredTotal)
	return subject, buf.String(), nil
}

// SendContractDigest renders d and mails it to the recipients.
func (s *Sender) SendContractDigest(to []string, d ContractDigest) error {
	subject, body, err := RenderContractDigest(d)
	if err != nil {
		return err
	}
	return s.Send(to, subject, body)
}
