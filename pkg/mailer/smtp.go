package mailer

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// SMTP sends through a plain SMTP relay. Used when Mailgun is not
// configured.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

func (s *SMTP) message(m Message) *gomail.Message {
	msg := gomail.NewMessage()
	from := m.From
	if from == "" {
		from = s.Sender
	}
	msg.SetHeader("From", from)
	msg.SetHeader("To", m.To...)
	if len(m.CC) > 0 {
		msg.SetHeader("Cc", m.CC...)
	}
	if len(m.BCC) > 0 {
		msg.SetHeader("Bcc", m.BCC...)
	}
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Text)
	if m.HTML != "" {
		msg.AddAlternative("text/html", m.HTML)
	}
	for _, a := range m.Attachments {
		content := a.Content
		msg.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}
	return msg
}

func (s *SMTP) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	if err := d.DialAndSend(s.message(m)); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}
