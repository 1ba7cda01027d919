package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun wraps Mailgun client configuration.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
	// APIBase overrides the Mailgun endpoint, e.g. the EU region.
	APIBase string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender}
}

// Send sends m via Mailgun. m.From falls back to the configured sender.
func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	if m.APIBase != "" {
		client.SetAPIBase(m.APIBase)
	}
	from := msg.From
	if from == "" {
		from = m.Sender
	}
	out := client.NewMessage(from, msg.Subject, msg.Text, msg.To...)
	if msg.HTML != "" {
		out.SetHtml(msg.HTML)
	}
	for _, cc := range msg.CC {
		out.AddCC(cc)
	}
	for _, bcc := range msg.BCC {
		out.AddBCC(bcc)
	}
	if msg.ReplyTo != "" {
		out.SetReplyTo(msg.ReplyTo)
	}
	for _, a := range msg.Attachments {
		out.AddBufferAttachment(a.Filename, a.Content)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, out)
	return err
}
