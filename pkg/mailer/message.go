package mailer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Attachment struct {
	Filename string
	Content  []byte
}

// Message is a fully rendered email ready for a Sender.
type Message struct {
	From        string
	To          []string
	CC          []string
	BCC         []string
	ReplyTo     string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SendWithRetry retries s.Send with exponential backoff, at most retries
// extra attempts.
func SendWithRetry(ctx context.Context, s Sender, m Message, retries uint64) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = time.Duration(retries+1) * 5 * time.Second

	operation := func() error {
		return s.Send(ctx, m)
	}
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
}
