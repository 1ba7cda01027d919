package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// EmailTemplate is the subject/body blueprint for a signal. Subject and
// body are Go text/template sources; the body renders to Markdown.
type EmailTemplate struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Signal        string    `json:"signal"`
	FromHeader    string    `json:"from_header"`
	ReplyToHeader string    `json:"reply_to_header"`
	CCHeader      []string  `json:"cc_header"`
	BCCHeader     []string  `json:"bcc_header"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"last_updated_at"`
}

// Validate checks the template fields. knownSignals restricts Signal when
// non-empty.
func (t *EmailTemplate) Validate(knownSignals []string) error {
	signalRules := []validation.Rule{validation.Required, validation.Length(1, 100)}
	if len(knownSignals) > 0 {
		in := make([]interface{}, len(knownSignals))
		for i, s := range knownSignals {
			in[i] = s
		}
		signalRules = append(signalRules, validation.In(in...).Error("must be a known signal"))
	}
	return validation.ValidateStruct(t,
		validation.Field(&t.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&t.Signal, signalRules...),
		validation.Field(&t.FromHeader, validation.Required, is.EmailFormat),
		validation.Field(&t.ReplyToHeader, is.EmailFormat),
		validation.Field(&t.CCHeader, validation.Each(is.EmailFormat)),
		validation.Field(&t.BCCHeader, validation.Each(is.EmailFormat)),
		validation.Field(&t.Subject, validation.Required, validation.Length(1, 255)),
		validation.Field(&t.Body, validation.Required),
	)
}
