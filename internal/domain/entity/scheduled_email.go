package entity

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

type ScheduledEmailState string

const (
	StateScheduled ScheduledEmailState = "scheduled"
	StateLocked    ScheduledEmailState = "locked"
	StateRunning   ScheduledEmailState = "running"
	StateSucceeded ScheduledEmailState = "succeeded"
	StateFailed    ScheduledEmailState = "failed"
	StateCancelled ScheduledEmailState = "cancelled"
)

var AllStates = []ScheduledEmailState{
	StateScheduled, StateLocked, StateRunning, StateSucceeded, StateFailed, StateCancelled,
}

func (s ScheduledEmailState) Valid() bool { return slices.Contains(AllStates, s) }

// States from which an administrator may perform each action.
var (
	EditableStates      = []ScheduledEmailState{StateScheduled, StateFailed}
	ReschedulableStates = []ScheduledEmailState{StateScheduled, StateFailed, StateCancelled}
	CancellableStates   = []ScheduledEmailState{StateScheduled, StateFailed}
)

// ScheduledEmail is one pending or historical transactional email.
type ScheduledEmail struct {
	ID                  uuid.UUID           `json:"id"`
	State               ScheduledEmailState `json:"state"`
	ScheduledAt         time.Time           `json:"scheduled_at"`
	ToHeader            []string            `json:"to_header"`
	ToHeaderContextJSON json.RawMessage     `json:"to_header_context_json"`
	FromHeader          string              `json:"from_header"`
	ReplyToHeader       string              `json:"reply_to_header"`
	CCHeader            []string            `json:"cc_header"`
	BCCHeader           []string            `json:"bcc_header"`
	Subject             string              `json:"subject"`
	Body                string              `json:"body"`
	TemplateID          *uuid.UUID          `json:"template_id,omitempty"`
	Template            *EmailTemplate      `json:"template,omitempty"`
	Relation            Relation            `json:"generic_relation"`
	ContextJSON         json.RawMessage     `json:"context_json"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"last_updated_at"`
}

// TemplateName falls back to signal when the template is not loaded.
func (e *ScheduledEmail) TemplateName(signal string) string {
	if e.Template != nil && e.Template.Name != "" {
		return e.Template.Name
	}
	return signal
}

type ScheduledEmailLog struct {
	ID               uuid.UUID            `json:"id"`
	ScheduledEmailID uuid.UUID            `json:"scheduled_email_id"`
	Details          string               `json:"details"`
	StateBefore      *ScheduledEmailState `json:"state_before,omitempty"`
	StateAfter       *ScheduledEmailState `json:"state_after,omitempty"`
	AuthorID         *int64               `json:"author_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

type Attachment struct {
	ID               uuid.UUID `json:"id"`
	ScheduledEmailID uuid.UUID `json:"scheduled_email_id"`
	Filename         string    `json:"filename"`
	ObjectPath       string    `json:"object_path"`
	URL              string    `json:"url"`
	CreatedAt        time.Time `json:"created_at"`
}
