package entity

import (
	"strings"
	"time"
)

// AdditionalContactSeparator splits SelfOrganisedSubmission.AdditionalContact.
const AdditionalContactSeparator = ";"

type SelfOrganisedSubmission struct {
	ID                int64     `json:"id"`
	EventID           int64     `json:"event_id"`
	Email             string    `json:"email"`
	AdditionalContact string    `json:"additional_contact"`
	AssignedTo        *Person   `json:"assigned_to,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func (s *SelfOrganisedSubmission) ModelName() string { return string(RelationSelfOrganisedSubmission) }
func (s *SelfOrganisedSubmission) PrimaryKey() int64 { return s.ID }

func (s *SelfOrganisedSubmission) AdditionalContacts() []string {
	if s.AdditionalContact == "" {
		return nil
	}
	return strings.Split(s.AdditionalContact, AdditionalContactSeparator)
}
