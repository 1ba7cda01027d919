package entity

import (
	"slices"
	"time"
)

const (
	MembershipRoleBillingContact      = "billing_contact"
	MembershipRoleProgrammaticContact = "programmatic_contact"
)

// Variants that receive quarterly check-in emails.
var QuarterlyMembershipVariants = []string{"bronze", "silver", "gold", "platinum"}

// MembershipOnboardingRoles are the contacts welcomed by onboarding emails.
var MembershipOnboardingRoles = []string{MembershipRoleBillingContact, MembershipRoleProgrammaticContact}

type Membership struct {
	ID                   int64             `json:"id"`
	Name                 string            `json:"name"`
	Variant              string            `json:"variant"`
	AgreementStart       time.Time         `json:"agreement_start"`
	AgreementEnd         time.Time         `json:"agreement_end"`
	RolledFromMembership *int64            `json:"rolled_from_membership,omitempty"`
	Tasks                []*MembershipTask `json:"tasks"`
	Events               []*Event          `json:"events"`
	TraineeTasks         []*Task           `json:"trainee_tasks"`
	CreatedAt            time.Time         `json:"created_at"`
}

func (m *Membership) ModelName() string { return string(RelationMembership) }
func (m *Membership) PrimaryKey() int64 { return m.ID }
func (m *Membership) String() string    { return m.Name }

func (m *Membership) TasksWithRoles(roles ...string) []*MembershipTask {
	var out []*MembershipTask
	for _, t := range m.Tasks {
		if slices.Contains(roles, t.Role) {
			out = append(out, t)
		}
	}
	return out
}

func (m *Membership) Contacts() []*Person {
	out := make([]*Person, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		if t.Person != nil {
			out = append(out, t.Person)
		}
	}
	return out
}

type MembershipTask struct {
	ID           int64   `json:"id"`
	MembershipID int64   `json:"membership_id"`
	PersonID     int64   `json:"person_id"`
	Person       *Person `json:"person,omitempty"`
	Role         string  `json:"role"`
}

func (t *MembershipTask) ModelName() string { return "membershiptask" }
func (t *MembershipTask) PrimaryKey() int64 { return t.ID }
