package entity

import "time"

const (
	RoleHost                 = "host"
	RoleInstructor           = "instructor"
	RoleSupportingInstructor = "supporting-instructor"
	RoleHelper               = "helper"
	RoleLearner              = "learner"
)

type Task struct {
	ID           int64     `json:"id"`
	EventID      int64     `json:"event_id"`
	PersonID     int64     `json:"person_id"`
	Person       *Person   `json:"person,omitempty"`
	Role         string    `json:"role"`
	MembershipID *int64    `json:"membership_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (t *Task) ModelName() string { return string(RelationTask) }
func (t *Task) PrimaryKey() int64 { return t.ID }
