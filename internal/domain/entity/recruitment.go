package entity

import "time"

const (
	RecruitmentOpen   = "o"
	RecruitmentClosed = "c"

	SignupPending  = "p"
	SignupAccepted = "a"
	SignupDeclined = "d"
)

type InstructorRecruitment struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *InstructorRecruitment) ModelName() string { return "instructorrecruitment" }
func (r *InstructorRecruitment) PrimaryKey() int64 { return r.ID }

// InstructorRecruitmentSignup is a person's application to teach at a
// recruiting event.
type InstructorRecruitmentSignup struct {
	ID            int64     `json:"id"`
	RecruitmentID int64     `json:"recruitment_id"`
	Event         *Event    `json:"event,omitempty"`
	PersonID      int64     `json:"person_id"`
	Person        *Person   `json:"person,omitempty"`
	State         string    `json:"state"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *InstructorRecruitmentSignup) ModelName() string { return string(RelationSignup) }
func (s *InstructorRecruitmentSignup) PrimaryKey() int64 { return s.ID }
