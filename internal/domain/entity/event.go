package entity

import (
	"slices"
	"strings"
	"time"
)

type Event struct {
	ID            int64                    `json:"id"`
	Slug          string                   `json:"slug"`
	Start         *time.Time               `json:"start,omitempty"`
	End           *time.Time               `json:"end,omitempty"`
	URL           string                   `json:"url"`
	Host          *Organization            `json:"host,omitempty"`
	Administrator *Organization            `json:"administrator,omitempty"`
	AssignedTo    *Person                  `json:"assigned_to,omitempty"`
	MembershipID  *int64                   `json:"membership_id,omitempty"`
	Tags          []Tag                    `json:"tags"`
	Tasks         []*Task                  `json:"tasks"` // ordered by creation
	Recruitment   *InstructorRecruitment   `json:"instructor_recruitment,omitempty"`
	Submission    *SelfOrganisedSubmission `json:"self_organised_submission,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

func (e *Event) ModelName() string { return string(RelationEvent) }
func (e *Event) PrimaryKey() int64 { return e.ID }
func (e *Event) String() string    { return e.Slug }

func (e *Event) HasTag(names ...string) bool {
	for _, t := range e.Tags {
		if slices.Contains(names, t.Name) {
			return true
		}
	}
	return false
}

// HasCarpentriesTag reports a Carpentries lesson tag that is not also
// marked by one of the non-Carpentries tag names.
func (e *Event) HasCarpentriesTag() bool {
	for _, t := range e.Tags {
		if slices.Contains(CarpentriesTagNames, t.Name) && !slices.Contains(NonCarpentriesTagNames, t.Name) {
			return true
		}
	}
	return false
}

func (e *Event) IsActive() bool { return !e.HasTag(InactiveTagNames...) }

func (e *Event) IsSelfOrganised() bool {
	return e.Administrator != nil && e.Administrator.Domain == DomainSelfOrganised
}

func (e *Event) IsCentrallyOrganised() bool {
	return e.Administrator != nil && e.Administrator.Domain != DomainSelfOrganised
}

func (e *Event) IsCommunityLesson() bool {
	return e.Administrator != nil && e.Administrator.Domain == DomainCommunityLessons
}

func (e *Event) StartsOnOrAfter(day time.Time) bool {
	return e.Start != nil && !e.Start.Before(day)
}

func (e *Event) EndsOnOrAfter(day time.Time) bool {
	return e.End != nil && !e.End.Before(day)
}

// TasksWithRole returns tasks of the given role in creation order.
func (e *Event) TasksWithRole(role string) []*Task {
	var out []*Task
	for _, t := range e.Tasks {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

// PersonsWithRole returns the persons of the given role in task order.
func (e *Event) PersonsWithRole(role string) []*Person {
	var out []*Person
	for _, t := range e.TasksWithRole(role) {
		if t.Person != nil {
			out = append(out, t.Person)
		}
	}
	return out
}

func (e *Event) Instructors() []*Person { return e.PersonsWithRole(RoleInstructor) }
func (e *Event) Hosts() []*Person       { return e.PersonsWithRole(RoleHost) }
func (e *Event) Helpers() []*Person     { return e.PersonsWithRole(RoleHelper) }

func (e *Event) HasOpenRecruitment() bool {
	return e.Recruitment != nil && e.Recruitment.Status == RecruitmentOpen
}

func (e *Event) TagNames() string {
	names := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
