package entity

import "fmt"

// Model is implemented by every entity a scheduled email can point at or
// carry in its context.
type Model interface {
	ModelName() string
	PrimaryKey() int64
}

type RelationKind string

const (
	RelationPerson                  RelationKind = "person"
	RelationEvent                   RelationKind = "event"
	RelationAward                   RelationKind = "award"
	RelationMembership              RelationKind = "membership"
	RelationTask                    RelationKind = "task"
	RelationSignup                  RelationKind = "instructorrecruitmentsignup"
	RelationSelfOrganisedSubmission RelationKind = "selforganisedsubmission"
)

// Relation points a scheduled email at the entity it concerns.
type Relation struct {
	Kind RelationKind `json:"kind"`
	ID   int64        `json:"id"`
}

func RelationOf(m Model) Relation {
	return Relation{Kind: RelationKind(m.ModelName()), ID: m.PrimaryKey()}
}

func (r Relation) IsZero() bool { return r.Kind == "" || r.ID == 0 }

func (r Relation) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}
