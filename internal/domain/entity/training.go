package entity

import "time"

const (
	ProgressPassed  = "p"
	ProgressFailed  = "f"
	ProgressAsked   = "a"
	ProgressNotEval = "n"

	RequirementTraining    = "Training"
	RequirementGetInvolved = "Get Involved"
	RequirementWelcome     = "Welcome Session"
	RequirementDemo        = "Demo"
)

// Requirement names that count as a passed demo.
var DemoRequirementNames = []string{"Demo", "SWC Demo", "DC Demo", "LC Demo"}

type TrainingRequirement struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TrainingProgress struct {
	ID          int64               `json:"id"`
	TraineeID   int64               `json:"trainee_id"`
	Requirement TrainingRequirement `json:"requirement"`
	State       string              `json:"state"`
	Discarded   bool                `json:"discarded"`
	Event       *Event              `json:"event,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

func (p *TrainingProgress) ModelName() string { return "trainingprogress" }
func (p *TrainingProgress) PrimaryKey() int64 { return p.ID }

func (p *TrainingProgress) Passed() bool { return p.State == ProgressPassed && !p.Discarded }
