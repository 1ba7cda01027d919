package actions

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// NotBadged carries a trainee and their training progress. A nil
// TrainingCompletedDate falls back to the end of the passed training event.
type NotBadged struct {
	Person                *entity.Person
	Progress              []*entity.TrainingProgress
	TrainingCompletedDate *time.Time
}

func (p NotBadged) passed(names ...string) bool {
	for _, pr := range p.Progress {
		if pr.Passed() && slices.Contains(names, pr.Requirement.Name) {
			return true
		}
	}
	return false
}

func (p NotBadged) completedDate() *time.Time {
	if p.TrainingCompletedDate != nil {
		return p.TrainingCompletedDate
	}
	for _, pr := range p.Progress {
		if pr.Requirement.Name == entity.RequirementTraining && pr.State == entity.ProgressPassed &&
			pr.Event != nil && pr.Event.End != nil {
			return pr.Event.End
		}
	}
	return nil
}

func (a *Actions) InstructorTrainingCompletedNotBadgedStrategy(ctx context.Context, p NotBadged) (emails.Strategy, error) {
	passedTraining := p.passed(entity.RequirementTraining)
	passedGetInvolved := p.passed(entity.RequirementGetInvolved)
	passedWelcome := p.passed(entity.RequirementWelcome)
	passedDemo := p.passed(entity.DemoRequirementNames...)
	allPassed := passedTraining && passedGetInvolved && passedWelcome && passedDemo

	return a.decide(ctx, signal.InstructorTrainingCompletedNotBadged, entity.RelationOf(p.Person), logrus.Fields{
		"passed_training":     passedTraining,
		"passed_get_involved": passedGetInvolved,
		"passed_welcome":      passedWelcome,
		"passed_demo":         passedDemo,
	}, passedTraining && !allPassed)
}

// RunInstructorTrainingCompletedNotBadged loads the trainee's progress when
// the payload carries none.
func (a *Actions) RunInstructorTrainingCompletedNotBadged(ctx context.Context, req *emails.Request, p NotBadged) (emails.Strategy, error) {
	if p.Progress == nil && a.Repo != nil && p.Person.ID != 0 {
		progress, err := a.Repo.TrainingProgress(ctx, p.Person.ID)
		if err != nil {
			return "", fmt.Errorf("load training progress: %w", err)
		}
		p.Progress = progress
	}
	p.TrainingCompletedDate = p.completedDate()
	return run(ctx, a.InstructorTrainingNotBadged, req, a.InstructorTrainingCompletedNotBadgedStrategy, p)
}

func (a *Actions) notBadgedAction() *emails.Action[NotBadged] {
	return &emails.Action[NotBadged]{
		Signal: signal.InstructorTrainingCompletedNotBadged,
		Context: func(_ context.Context, p NotBadged) (emails.Context, error) {
			passed := make([]*entity.TrainingProgress, 0, len(p.Progress))
			missing := make([]*entity.TrainingProgress, 0, len(p.Progress))
			for _, pr := range p.Progress {
				if pr.State == entity.ProgressPassed {
					passed = append(passed, pr)
				} else {
					missing = append(missing, pr)
				}
			}
			var completed any
			if d := p.completedDate(); d != nil {
				completed = *d
			}
			return emails.Context{
				"person":                  p.Person,
				"passed_requirements":     passed,
				"missing_requirements":    missing,
				"training_completed_date": completed,
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			completed := emails.ScalarValueNone()
			if d, ok := c["training_completed_date"].(time.Time); ok {
				completed = emails.DateValue(d)
			}
			return emails.ContextModel{
				"person":                  emails.ModelURL(get[*entity.Person](c, "person")),
				"passed_requirements":     emails.ModelURLs(get[[]*entity.TrainingProgress](c, "passed_requirements")),
				"missing_requirements":    emails.ModelURLs(get[[]*entity.TrainingProgress](c, "missing_requirements")),
				"training_completed_date": completed,
			}
		},
		Relation: func(_ emails.Context, p NotBadged) entity.Relation {
			return entity.RelationOf(p.Person)
		},
		ScheduledAt: func(p NotBadged, now time.Time) time.Time {
			d := p.completedDate()
			if d == nil {
				return emails.ImmediateAction(now)
			}
			return emails.TwoMonthsAfter(*d, now)
		},
		Recipients: func(c emails.Context, _ NotBadged) []string {
			return personRecipients(c, "person")
		},
		RecipientsJSON: func(c emails.Context, _ NotBadged) emails.ToHeaderModel {
			return personRecipientsJSON(c, "person")
		},
	}
}
