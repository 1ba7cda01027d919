package actions

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

func (a *Actions) InstructorTrainingApproachingStrategy(ctx context.Context, e *entity.Event) (emails.Strategy, error) {
	hasTTT := e.HasTag(entity.TagTTT)
	atLeast2Instructors := len(e.TasksWithRole(entity.RoleInstructor)) >= 2
	startInFuture := e.StartsOnOrAfter(a.today())

	return a.decide(ctx, signal.InstructorTrainingApproaching, entity.RelationOf(e), logrus.Fields{
		"has_TTT":                hasTTT,
		"at_least_2_instructors": atLeast2Instructors,
		"start_in_future":        startInFuture,
	}, hasTTT && atLeast2Instructors && startInFuture)
}

func (a *Actions) RunInstructorTrainingApproaching(ctx context.Context, req *emails.Request, e *entity.Event) (emails.Strategy, error) {
	return run(ctx, a.InstructorTrainingApproaching, req, a.InstructorTrainingApproachingStrategy, e)
}

func trainingApproachingAction() *emails.Action[*entity.Event] {
	return &emails.Action[*entity.Event]{
		Signal: signal.InstructorTrainingApproaching,
		Context: func(_ context.Context, e *entity.Event) (emails.Context, error) {
			return emails.Context{
				"event":       e,
				"instructors": e.Instructors(),
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"event":       emails.ModelURL(get[*entity.Event](c, "event")),
				"instructors": emails.ModelURLs(get[[]*entity.Person](c, "instructors")),
			}
		},
		Relation:    eventRelation,
		ScheduledAt: oneMonthBeforeStart,
		Recipients: func(c emails.Context, _ *entity.Event) []string {
			return entity.Emails(get[[]*entity.Person](c, "instructors"))
		},
		RecipientsJSON: func(c emails.Context, _ *entity.Event) emails.ToHeaderModel {
			return emails.PersonEmails(get[[]*entity.Person](c, "instructors"))
		},
	}
}

func eventRelation(_ emails.Context, e *entity.Event) entity.Relation {
	return entity.RelationOf(e)
}

func oneMonthBeforeStart(e *entity.Event, now time.Time) time.Time {
	if e.Start == nil {
		return emails.ImmediateAction(now)
	}
	return emails.OneMonthBefore(*e.Start, now)
}

// assigneeURL encodes the optional person handling the event.
func assigneeURL(c emails.Context) string {
	return emails.OptionalModelURL(get[*entity.Person](c, "assignee"))
}
