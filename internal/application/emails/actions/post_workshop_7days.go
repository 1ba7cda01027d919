package actions

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

func (a *Actions) PostWorkshop7DaysStrategy(ctx context.Context, e *entity.Event) (emails.Strategy, error) {
	centrallyOrganised := e.IsCentrallyOrganised() && !e.IsCommunityLesson()
	selfOrganised := e.IsSelfOrganised()
	notCLDT := e.Administrator != nil && !e.IsCommunityLesson()
	endInFuture := e.EndsOnOrAfter(a.today())
	active := e.IsActive()
	carpentriesTag := e.HasTag(entity.CarpentriesTagNames...)
	atLeast1Host := len(e.TasksWithRole(entity.RoleHost)) >= 1
	atLeast1Instructor := len(e.TasksWithRole(entity.RoleInstructor)) >= 1

	return a.decide(ctx, signal.PostWorkshop7Days, entity.RelationOf(e), logrus.Fields{
		"centrally_organised":   centrallyOrganised,
		"self_organised":        selfOrganised,
		"not_cldt":              notCLDT,
		"end_date_in_future":    endInFuture,
		"active":                active,
		"carpentries_tag":       carpentriesTag,
		"at_least_1_host":       atLeast1Host,
		"at_least_1_instructor": atLeast1Instructor,
	}, (centrallyOrganised || selfOrganised) && notCLDT && endInFuture && active && carpentriesTag && atLeast1Host && atLeast1Instructor)
}

func (a *Actions) RunPostWorkshop7Days(ctx context.Context, req *emails.Request, e *entity.Event) (emails.Strategy, error) {
	return run(ctx, a.PostWorkshop7Days, req, a.PostWorkshop7DaysStrategy, e)
}

func postWorkshopAction() *emails.Action[*entity.Event] {
	return &emails.Action[*entity.Event]{
		Signal: signal.PostWorkshop7Days,
		Context: func(_ context.Context, e *entity.Event) (emails.Context, error) {
			return emails.Context{
				"assignee":    e.AssignedTo,
				"event":       e,
				"hosts":       e.Hosts(),
				"instructors": e.Instructors(),
				"helpers":     e.Helpers(),
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"assignee":    assigneeURL(c),
				"event":       emails.ModelURL(get[*entity.Event](c, "event")),
				"hosts":       emails.ModelURLs(get[[]*entity.Person](c, "hosts")),
				"instructors": emails.ModelURLs(get[[]*entity.Person](c, "instructors")),
				"helpers":     emails.ModelURLs(get[[]*entity.Person](c, "helpers")),
			}
		},
		Relation: eventRelation,
		ScheduledAt: func(e *entity.Event, now time.Time) time.Time {
			weekFromNow := now.Add(emails.Days(7))
			if e.End == nil {
				return weekFromNow
			}
			weekAfterEvent := emails.ShiftDateAndApplyCurrentUTCTime(*e.End, emails.Days(7), now)
			return emails.MaxTime(weekAfterEvent, weekFromNow)
		},
		Recipients: func(c emails.Context, _ *entity.Event) []string {
			return entity.Emails(hostsThenInstructors(c))
		},
		RecipientsJSON: func(c emails.Context, _ *entity.Event) emails.ToHeaderModel {
			return emails.PersonEmails(hostsThenInstructors(c))
		},
	}
}

func hostsThenInstructors(c emails.Context) []*entity.Person {
	out := slices.Clone(get[[]*entity.Person](c, "hosts"))
	return append(out, get[[]*entity.Person](c, "instructors")...)
}
