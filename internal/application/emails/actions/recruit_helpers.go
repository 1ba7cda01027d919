package actions

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

func (a *Actions) RecruitHelpersStrategy(ctx context.Context, e *entity.Event) (emails.Strategy, error) {
	notSelfOrganised := e.IsCentrallyOrganised()
	startIn14Days := e.StartsOnOrAfter(a.today().Add(emails.Days(14)))
	active := e.IsActive()
	atLeast1Host := len(e.TasksWithRole(entity.RoleHost)) >= 1
	atLeast1Instructor := len(e.TasksWithRole(entity.RoleInstructor)) >= 1
	noHelpers := len(e.TasksWithRole(entity.RoleHelper)) == 0

	return a.decide(ctx, signal.RecruitHelpers, entity.RelationOf(e), logrus.Fields{
		"not_self_organised":            notSelfOrganised,
		"start_date_in_at_least_14days": startIn14Days,
		"active":                        active,
		"at_least_1_host":               atLeast1Host,
		"at_least_1_instructor":         atLeast1Instructor,
		"no_helpers":                    noHelpers,
	}, notSelfOrganised && startIn14Days && active && atLeast1Host && atLeast1Instructor && noHelpers)
}

func (a *Actions) RunRecruitHelpers(ctx context.Context, req *emails.Request, e *entity.Event) (emails.Strategy, error) {
	return run(ctx, a.RecruitHelpers, req, a.RecruitHelpersStrategy, e)
}

// RecruitHelpersRecipients lists the event's instructor addresses, each
// once, as a single header value.
func RecruitHelpersRecipients(e *entity.Event) string {
	var out []string
	for _, email := range entity.Emails(e.Instructors()) {
		if !slices.Contains(out, email) {
			out = append(out, email)
		}
	}
	return strings.Join(out, ", ")
}

func recruitHelpersAction() *emails.Action[*entity.Event] {
	return &emails.Action[*entity.Event]{
		Signal: signal.RecruitHelpers,
		Context: func(_ context.Context, e *entity.Event) (emails.Context, error) {
			return emails.Context{
				"assignee":    e.AssignedTo,
				"event":       e,
				"instructors": e.Instructors(),
				"hosts":       e.Hosts(),
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"assignee":    assigneeURL(c),
				"event":       emails.ModelURL(get[*entity.Event](c, "event")),
				"instructors": emails.ModelURLs(get[[]*entity.Person](c, "instructors")),
				"hosts":       emails.ModelURLs(get[[]*entity.Person](c, "hosts")),
			}
		},
		Relation: eventRelation,
		ScheduledAt: func(e *entity.Event, now time.Time) time.Time {
			if e.Start == nil {
				return emails.ImmediateAction(now)
			}
			return emails.ShiftDateAndApplyCurrentUTCTime(*e.Start, -emails.Days(21), now)
		},
		Recipients: func(c emails.Context, _ *entity.Event) []string {
			return entity.Emails(instructorsThenHosts(c))
		},
		RecipientsJSON: func(c emails.Context, _ *entity.Event) emails.ToHeaderModel {
			return emails.PersonEmails(instructorsThenHosts(c))
		},
	}
}

func instructorsThenHosts(c emails.Context) []*entity.Person {
	out := slices.Clone(get[[]*entity.Person](c, "instructors"))
	return append(out, get[[]*entity.Person](c, "hosts")...)
}
