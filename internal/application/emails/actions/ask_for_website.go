package actions

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

func (a *Actions) AskForWebsiteStrategy(ctx context.Context, e *entity.Event) (emails.Strategy, error) {
	startInFuture := e.StartsOnOrAfter(a.today())
	active := e.IsActive()
	hasAdministrator := e.Administrator != nil
	noURL := e.URL == ""
	hasInstructors := len(e.TasksWithRole(entity.RoleInstructor)) >= 1
	carpentries := e.HasCarpentriesTag()

	return a.decide(ctx, signal.AskForWebsite, entity.RelationOf(e), logrus.Fields{
		"start_date_in_future": startInFuture,
		"active":               active,
		"has_administrator":    hasAdministrator,
		"no_url":               noURL,
		"has_instructors":      hasInstructors,
		"carpentries_tags":     carpentries,
	}, startInFuture && active && hasAdministrator && noURL && hasInstructors && carpentries)
}

func (a *Actions) RunAskForWebsite(ctx context.Context, req *emails.Request, e *entity.Event) (emails.Strategy, error) {
	return run(ctx, a.AskForWebsite, req, a.AskForWebsiteStrategy, e)
}

func askForWebsiteAction() *emails.Action[*entity.Event] {
	return &emails.Action[*entity.Event]{
		Signal: signal.AskForWebsite,
		Context: func(_ context.Context, e *entity.Event) (emails.Context, error) {
			return emails.Context{
				"assignee":    e.AssignedTo,
				"event":       e,
				"instructors": e.Instructors(),
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"assignee":    assigneeURL(c),
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
