package actions

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

func (a *Actions) HostInstructorsIntroductionStrategy(ctx context.Context, e *entity.Event) (emails.Strategy, error) {
	notSelfOrganised := e.IsCentrallyOrganised()
	noOpenRecruitment := !e.HasOpenRecruitment()
	startIn7Days := e.StartsOnOrAfter(a.today().Add(emails.Days(7)))
	active := e.IsActive()
	host := len(e.Hosts()) > 0
	atLeast2Instructors := len(e.TasksWithRole(entity.RoleInstructor)) >= 2
	carpentries := e.HasCarpentriesTag()

	return a.decide(ctx, signal.HostInstructorsIntroduction, entity.RelationOf(e), logrus.Fields{
		"not_self_organised":           notSelfOrganised,
		"no_open_recruitment":          noOpenRecruitment,
		"start_date_in_at_least_7days": startIn7Days,
		"active":                       active,
		"host":                         host,
		"at_least_2_instructors":       atLeast2Instructors,
		"carpentries_tags":             carpentries,
	}, notSelfOrganised && startIn7Days && active && host && atLeast2Instructors && noOpenRecruitment && carpentries)
}

func (a *Actions) RunHostInstructorsIntroduction(ctx context.Context, req *emails.Request, e *entity.Event) (emails.Strategy, error) {
	return run(ctx, a.HostInstructorsIntroduction, req, a.HostInstructorsIntroductionStrategy, e)
}

func hostIntroductionAction() *emails.Action[*entity.Event] {
	return &emails.Action[*entity.Event]{
		Signal: signal.HostInstructorsIntroduction,
		Context: func(_ context.Context, e *entity.Event) (emails.Context, error) {
			var host *entity.Person
			if hosts := e.Hosts(); len(hosts) > 0 {
				host = hosts[0]
			}
			return emails.Context{
				"assignee":      e.AssignedTo,
				"event":         e,
				"workshop_host": e.Host,
				"host":          host,
				"instructors":   e.Instructors(),
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"assignee":      assigneeURL(c),
				"event":         emails.ModelURL(get[*entity.Event](c, "event")),
				"workshop_host": emails.OptionalModelURL(get[*entity.Organization](c, "workshop_host")),
				"host":          emails.OptionalModelURL(get[*entity.Person](c, "host")),
				"instructors":   emails.ModelURLs(get[[]*entity.Person](c, "instructors")),
			}
		},
		Relation:    eventRelation,
		ScheduledAt: immediately[*entity.Event],
		Recipients: func(c emails.Context, _ *entity.Event) []string {
			return entity.Emails(hostThenInstructors(c))
		},
		RecipientsJSON: func(c emails.Context, _ *entity.Event) emails.ToHeaderModel {
			return emails.PersonEmails(hostThenInstructors(c))
		},
	}
}

func hostThenInstructors(c emails.Context) []*entity.Person {
	var out []*entity.Person
	if host := get[*entity.Person](c, "host"); host != nil {
		out = append(out, host)
	}
	return append(out, get[[]*entity.Person](c, "instructors")...)
}
