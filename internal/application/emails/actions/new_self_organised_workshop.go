package actions

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// SelfOrganised pairs a self-organised event with the submission that
// announced it. Submission may be nil.
type SelfOrganised struct {
	Event      *entity.Event
	Submission *entity.SelfOrganisedSubmission
}

const shortNoticeDays = 10

func (a *Actions) NewSelfOrganisedWorkshopStrategy(ctx context.Context, p SelfOrganised) (emails.Strategy, error) {
	e := p.Event
	selfOrganised := e.IsSelfOrganised()
	startInFuture := e.StartsOnOrAfter(a.today())
	active := e.IsActive()
	submission := p.Submission != nil

	return a.decide(ctx, signal.NewSelfOrganisedWorkshop, entity.RelationOf(e), logrus.Fields{
		"self_organised":       selfOrganised,
		"start_date_in_future": startInFuture,
		"active":               active,
		"submission":           submission,
	}, selfOrganised && startInFuture && active && submission)
}

func (a *Actions) RunNewSelfOrganisedWorkshop(ctx context.Context, req *emails.Request, p SelfOrganised) (emails.Strategy, error) {
	return run(ctx, a.NewSelfOrganisedWorkshop, req, a.NewSelfOrganisedWorkshopStrategy, p)
}

func (a *Actions) selfOrganisedAction() *emails.Action[SelfOrganised] {
	return &emails.Action[SelfOrganised]{
		Signal: signal.NewSelfOrganisedWorkshop,
		Context: func(_ context.Context, p SelfOrganised) (emails.Context, error) {
			e := p.Event
			assignee := e.AssignedTo
			if p.Submission != nil && p.Submission.AssignedTo != nil {
				assignee = p.Submission.AssignedTo
			}
			shortNotice := e.Start != nil && !e.Start.After(a.today().Add(emails.Days(shortNoticeDays)))
			return emails.Context{
				"assignee":                  assignee,
				"workshop_host":             e.Host,
				"event":                     e,
				"short_notice":              shortNotice,
				"self_organised_submission": p.Submission,
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"assignee":                  assigneeURL(c),
				"workshop_host":             emails.OptionalModelURL(get[*entity.Organization](c, "workshop_host")),
				"event":                     emails.ModelURL(get[*entity.Event](c, "event")),
				"short_notice":              emails.BoolValue(get[bool](c, "short_notice")),
				"self_organised_submission": emails.OptionalModelURL(get[*entity.SelfOrganisedSubmission](c, "self_organised_submission")),
			}
		},
		Relation: func(_ emails.Context, p SelfOrganised) entity.Relation {
			return entity.RelationOf(p.Event)
		},
		ScheduledAt: immediately[SelfOrganised],
		Recipients: func(c emails.Context, _ SelfOrganised) []string {
			s := get[*entity.SelfOrganisedSubmission](c, "self_organised_submission")
			if s == nil {
				return nil
			}
			var out []string
			if s.Email != "" {
				out = append(out, s.Email)
			}
			return append(out, additionalContacts(s)...)
		},
		RecipientsJSON: func(c emails.Context, _ SelfOrganised) emails.ToHeaderModel {
			s := get[*entity.SelfOrganisedSubmission](c, "self_organised_submission")
			if s == nil {
				return emails.ToHeaderModel{}
			}
			out := emails.ToHeaderModel{{APIURI: emails.ModelURL(s), Property: "email"}}
			for _, contact := range additionalContacts(s) {
				out = append(out, emails.ValueRecipient(contact))
			}
			return out
		},
	}
}

func additionalContacts(s *entity.SelfOrganisedSubmission) []string {
	var out []string
	for _, c := range s.AdditionalContacts() {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
