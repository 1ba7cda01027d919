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

var QuarterlySignals = []signal.Name{
	signal.MembershipQuarterly3Months,
	signal.MembershipQuarterly6Months,
	signal.MembershipQuarterly9Months,
}

// quarterlySchedule picks the agreement date and offset for each check-in.
var quarterlySchedule = map[signal.Name]struct {
	fromEnd bool
	offset  time.Duration
}{
	signal.MembershipQuarterly3Months: {false, emails.Days(90)},
	signal.MembershipQuarterly6Months: {false, emails.Days(180)},
	signal.MembershipQuarterly9Months: {true, -emails.Days(90)},
}

func QuarterlyScheduledAt(name signal.Name, m *entity.Membership, now time.Time) time.Time {
	s := quarterlySchedule[name]
	date := m.AgreementStart
	if s.fromEnd {
		date = m.AgreementEnd
	}
	return emails.ShiftDateAndApplyCurrentUTCTime(date, s.offset, now)
}

func (a *Actions) MembershipQuarterlyStrategy(ctx context.Context, name signal.Name, m *entity.Membership) (emails.Strategy, error) {
	if _, ok := quarterlySchedule[name]; !ok {
		return "", fmt.Errorf("%s is not a quarterly membership signal", name)
	}
	taskCount := len(m.Tasks)
	acceptableVariant := slices.Contains(entity.QuarterlyMembershipVariants, m.Variant)

	return a.decide(ctx, name, entity.RelationOf(m), logrus.Fields{
		"task_count":                    taskCount,
		"membership_variant":            m.Variant,
		"membership_acceptable_variant": acceptableVariant,
	}, taskCount > 0 && acceptableVariant)
}

func (a *Actions) RunMembershipQuarterly(ctx context.Context, req *emails.Request, name signal.Name, m *entity.Membership) (emails.Strategy, error) {
	trio, ok := a.MembershipQuarterly[name]
	if !ok {
		return "", fmt.Errorf("%s is not a quarterly membership signal", name)
	}
	strategy := func(ctx context.Context, m *entity.Membership) (emails.Strategy, error) {
		return a.MembershipQuarterlyStrategy(ctx, name, m)
	}
	return run(ctx, trio, req, strategy, m)
}

func quarterlyAction(name signal.Name) *emails.Action[*entity.Membership] {
	return &emails.Action[*entity.Membership]{
		Signal: name,
		Context: func(_ context.Context, m *entity.Membership) (emails.Context, error) {
			trainees := make([]*entity.Person, 0, len(m.TraineeTasks))
			for _, t := range m.TraineeTasks {
				if t.Person != nil {
					trainees = append(trainees, t.Person)
				}
			}
			return emails.Context{
				"membership":      m,
				"member_contacts": m.Contacts(),
				"events":          m.Events,
				"trainee_tasks":   m.TraineeTasks,
				"trainees":        trainees,
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"membership":      emails.ModelURL(get[*entity.Membership](c, "membership")),
				"member_contacts": emails.ModelURLs(get[[]*entity.Person](c, "member_contacts")),
				"events":          emails.ModelURLs(get[[]*entity.Event](c, "events")),
				"trainee_tasks":   emails.ModelURLs(get[[]*entity.Task](c, "trainee_tasks")),
				"trainees":        emails.ModelURLs(get[[]*entity.Person](c, "trainees")),
			}
		},
		Relation: func(_ emails.Context, m *entity.Membership) entity.Relation {
			return entity.RelationOf(m)
		},
		ScheduledAt: func(m *entity.Membership, now time.Time) time.Time {
			return QuarterlyScheduledAt(name, m, now)
		},
		Recipients: func(c emails.Context, _ *entity.Membership) []string {
			return entity.Emails(get[[]*entity.Person](c, "member_contacts"))
		},
		RecipientsJSON: func(c emails.Context, _ *entity.Membership) emails.ToHeaderModel {
			return emails.PersonEmails(withEmail(get[[]*entity.Person](c, "member_contacts")))
		},
	}
}
