package actions

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// A membership cannot be removed while it has tasks, so removing the last
// onboarding contact is what cancels the email.
func (a *Actions) NewMembershipOnboardingStrategy(ctx context.Context, m *entity.Membership) (emails.Strategy, error) {
	notRolledOver := m.RolledFromMembership == nil
	contacts := len(m.TasksWithRoles(entity.MembershipOnboardingRoles...))

	return a.decide(ctx, signal.NewMembershipOnboarding, entity.RelationOf(m), logrus.Fields{
		"not_rolled_over":  notRolledOver,
		"onboarding_tasks": contacts,
	}, notRolledOver && contacts > 0)
}

func (a *Actions) RunNewMembershipOnboarding(ctx context.Context, req *emails.Request, m *entity.Membership) (emails.Strategy, error) {
	return run(ctx, a.NewMembershipOnboarding, req, a.NewMembershipOnboardingStrategy, m)
}

func onboardingContacts(m *entity.Membership) []*entity.Person {
	var out []*entity.Person
	for _, t := range m.TasksWithRoles(entity.MembershipOnboardingRoles...) {
		if t.Person != nil {
			out = append(out, t.Person)
		}
	}
	return out
}

func onboardingAction() *emails.Action[*entity.Membership] {
	return &emails.Action[*entity.Membership]{
		Signal: signal.NewMembershipOnboarding,
		Context: func(_ context.Context, m *entity.Membership) (emails.Context, error) {
			return emails.Context{"membership": m}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{"membership": emails.ModelURL(get[*entity.Membership](c, "membership"))}
		},
		Relation: func(_ emails.Context, m *entity.Membership) entity.Relation {
			return entity.RelationOf(m)
		},
		ScheduledAt: func(m *entity.Membership, now time.Time) time.Time {
			return emails.MaxTime(emails.OneMonthBefore(m.AgreementStart, now), emails.ImmediateAction(now))
		},
		Recipients: func(_ emails.Context, m *entity.Membership) []string {
			return entity.Emails(onboardingContacts(m))
		},
		RecipientsJSON: func(_ emails.Context, m *entity.Membership) emails.ToHeaderModel {
			return emails.PersonEmails(onboardingContacts(m))
		},
	}
}
