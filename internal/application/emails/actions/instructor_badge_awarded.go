package actions

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// BadgeAwarded is sent when an award is saved or removed. AwardID keeps
// the key of a removed award so its email can still be found.
type BadgeAwarded struct {
	Award   *entity.Award
	Person  *entity.Person
	AwardID int64
}

func (p BadgeAwarded) awardID() int64 {
	if p.AwardID != 0 {
		return p.AwardID
	}
	if p.Award != nil {
		return p.Award.ID
	}
	return 0
}

func (p BadgeAwarded) relation() entity.Relation {
	return entity.Relation{Kind: entity.RelationAward, ID: p.awardID()}
}

func (a *Actions) InstructorBadgeAwardedStrategy(ctx context.Context, p BadgeAwarded) (emails.Strategy, error) {
	awardSaved := p.Award != nil && p.Award.ID != 0
	instructorAward := p.Award != nil && p.Award.Badge.Name == entity.BadgeInstructor

	return a.decide(ctx, signal.InstructorBadgeAwarded, p.relation(), logrus.Fields{
		"award_id":         p.awardID(),
		"award_exists":     awardSaved,
		"instructor_award": instructorAward,
	}, awardSaved && instructorAward)
}

func (a *Actions) RunInstructorBadgeAwarded(ctx context.Context, req *emails.Request, p BadgeAwarded) (emails.Strategy, error) {
	return run(ctx, a.InstructorBadgeAwarded, req, a.InstructorBadgeAwardedStrategy, p)
}

func (a *Actions) badgeAwardedAction() *emails.Action[BadgeAwarded] {
	return &emails.Action[BadgeAwarded]{
		Signal: signal.InstructorBadgeAwarded,
		Context: func(_ context.Context, p BadgeAwarded) (emails.Context, error) {
			return emails.Context{
				"person":   p.Person,
				"award":    p.Award,
				"award_id": p.awardID(),
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"person":   emails.ModelURL(get[*entity.Person](c, "person")),
				"award":    emails.OptionalModelURL(get[*entity.Award](c, "award")),
				"award_id": emails.IntValue(get[int64](c, "award_id")),
			}
		},
		Relation: func(_ emails.Context, p BadgeAwarded) entity.Relation {
			return p.relation()
		},
		ScheduledAt: immediately[BadgeAwarded],
		Recipients: func(c emails.Context, _ BadgeAwarded) []string {
			return personRecipients(c, "person")
		},
		RecipientsJSON: func(c emails.Context, _ BadgeAwarded) emails.ToHeaderModel {
			return personRecipientsJSON(c, "person")
		},
		AfterSchedule: a.attachCertificate,
	}
}

// attachCertificate stores an SVG instructor certificate with the new email.
func (a *Actions) attachCertificate(ctx context.Context, _ *emails.Request, email *entity.ScheduledEmail, c emails.Context) error {
	if a.Attachments == nil {
		return nil
	}
	person := get[*entity.Person](c, "person")
	award := get[*entity.Award](c, "award")
	if person == nil || award == nil {
		return nil
	}
	svg, err := RenderCertificate(person, award)
	if err != nil {
		return err
	}
	_, err = a.Attachments.AddAttachment(ctx, email, CertificateFilename(person), "image/svg+xml", svg)
	return err
}
