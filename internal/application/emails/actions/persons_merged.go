package actions

import (
	"context"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// SendPersonsMerged notifies the person that survived a merge.
func (a *Actions) SendPersonsMerged(ctx context.Context, req *emails.Request, p *entity.Person) error {
	return a.PersonsMerged.Create.Send(ctx, req, p)
}

func personsMergedAction() *emails.Action[*entity.Person] {
	return &emails.Action[*entity.Person]{
		Signal: signal.PersonsMerged,
		Context: func(_ context.Context, p *entity.Person) (emails.Context, error) {
			return emails.Context{"person": p}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{"person": emails.ModelURL(get[*entity.Person](c, "person"))}
		},
		Relation: func(_ emails.Context, p *entity.Person) entity.Relation {
			return entity.RelationOf(p)
		},
		ScheduledAt: immediately[*entity.Person],
		Recipients: func(c emails.Context, _ *entity.Person) []string {
			return personRecipients(c, "person")
		},
		RecipientsJSON: func(c emails.Context, _ *entity.Person) emails.ToHeaderModel {
			return personRecipientsJSON(c, "person")
		},
	}
}
