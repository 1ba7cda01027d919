package actions

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

var errSignupEvent = errors.New("signup has no event loaded")

func (a *Actions) signupStrategy(ctx context.Context, name signal.Name, state string, s *entity.InstructorRecruitmentSignup) (emails.Strategy, error) {
	if s.Event == nil {
		return "", errSignupEvent
	}
	event := s.Event
	stateMatches := s.State == state
	personEmailExists := s.Person != nil && s.Person.Email != ""
	carpentries := event.HasCarpentriesTag()
	centrallyOrganised := event.IsCentrallyOrganised()
	startInFuture := event.StartsOnOrAfter(a.today())

	return a.decide(ctx, name, entity.RelationOf(s), logrus.Fields{
		"signup_state":        s.State,
		"state_matches":       stateMatches,
		"person_email_exists": personEmailExists,
		"carpentries_tags":    carpentries,
		"centrally_organised": centrallyOrganised,
		"start_in_future":     startInFuture,
	}, stateMatches && personEmailExists && carpentries && centrallyOrganised && startInFuture)
}

func (a *Actions) InstructorConfirmedForWorkshopStrategy(ctx context.Context, s *entity.InstructorRecruitmentSignup) (emails.Strategy, error) {
	return a.signupStrategy(ctx, signal.InstructorConfirmedForWorkshop, entity.SignupAccepted, s)
}

func (a *Actions) InstructorDeclinedFromWorkshopStrategy(ctx context.Context, s *entity.InstructorRecruitmentSignup) (emails.Strategy, error) {
	return a.signupStrategy(ctx, signal.InstructorDeclinedFromWorkshop, entity.SignupDeclined, s)
}

func (a *Actions) RunInstructorConfirmedForWorkshop(ctx context.Context, req *emails.Request, s *entity.InstructorRecruitmentSignup) (emails.Strategy, error) {
	return run(ctx, a.InstructorConfirmedForWorkshop, req, a.InstructorConfirmedForWorkshopStrategy, s)
}

func (a *Actions) RunInstructorDeclinedFromWorkshop(ctx context.Context, req *emails.Request, s *entity.InstructorRecruitmentSignup) (emails.Strategy, error) {
	return run(ctx, a.InstructorDeclinedFromWorkshop, req, a.InstructorDeclinedFromWorkshopStrategy, s)
}

// SendInstructorSignsUpForWorkshop schedules the sign-up acknowledgement.
// It has no strategy: every sign-up gets one email.
func (a *Actions) SendInstructorSignsUpForWorkshop(ctx context.Context, req *emails.Request, s *entity.InstructorRecruitmentSignup) error {
	return a.InstructorSignsUpForWorkshop.Create.Send(ctx, req, s)
}

func (a *Actions) SendAdminSignsInstructorUpForWorkshop(ctx context.Context, req *emails.Request, s *entity.InstructorRecruitmentSignup) error {
	return a.AdminSignsInstructorUpForWorkshop.Create.Send(ctx, req, s)
}

// signupAction serves every signal whose subject is a recruitment signup.
func signupAction(name signal.Name) *emails.Action[*entity.InstructorRecruitmentSignup] {
	type signup = *entity.InstructorRecruitmentSignup
	return &emails.Action[signup]{
		Signal: name,
		Context: func(_ context.Context, s signup) (emails.Context, error) {
			if s.Event == nil || s.Person == nil {
				return nil, errSignupEvent
			}
			return emails.Context{
				"person":                        s.Person,
				"event":                         s.Event,
				"instructor_recruitment_signup": s,
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"person":                        emails.ModelURL(get[*entity.Person](c, "person")),
				"event":                         emails.ModelURL(get[*entity.Event](c, "event")),
				"instructor_recruitment_signup": emails.ModelURL(get[signup](c, "instructor_recruitment_signup")),
			}
		},
		Relation: func(_ emails.Context, s signup) entity.Relation {
			return entity.RelationOf(s)
		},
		ScheduledAt: immediately[signup],
		Recipients: func(c emails.Context, _ signup) []string {
			return personRecipients(c, "person")
		},
		RecipientsJSON: func(c emails.Context, _ signup) emails.ToHeaderModel {
			return personRecipientsJSON(c, "person")
		},
	}
}
