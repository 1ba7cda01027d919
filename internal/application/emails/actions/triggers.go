package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// Results maps each evaluated signal to the strategy it produced.
type Results map[signal.Name]emails.Strategy

type eventRunner struct {
	name signal.Name
	run  func(context.Context, *emails.Request, *entity.Event) (emails.Strategy, error)
}

func (a *Actions) eventRunners() []eventRunner {
	return []eventRunner{
		{signal.InstructorTrainingApproaching, a.RunInstructorTrainingApproaching},
		{signal.HostInstructorsIntroduction, a.RunHostInstructorsIntroduction},
		{signal.RecruitHelpers, a.RunRecruitHelpers},
		{signal.PostWorkshop7Days, a.RunPostWorkshop7Days},
		{signal.AskForWebsite, a.RunAskForWebsite},
	}
}

// TriggerEvent runs every strategy whose subject is the event. Errors from
// one strategy do not stop the others.
func (a *Actions) TriggerEvent(ctx context.Context, req *emails.Request, e *entity.Event) (Results, error) {
	results := Results{}
	var errs []error
	for _, r := range a.eventRunners() {
		result, err := r.run(ctx, req, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
			continue
		}
		results[r.name] = result
	}
	if e.IsSelfOrganised() || e.Submission != nil {
		result, err := a.RunNewSelfOrganisedWorkshop(ctx, req, SelfOrganised{Event: e, Submission: e.Submission})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", signal.NewSelfOrganisedWorkshop, err))
		} else {
			results[signal.NewSelfOrganisedWorkshop] = result
		}
	}
	return results, errors.Join(errs...)
}

func (a *Actions) TriggerSignup(ctx context.Context, req *emails.Request, s *entity.InstructorRecruitmentSignup) (Results, error) {
	results := Results{}
	confirmed, err := a.RunInstructorConfirmedForWorkshop(ctx, req, s)
	if err != nil {
		return results, err
	}
	results[signal.InstructorConfirmedForWorkshop] = confirmed
	declined, err := a.RunInstructorDeclinedFromWorkshop(ctx, req, s)
	if err != nil {
		return results, err
	}
	results[signal.InstructorDeclinedFromWorkshop] = declined
	return results, nil
}

// TriggerTask runs the task strategy, then the event strategies, since
// tasks decide most event predicates.
func (a *Actions) TriggerTask(ctx context.Context, req *emails.Request, p TaskCreated) (Results, error) {
	result, err := a.RunInstructorTaskCreatedForWorkshop(ctx, req, p)
	if err != nil {
		return Results{}, err
	}
	results, err := a.TriggerEvent(ctx, req, p.Event)
	results[signal.InstructorTaskCreatedForWorkshop] = result
	return results, err
}

func (a *Actions) TriggerAward(ctx context.Context, req *emails.Request, p BadgeAwarded) (Results, error) {
	result, err := a.RunInstructorBadgeAwarded(ctx, req, p)
	if err != nil {
		return Results{}, err
	}
	return Results{signal.InstructorBadgeAwarded: result}, nil
}

func (a *Actions) TriggerMembership(ctx context.Context, req *emails.Request, m *entity.Membership) (Results, error) {
	results := Results{}
	var errs []error
	result, err := a.RunNewMembershipOnboarding(ctx, req, m)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", signal.NewMembershipOnboarding, err))
	} else {
		results[signal.NewMembershipOnboarding] = result
	}
	for _, name := range QuarterlySignals {
		result, err := a.RunMembershipQuarterly(ctx, req, name, m)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		results[name] = result
	}
	return results, errors.Join(errs...)
}

func (a *Actions) TriggerPerson(ctx context.Context, req *emails.Request, p *entity.Person) (Results, error) {
	result, err := a.RunInstructorTrainingCompletedNotBadged(ctx, req, NotBadged{Person: p})
	if err != nil {
		return Results{}, err
	}
	return Results{signal.InstructorTrainingCompletedNotBadged: result}, nil
}

// Backfill evaluates the event strategies for upcoming events carrying
// tag and acts only on CREATE results, so existing emails are left alone.
func (a *Actions) Backfill(ctx context.Context, req *emails.Request, tag string, from time.Time) (map[int64]Results, error) {
	ids, err := a.Repo.UpcomingEventIDs(ctx, from, tag, entity.InactiveTagNames)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	out := make(map[int64]Results, len(ids))
	log := a.Engine.Log()
	for _, id := range ids {
		e, err := a.Repo.GetEvent(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return out, fmt.Errorf("load event %d: %w", id, err)
		}
		results := Results{}
		for _, r := range a.backfillRunners() {
			result, err := r.strategy(ctx, e)
			if err != nil {
				log.WithError(err).WithField("event", e.Slug).Warnf("backfill %s failed", r.name)
				continue
			}
			results[r.name] = result
			if result != emails.StrategyCreate {
				continue
			}
			if err := r.send(ctx, req, e); err != nil {
				log.WithError(err).WithField("event", e.Slug).Warnf("backfill %s failed", r.name)
			}
		}
		out[id] = results
	}
	return out, nil
}

type backfillRunner struct {
	name     signal.Name
	strategy func(context.Context, *entity.Event) (emails.Strategy, error)
	send     func(context.Context, *emails.Request, *entity.Event) error
}

func (a *Actions) backfillRunners() []backfillRunner {
	return []backfillRunner{
		{signal.InstructorTrainingApproaching, a.InstructorTrainingApproachingStrategy, a.InstructorTrainingApproaching.Create.Send},
		{signal.HostInstructorsIntroduction, a.HostInstructorsIntroductionStrategy, a.HostInstructorsIntroduction.Create.Send},
		{signal.RecruitHelpers, a.RecruitHelpersStrategy, a.RecruitHelpers.Create.Send},
		{signal.PostWorkshop7Days, a.PostWorkshop7DaysStrategy, a.PostWorkshop7Days.Create.Send},
		{signal.AskForWebsite, a.AskForWebsiteStrategy, a.AskForWebsite.Create.Send},
	}
}
