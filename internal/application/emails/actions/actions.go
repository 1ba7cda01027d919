// Package actions holds one strategy and one Action description per
// business event, and the registry that wires them onto typed signals.
package actions

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// Attacher stores a file alongside a scheduled email.
type Attacher interface {
	AddAttachment(ctx context.Context, email *entity.ScheduledEmail, filename, contentType string, content io.Reader) (*entity.Attachment, error)
}

// Actions owns every signal trio and the receivers connected to them.
type Actions struct {
	Engine      *emails.Engine
	Repo        repository.DomainRepository
	Attachments Attacher

	PersonsMerged                     *emails.Trio[*entity.Person]
	InstructorBadgeAwarded            *emails.Trio[BadgeAwarded]
	InstructorConfirmedForWorkshop    *emails.Trio[*entity.InstructorRecruitmentSignup]
	InstructorDeclinedFromWorkshop    *emails.Trio[*entity.InstructorRecruitmentSignup]
	InstructorSignsUpForWorkshop      *emails.Trio[*entity.InstructorRecruitmentSignup]
	AdminSignsInstructorUpForWorkshop *emails.Trio[*entity.InstructorRecruitmentSignup]
	InstructorTaskCreatedForWorkshop  *emails.Trio[TaskCreated]
	InstructorTrainingApproaching     *emails.Trio[*entity.Event]
	InstructorTrainingNotBadged       *emails.Trio[NotBadged]
	NewMembershipOnboarding           *emails.Trio[*entity.Membership]
	HostInstructorsIntroduction       *emails.Trio[*entity.Event]
	RecruitHelpers                    *emails.Trio[*entity.Event]
	PostWorkshop7Days                 *emails.Trio[*entity.Event]
	NewSelfOrganisedWorkshop          *emails.Trio[SelfOrganised]
	AskForWebsite                     *emails.Trio[*entity.Event]
	MembershipQuarterly               map[signal.Name]*emails.Trio[*entity.Membership]
}

// New builds every trio and connects the generic receivers.
func New(engine *emails.Engine, repo repository.DomainRepository, attachments Attacher) *Actions {
	a := &Actions{
		Engine:      engine,
		Repo:        repo,
		Attachments: attachments,

		PersonsMerged:                     emails.NewCreateOnly[*entity.Person](signal.PersonsMerged),
		InstructorBadgeAwarded:            emails.NewTrio[BadgeAwarded](signal.InstructorBadgeAwarded),
		InstructorConfirmedForWorkshop:    emails.NewTrio[*entity.InstructorRecruitmentSignup](signal.InstructorConfirmedForWorkshop),
		InstructorDeclinedFromWorkshop:    emails.NewTrio[*entity.InstructorRecruitmentSignup](signal.InstructorDeclinedFromWorkshop),
		InstructorSignsUpForWorkshop:      emails.NewCreateOnly[*entity.InstructorRecruitmentSignup](signal.InstructorSignsUpForWorkshop),
		AdminSignsInstructorUpForWorkshop: emails.NewCreateOnly[*entity.InstructorRecruitmentSignup](signal.AdminSignsInstructorUpForWorkshop),
		InstructorTaskCreatedForWorkshop:  emails.NewTrio[TaskCreated](signal.InstructorTaskCreatedForWorkshop),
		InstructorTrainingApproaching:     emails.NewTrio[*entity.Event](signal.InstructorTrainingApproaching),
		InstructorTrainingNotBadged:       emails.NewTrio[NotBadged](signal.InstructorTrainingCompletedNotBadged),
		NewMembershipOnboarding:           emails.NewTrio[*entity.Membership](signal.NewMembershipOnboarding),
		HostInstructorsIntroduction:       emails.NewTrio[*entity.Event](signal.HostInstructorsIntroduction),
		RecruitHelpers:                    emails.NewTrio[*entity.Event](signal.RecruitHelpers),
		PostWorkshop7Days:                 emails.NewTrio[*entity.Event](signal.PostWorkshop7Days),
		NewSelfOrganisedWorkshop:          emails.NewTrio[SelfOrganised](signal.NewSelfOrganisedWorkshop),
		AskForWebsite:                     emails.NewTrio[*entity.Event](signal.AskForWebsite),
		MembershipQuarterly:               make(map[signal.Name]*emails.Trio[*entity.Membership], len(QuarterlySignals)),
	}

	emails.Connect(engine, a.PersonsMerged, personsMergedAction())
	emails.Connect(engine, a.InstructorBadgeAwarded, a.badgeAwardedAction())
	emails.Connect(engine, a.InstructorConfirmedForWorkshop, signupAction(signal.InstructorConfirmedForWorkshop))
	emails.Connect(engine, a.InstructorDeclinedFromWorkshop, signupAction(signal.InstructorDeclinedFromWorkshop))
	emails.Connect(engine, a.InstructorSignsUpForWorkshop, signupAction(signal.InstructorSignsUpForWorkshop))
	emails.Connect(engine, a.AdminSignsInstructorUpForWorkshop, signupAction(signal.AdminSignsInstructorUpForWorkshop))
	emails.Connect(engine, a.InstructorTaskCreatedForWorkshop, taskCreatedAction())
	emails.Connect(engine, a.InstructorTrainingApproaching, trainingApproachingAction())
	emails.Connect(engine, a.InstructorTrainingNotBadged, a.notBadgedAction())
	emails.Connect(engine, a.NewMembershipOnboarding, onboardingAction())
	emails.Connect(engine, a.HostInstructorsIntroduction, hostIntroductionAction())
	emails.Connect(engine, a.RecruitHelpers, recruitHelpersAction())
	emails.Connect(engine, a.PostWorkshop7Days, postWorkshopAction())
	emails.Connect(engine, a.NewSelfOrganisedWorkshop, a.selfOrganisedAction())
	emails.Connect(engine, a.AskForWebsite, askForWebsiteAction())
	for _, name := range QuarterlySignals {
		trio := emails.NewTrio[*entity.Membership](name)
		emails.Connect(engine, trio, quarterlyAction(name))
		a.MembershipQuarterly[name] = trio
	}
	return a
}

// oneOff signals are sent at most once per relation. A CREATE for one whose
// email was already delivered becomes NOOP.
var oneOff = map[signal.Name]bool{
	signal.AskForWebsite:                 true,
	signal.HostInstructorsIntroduction:   true,
	signal.InstructorTrainingApproaching: true,
	signal.PostWorkshop7Days:             true,
	signal.MembershipQuarterly3Months:    true,
	signal.MembershipQuarterly6Months:    true,
	signal.MembershipQuarterly9Months:    true,
}

func (a *Actions) today() time.Time { return emails.Today(a.Engine.Now()) }

// decide looks up a SCHEDULED email for rel and applies the decision
// table. A zero relation means the subject is not saved yet: NOOP.
// oneOff signals that were already delivered never CREATE again.
func (a *Actions) decide(ctx context.Context, name signal.Name, rel entity.Relation, conditions logrus.Fields, shouldExist bool) (emails.Strategy, error) {
	if conditions == nil {
		conditions = logrus.Fields{}
	}
	if rel.IsZero() {
		conditions["saved"] = false
		emails.LogConditions(a.Engine.Log(), name, conditions, emails.StrategyNoop)
		return emails.StrategyNoop, nil
	}
	exists, err := a.Engine.EmailExists(ctx, name, rel)
	if err != nil {
		return "", fmt.Errorf("%s strategy: %w", name, err)
	}
	conditions["email_should_exist"] = shouldExist
	conditions["email_exists"] = exists
	result := emails.Decide(exists, shouldExist)
	if result == emails.StrategyCreate && oneOff[name] {
		delivered, err := a.Engine.EmailDelivered(ctx, name, rel)
		if err != nil {
			return "", fmt.Errorf("%s strategy: %w", name, err)
		}
		conditions["email_delivered"] = delivered
		if delivered {
			result = emails.StrategyNoop
		}
	}
	emails.LogConditions(a.Engine.Log(), name, conditions, result)
	return result, nil
}

type strategyFunc[P any] func(ctx context.Context, p P) (emails.Strategy, error)

// run evaluates strategy for p and dispatches the matching signal.
func run[P any](ctx context.Context, trio *emails.Trio[P], req *emails.Request, strategy strategyFunc[P], p P) (emails.Strategy, error) {
	result, err := strategy(ctx, p)
	if err != nil {
		return "", err
	}
	return result, emails.RunStrategy(ctx, result, trio, req, p)
}

// get reads a typed value from a render context; missing keys and nil
// values yield the zero value.
func get[T any](c emails.Context, key string) T {
	v, _ := c[key].(T)
	return v
}

func personRecipients(c emails.Context, key string) []string {
	return entity.Emails([]*entity.Person{get[*entity.Person](c, key)})
}

func personRecipientsJSON(c emails.Context, key string) emails.ToHeaderModel {
	p := get[*entity.Person](c, key)
	if p == nil {
		return emails.ToHeaderModel{}
	}
	return emails.ToHeaderModel{emails.PersonEmail(p)}
}

func immediately[P any](_ P, now time.Time) time.Time { return emails.ImmediateAction(now) }

// withEmail keeps persons with an address, in order.
func withEmail(persons []*entity.Person) []*entity.Person {
	out := make([]*entity.Person, 0, len(persons))
	for _, p := range persons {
		if p != nil && p.Email != "" {
			out = append(out, p)
		}
	}
	return out
}
