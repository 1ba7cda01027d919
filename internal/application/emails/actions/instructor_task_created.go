package actions

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/signal"
)

// TaskCreated is sent when an instructor task is saved or removed. A
// removed task keeps its fields but has a zero ID; TaskID carries the old
// key.
type TaskCreated struct {
	Task   *entity.Task
	Event  *entity.Event
	TaskID int64
}

func (p TaskCreated) taskID() int64 {
	if p.TaskID != 0 {
		return p.TaskID
	}
	if p.Task != nil {
		return p.Task.ID
	}
	return 0
}

func (p TaskCreated) relation() entity.Relation {
	return entity.Relation{Kind: entity.RelationTask, ID: p.taskID()}
}

func (a *Actions) InstructorTaskCreatedForWorkshopStrategy(ctx context.Context, p TaskCreated) (emails.Strategy, error) {
	if p.Task == nil || p.Event == nil {
		return "", errors.New("task payload needs task and event")
	}
	taskSaved := p.Task.ID != 0
	instructorRole := p.Task.Role == entity.RoleInstructor
	personEmailExists := p.Task.Person != nil && p.Task.Person.Email != ""
	carpentries := p.Event.HasCarpentriesTag()
	centrallyOrganised := p.Event.IsCentrallyOrganised()
	startInFuture := p.Event.StartsOnOrAfter(a.today())

	return a.decide(ctx, signal.InstructorTaskCreatedForWorkshop, p.relation(), logrus.Fields{
		"task_id":             p.taskID(),
		"task_saved":          taskSaved,
		"instructor_role":     instructorRole,
		"person_email_exists": personEmailExists,
		"carpentries_tags":    carpentries,
		"centrally_organised": centrallyOrganised,
		"start_in_future":     startInFuture,
	}, taskSaved && instructorRole && personEmailExists && carpentries && centrallyOrganised && startInFuture)
}

func (a *Actions) RunInstructorTaskCreatedForWorkshop(ctx context.Context, req *emails.Request, p TaskCreated) (emails.Strategy, error) {
	return run(ctx, a.InstructorTaskCreatedForWorkshop, req, a.InstructorTaskCreatedForWorkshopStrategy, p)
}

func taskCreatedAction() *emails.Action[TaskCreated] {
	return &emails.Action[TaskCreated]{
		Signal: signal.InstructorTaskCreatedForWorkshop,
		Context: func(_ context.Context, p TaskCreated) (emails.Context, error) {
			if p.Task == nil || p.Task.Person == nil || p.Event == nil {
				return nil, errors.New("task payload needs task, person and event")
			}
			var task *entity.Task
			if p.Task.ID != 0 {
				task = p.Task
			}
			return emails.Context{
				"person":  p.Task.Person,
				"event":   p.Event,
				"task":    task,
				"task_id": p.taskID(),
			}, nil
		},
		ContextJSON: func(c emails.Context) emails.ContextModel {
			return emails.ContextModel{
				"person":  emails.ModelURL(get[*entity.Person](c, "person")),
				"event":   emails.ModelURL(get[*entity.Event](c, "event")),
				"task":    emails.OptionalModelURL(get[*entity.Task](c, "task")),
				"task_id": emails.IntValue(get[int64](c, "task_id")),
			}
		},
		Relation: func(_ emails.Context, p TaskCreated) entity.Relation {
			return p.relation()
		},
		ScheduledAt: immediately[TaskCreated],
		Recipients: func(c emails.Context, _ TaskCreated) []string {
			return personRecipients(c, "person")
		},
		RecipientsJSON: func(c emails.Context, _ TaskCreated) emails.ToHeaderModel {
			return personRecipientsJSON(c, "person")
		},
	}
}
