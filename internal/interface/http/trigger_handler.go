package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/application/emails/actions"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
	"github.com/oksasatya/amy-emails/pkg/response"
)

// TriggerHandler runs the email strategies for an AMY object that was
// saved or deleted upstream.
type TriggerHandler struct {
	Actions *actions.Actions
	Repo    repository.DomainRepository
	Logger  *logrus.Logger
}

func NewTriggerHandler(a *actions.Actions, repo repository.DomainRepository, logger *logrus.Logger) *TriggerHandler {
	return &TriggerHandler{Actions: a, Repo: repo, Logger: logger}
}

type triggerResponse struct {
	Results  actions.Results  `json:"results"`
	Messages []emails.Message `json:"messages"`
}

type trigger func(ctx context.Context, c *gin.Context, req *emails.Request, id int64) (actions.Results, error)

func (h *TriggerHandler) request(c *gin.Context) *emails.Request {
	var author *entity.Person
	if s := middleware.SessionFrom(c); s != nil {
		p, err := h.Repo.GetPerson(c.Request.Context(), s.PersonID)
		if err != nil {
			p = &entity.Person{ID: s.PersonID, Email: s.Email}
		}
		author = p
	}
	req := emails.NewRequest(author, h.Logger.WithField("request_id", c.GetString("request_id")))
	req.DryRun, _ = strconv.ParseBool(c.Query("dry_run"))
	return req
}

// Trigger POST /api/emails/triggers/:kind/:id
func (h *TriggerHandler) Trigger(c *gin.Context) {
	triggers := map[string]trigger{
		"event":      h.event,
		"signup":     h.signup,
		"membership": h.membership,
		"person":     h.person,
		"task":       h.task,
		"award":      h.award,
	}
	run, ok := triggers[c.Param("kind")]
	if !ok {
		response.Error[any](c, http.StatusNotFound, "unknown trigger", c.Param("kind"))
		return
	}
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	req := h.request(c)
	results, err := run(c.Request.Context(), c, req, id)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error[any](c, http.StatusNotFound, c.Param("kind")+" not found", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("trigger", c.Param("kind")).Error("strategies failed")
		response.Error[any](c, http.StatusInternalServerError, "strategies failed", triggerResponse{Results: results, Messages: req.Messages.All()})
		return
	}
	response.Success(c, http.StatusOK, triggerResponse{Results: results, Messages: req.Messages.All()}, "strategies run", map[string]any{"dry_run": req.DryRun})
}

func (h *TriggerHandler) event(ctx context.Context, _ *gin.Context, req *emails.Request, id int64) (actions.Results, error) {
	e, err := h.Repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.Actions.TriggerEvent(ctx, req, e)
}

func (h *TriggerHandler) signup(ctx context.Context, _ *gin.Context, req *emails.Request, id int64) (actions.Results, error) {
	s, err := h.Repo.GetSignup(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.Actions.TriggerSignup(ctx, req, s)
}

func (h *TriggerHandler) membership(ctx context.Context, _ *gin.Context, req *emails.Request, id int64) (actions.Results, error) {
	m, err := h.Repo.GetMembership(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.Actions.TriggerMembership(ctx, req, m)
}

func (h *TriggerHandler) person(ctx context.Context, _ *gin.Context, req *emails.Request, id int64) (actions.Results, error) {
	p, err := h.Repo.GetPerson(ctx, id)
	if err != nil {
		return nil, err
	}
	return h.Actions.TriggerPerson(ctx, req, p)
}

// task handles both a saved task and one deleted upstream; the latter
// needs ?event_id= since the task row is gone.
func (h *TriggerHandler) task(ctx context.Context, c *gin.Context, req *emails.Request, id int64) (actions.Results, error) {
	t, err := h.Repo.GetTask(ctx, id)
	switch {
	case err == nil:
		e, err := h.Repo.GetEvent(ctx, t.EventID)
		if err != nil {
			return nil, err
		}
		return h.Actions.TriggerTask(ctx, req, actions.TaskCreated{Task: t, Event: e})
	case errors.Is(err, repository.ErrNotFound):
		eventID, perr := strconv.ParseInt(c.Query("event_id"), 10, 64)
		if perr != nil {
			return nil, err
		}
		e, err := h.Repo.GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		removed := &entity.Task{EventID: eventID}
		return h.Actions.TriggerTask(ctx, req, actions.TaskCreated{Task: removed, Event: e, TaskID: id})
	default:
		return nil, err
	}
}

// award mirrors task: a deleted award needs ?person_id=.
func (h *TriggerHandler) award(ctx context.Context, c *gin.Context, req *emails.Request, id int64) (actions.Results, error) {
	a, err := h.Repo.GetAward(ctx, id)
	switch {
	case err == nil:
		p := a.Person
		if p == nil {
			if p, err = h.Repo.GetPerson(ctx, a.PersonID); err != nil {
				return nil, err
			}
		}
		return h.Actions.TriggerAward(ctx, req, actions.BadgeAwarded{Award: a, Person: p})
	case errors.Is(err, repository.ErrNotFound):
		personID, perr := strconv.ParseInt(c.Query("person_id"), 10, 64)
		if perr != nil {
			return nil, err
		}
		p, err := h.Repo.GetPerson(ctx, personID)
		if err != nil {
			return nil, err
		}
		return h.Actions.TriggerAward(ctx, req, actions.BadgeAwarded{Person: p, AwardID: id})
	default:
		return nil, err
	}
}

// PersonsMerged POST /api/emails/actions/persons-merged/:id
func (h *TriggerHandler) PersonsMerged(c *gin.Context) {
	h.send(c, func(ctx context.Context, req *emails.Request, id int64) error {
		p, err := h.Repo.GetPerson(ctx, id)
		if err != nil {
			return err
		}
		return h.Actions.SendPersonsMerged(ctx, req, p)
	})
}

// InstructorSignsUp POST /api/emails/actions/instructor-signs-up/:id
func (h *TriggerHandler) InstructorSignsUp(c *gin.Context) {
	h.send(c, func(ctx context.Context, req *emails.Request, id int64) error {
		s, err := h.Repo.GetSignup(ctx, id)
		if err != nil {
			return err
		}
		return h.Actions.SendInstructorSignsUpForWorkshop(ctx, req, s)
	})
}

// AdminSignsInstructorUp POST /api/emails/actions/admin-signs-instructor-up/:id
func (h *TriggerHandler) AdminSignsInstructorUp(c *gin.Context) {
	h.send(c, func(ctx context.Context, req *emails.Request, id int64) error {
		s, err := h.Repo.GetSignup(ctx, id)
		if err != nil {
			return err
		}
		return h.Actions.SendAdminSignsInstructorUpForWorkshop(ctx, req, s)
	})
}

func (h *TriggerHandler) send(c *gin.Context, fn func(context.Context, *emails.Request, int64) error) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	req := h.request(c)
	if err := fn(c.Request.Context(), req, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error[any](c, http.StatusNotFound, "object not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("path", c.FullPath()).Error("send email failed")
		fail(c, "could not schedule email", err)
		return
	}
	response.Success(c, http.StatusAccepted, triggerResponse{Results: actions.Results{}, Messages: req.Messages.All()}, "email scheduled", nil)
}
