package handlers_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
	"github.com/oksasatya/amy-emails/internal/infrastructure/search"
	"github.com/oksasatya/amy-emails/pkg/response"
)

func fakePerson(id int64) *entity.Person {
	return &entity.Person{ID: id, Personal: gofakeit.FirstName(), Family: gofakeit.LastName(), Email: gofakeit.Email()}
}

type detail struct {
	Email       entity.ScheduledEmail      `json:"email"`
	Logs        []entity.ScheduledEmailLog `json:"logs"`
	Attachments []entity.Attachment        `json:"attachments"`
}

func TestScheduledEmailHandler_ListAndGet(t *testing.T) {
	f := newFixture(t)
	first := f.scheduleEmail(t, fakePerson(1), fixedNow.Add(time.Hour))
	second := f.scheduleEmail(t, fakePerson(2), fixedNow.Add(2*time.Hour))
	_, err := f.controller.CancelEmail(context.Background(), second, nil)
	require.NoError(t, err)

	w, env := f.do(t, http.MethodGet, "/api/emails/scheduled?state=scheduled", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode[[]entity.ScheduledEmail](t, env.Data)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, response.Page{Total: 1, Limit: 50, Offset: 0}, decode[response.Page](t, env.Meta))

	w, env = f.do(t, http.MethodGet, "/api/emails/scheduled?state=sent", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"state": "must be one of: scheduled, locked, running, succeeded, failed, cancelled"}`, string(env.Error))

	w, env = f.do(t, http.MethodGet, "/api/emails/scheduled/"+second.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[detail](t, env.Data)
	assert.Equal(t, entity.StateCancelled, d.Email.State)
	require.Len(t, d.Logs, 2)
	assert.Equal(t, "Email was cancelled", d.Logs[1].Details)
	assert.Empty(t, d.Attachments)

	w, _ = f.do(t, http.MethodGet, "/api/emails/scheduled/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = f.do(t, http.MethodGet, "/api/emails/scheduled/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduledEmailHandler_Edit(t *testing.T) {
	f := newFixture(t)
	email := f.scheduleEmail(t, fakePerson(1), fixedNow.Add(time.Hour))
	path := "/api/emails/scheduled/" + email.ID.String()

	w, env := f.do(t, http.MethodPut, path, map[string]any{
		"to_header":   []string{"not-an-email"},
		"from_header": "team@carpentries.org",
		"subject":     "Hi",
		"body":        "Body",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Error), "must be a valid email")

	w, env = f.do(t, http.MethodPut, path, map[string]any{
		"to_header":   []string{"harry@magic.uk"},
		"from_header": "team@carpentries.org",
		"cc_header":   []string{"ron@magic.uk"},
		"subject":     "Edited subject",
		"body":        "Edited body",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited := decode[entity.ScheduledEmail](t, env.Data)
	assert.Equal(t, "Edited subject", edited.Subject)
	assert.Equal(t, []string{"ron@magic.uk"}, edited.CCHeader)

	logs, err := f.emails.Logs(context.Background(), email.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Scheduled email was changed.", logs[1].Details)
	assert.Equal(t, adminID, *logs[1].AuthorID)
}

func TestScheduledEmailHandler_CancelAndReschedule(t *testing.T) {
	f := newFixture(t)
	email := f.scheduleEmail(t, fakePerson(1), fixedNow.Add(time.Hour))
	path := "/api/emails/scheduled/" + email.ID.String()

	w, _ := f.do(t, http.MethodPost, path+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env := f.do(t, http.MethodPost, path+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cancel failed", env.Message)

	w, _ = f.do(t, http.MethodPost, path+"/reschedule", map[string]any{"scheduled_at": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = f.do(t, http.MethodPost, path+"/reschedule", map[string]any{"scheduled_at": "2024-06-01T09:00:00Z"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rescheduled := decode[entity.ScheduledEmail](t, env.Data)
	assert.Equal(t, entity.StateScheduled, rescheduled.State)
	assert.True(t, rescheduled.ScheduledAt.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)))
}

func TestScheduledEmailHandler_AddAttachment(t *testing.T) {
	f := newFixture(t)
	email := f.scheduleEmail(t, fakePerson(1), fixedNow.Add(time.Hour))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "../agenda.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/emails/scheduled/"+email.ID.String()+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := f.serve(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	a := decode[entity.Attachment](t, env.Data)
	assert.Equal(t, "agenda.pdf", a.Filename)
	assert.Equal(t, "%PDF-1.4", f.storage.objects["attachments/"+email.ID.String()+"/agenda.pdf"])

	req = httptest.NewRequest(http.MethodPost, "/api/emails/scheduled/"+email.ID.String()+"/attachments", nil)
	w, _ = f.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduledEmailHandler_Search(t *testing.T) {
	f := newFixture(t)
	f.search.hits = []search.Hit{{ID: "abc", Subject: "Welcome", State: "scheduled"}}

	w, env := f.do(t, http.MethodGet, "/api/emails/scheduled/search?q=welcome", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "welcome", f.search.query)
	assert.Len(t, decode[[]search.Hit](t, env.Data), 1)

	w, _ = f.do(t, http.MethodGet, "/api/emails/scheduled/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
