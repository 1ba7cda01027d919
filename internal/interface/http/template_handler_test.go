package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

func templateBody(overrides map[string]any) map[string]any {
	body := map[string]any{
		"name":        "Welcome aboard",
		"signal":      "persons_merged",
		"from_header": "team@carpentries.org",
		"subject":     "Hello {{ .person.Personal }}",
		"body":        "Your profiles were merged.",
	}
	for k, v := range overrides {
		body[k] = v
	}
	return body
}

func TestTemplateHandler_CRUD(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/emails/templates", templateBody(nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entity.EmailTemplate](t, env.Data)
	assert.True(t, created.Active)
	path := "/api/emails/templates/" + created.ID.String()

	w, env = f.do(t, http.MethodPut, path, templateBody(map[string]any{"subject": "Merged", "active": false}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[entity.EmailTemplate](t, env.Data)
	assert.Equal(t, "Merged", updated.Subject)
	assert.False(t, updated.Active)

	w, env = f.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Merged", decode[entity.EmailTemplate](t, env.Data).Subject)

	w, _ = f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplateHandler_Validation(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodPost, "/api/emails/templates", templateBody(map[string]any{"signal": "birthday", "from_header": "nobody"}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid template", env.Message)
	assert.Contains(t, string(env.Error), "must be a known signal")
	assert.Contains(t, string(env.Error), "from_header")

	w, env = f.do(t, http.MethodPost, "/api/emails/templates", templateBody(map[string]any{"body": "{{ if .event }}unterminated"}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid template syntax", env.Message)

	w, _ = f.do(t, http.MethodPut, "/api/emails/templates/00000000-0000-0000-0000-000000000009", templateBody(nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplateHandler_List(t *testing.T) {
	f := newFixture(t)

	w, env := f.do(t, http.MethodGet, "/api/emails/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]entity.EmailTemplate](t, env.Data))
}
