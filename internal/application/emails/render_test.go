package emails_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

func TestRenderer_Render(t *testing.T) {
	r := emails.NewRenderer()
	tpl := &entity.EmailTemplate{
		Signal:  "persons_merged",
		Subject: "  Hi {{ .person.Personal }}  ",
		Body:    "Welcome {{ .person.FullName }} to {{ .workshop | default \"our workshop\" }}",
	}

	subject, body, err := r.Render(tpl, emails.Context{"person": person(1, "harry@magic.uk")})
	require.NoError(t, err)
	assert.Equal(t, "Hi Harry", subject)
	assert.Equal(t, "Welcome Harry Potter to our workshop", body)
}

func TestRenderer_RenderErrors(t *testing.T) {
	r := emails.NewRenderer()
	_, _, err := r.Render(&entity.EmailTemplate{Signal: "x", Subject: "{{ .broken", Body: "ok"}, emails.Context{})
	assert.ErrorIs(t, err, emails.ErrTemplateRender)

	err = r.Validate(&entity.EmailTemplate{Subject: "ok", Body: "{{ end }}"})
	assert.ErrorIs(t, err, emails.ErrTemplateRender)
	assert.NoError(t, r.Validate(&entity.EmailTemplate{Subject: "ok", Body: "{{ .person }}"}))
}

func TestRenderer_MarkdownToHTML(t *testing.T) {
	html, err := emails.NewRenderer().MarkdownToHTML("# Hello\n\nSee **you** soon")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, "<strong>you</strong>")
}
