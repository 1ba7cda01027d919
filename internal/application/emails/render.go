package emails

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

func formatDate(v any, layout string) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(layout)
	}
	return ""
}

var funcMap = template.FuncMap{
	"now":        func() time.Time { return time.Now().UTC() },
	"formatTime": formatDate,
	"upper":      strings.ToUpper,
	"join":       strings.Join,
	"default":    defaultFn,
}

// Renderer turns EmailTemplate sources into subject and Markdown body, and
// the Markdown body into HTML for delivery.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

func (r *Renderer) Render(tpl *entity.EmailTemplate, c Context) (subject, body string, err error) {
	subject, err = r.RenderString(tpl.Signal+".subject", tpl.Subject, c)
	if err != nil {
		return "", "", err
	}
	body, err = r.RenderString(tpl.Signal+".body", tpl.Body, c)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(subject), body, nil
}

func (r *Renderer) RenderString(name, src string, data any) (string, error) {
	tpl, err := template.New(name).Funcs(funcMap).Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q: %v", ErrTemplateRender, name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: exec %q: %v", ErrTemplateRender, name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) MarkdownToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Validate parses subject and body without executing them.
func (r *Renderer) Validate(tpl *entity.EmailTemplate) error {
	for name, src := range map[string]string{"subject": tpl.Subject, "body": tpl.Body} {
		if _, err := template.New(name).Funcs(funcMap).Parse(src); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrTemplateRender, name, err)
		}
	}
	return nil
}
