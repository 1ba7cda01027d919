package emails

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

// Context is the typed mapping of named domain entities a template renders.
type Context map[string]any

// ContextModel is the serialisable form of a Context: each key maps to one
// URI or a list of URIs.
type ContextModel map[string]any

// ToHeaderItem binds one recipient either to an entity property
// (APIURI + Property) or to a literal value (ValueURI).
type ToHeaderItem struct {
	APIURI   string `json:"api_uri,omitempty"`
	Property string `json:"property,omitempty"`
	ValueURI string `json:"value_uri,omitempty"`
}

type ToHeaderModel []ToHeaderItem

func APIModelURL(model string, pk int64) string {
	return fmt.Sprintf("api:%s#%d", model, pk)
}

func ModelURL(m entity.Model) string {
	return APIModelURL(m.ModelName(), m.PrimaryKey())
}

// ModelURLs always returns a non-nil slice so empty lists encode as [].
func ModelURLs[M entity.Model](ms []M) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, ModelURL(m))
	}
	return out
}

// OptionalModelURL encodes m, or the none scalar when m is nil.
func OptionalModelURL[M entity.Model](m M) string {
	if reflect.ValueOf(m).IsNil() {
		return ScalarValueNone()
	}
	return ModelURL(m)
}

func ScalarValueURL(typ, value string) string {
	return fmt.Sprintf("value:%s#%s", typ, value)
}

func ScalarValueNone() string { return ScalarValueURL("none", "") }

func StrValue(s string) string { return ScalarValueURL("str", s) }
func IntValue(i int64) string  { return ScalarValueURL("int", strconv.FormatInt(i, 10)) }
func BoolValue(b bool) string  { return ScalarValueURL("bool", strconv.FormatBool(b)) }
func DateValue(t time.Time) string {
	return ScalarValueURL("date", t.Format(time.DateOnly))
}

// PersonEmail binds a recipient to a person's email property.
func PersonEmail(p *entity.Person) ToHeaderItem {
	return ToHeaderItem{APIURI: ModelURL(p), Property: "email"}
}

func PersonEmails(persons []*entity.Person) ToHeaderModel {
	out := make(ToHeaderModel, 0, len(persons))
	for _, p := range persons {
		out = append(out, PersonEmail(p))
	}
	return out
}

func ValueRecipient(email string) ToHeaderItem {
	return ToHeaderItem{ValueURI: StrValue(email)}
}

// ObjectResolver loads an entity named by an api URI.
type ObjectResolver interface {
	Resolve(ctx context.Context, model string, pk int64) (entity.Model, error)
}

// ParseScalar converts a typed scalar value back into a Go value.
func ParseScalar(typ, value string) (any, error) {
	switch typ {
	case "str":
		return value, nil
	case "int":
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", value, err)
		}
		return i, nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", value, err)
		}
		return f, nil
	case "bool":
		return strings.ToLower(value) == "true", nil
	case "date":
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, value); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("failed to parse %q as date", value)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported scalar type %q", typ)
	}
}

// ResolveURI maps one api or value URI to an entity or scalar.
func ResolveURI(ctx context.Context, r ObjectResolver, uri string) (any, error) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok {
		return nil, fmt.Errorf("unsupported URI %q", uri)
	}
	path, fragment, ok := strings.Cut(rest, "#")
	if !ok {
		return nil, fmt.Errorf("unsupported URI %q", uri)
	}
	switch scheme {
	case "value":
		return ParseScalar(path, fragment)
	case "api":
		pk, err := strconv.ParseInt(fragment, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid pk in URI %q: %w", uri, err)
		}
		obj, err := r.Resolve(ctx, path, pk)
		if err != nil {
			return nil, fmt.Errorf("model %q with pk %d not found: %w", path, pk, err)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported URI %q", uri)
	}
}

// BuildContext rebuilds a render Context from its serialised model.
func BuildContext(ctx context.Context, r ObjectResolver, m ContextModel) (Context, error) {
	out := make(Context, len(m))
	for key, raw := range m {
		switch v := raw.(type) {
		case string:
			obj, err := ResolveURI(ctx, r, v)
			if err != nil {
				return nil, fmt.Errorf("context key %q: %w", key, err)
			}
			out[key] = obj
		case []string:
			items, err := resolveList(ctx, r, v)
			if err != nil {
				return nil, fmt.Errorf("context key %q: %w", key, err)
			}
			out[key] = items
		case []any:
			uris := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("context key %q: non-string URI %v", key, item)
				}
				uris = append(uris, s)
			}
			items, err := resolveList(ctx, r, uris)
			if err != nil {
				return nil, fmt.Errorf("context key %q: %w", key, err)
			}
			out[key] = items
		default:
			return nil, fmt.Errorf("context key %q: unsupported value %T", key, raw)
		}
	}
	return out, nil
}

func resolveList(ctx context.Context, r ObjectResolver, uris []string) ([]any, error) {
	out := make([]any, 0, len(uris))
	for _, u := range uris {
		obj, err := ResolveURI(ctx, r, u)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// BuildRecipients resolves a ToHeaderModel back into addresses. Empty
// addresses are dropped.
func BuildRecipients(ctx context.Context, r ObjectResolver, m ToHeaderModel) ([]string, error) {
	out := make([]string, 0, len(m))
	for _, item := range m {
		var (
			value any
			err   error
		)
		if item.APIURI != "" {
			var obj any
			obj, err = ResolveURI(ctx, r, item.APIURI)
			if err != nil {
				return nil, err
			}
			value = property(obj, item.Property)
		} else {
			value, err = ResolveURI(ctx, r, item.ValueURI)
			if err != nil {
				return nil, err
			}
		}
		if s, ok := value.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// property reads the struct field whose json tag is name.
func property(obj any, name string) any {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		tag := strings.SplitN(rt.Field(i).Tag.Get("json"), ",", 2)[0]
		if tag == name {
			return rv.Field(i).Interface()
		}
	}
	return nil
}

func (m ContextModel) Raw() (json.RawMessage, error) {
	return json.Marshal(map[string]any(m))
}

func (m ToHeaderModel) Raw() (json.RawMessage, error) {
	if m == nil {
		m = ToHeaderModel{}
	}
	return json.Marshal([]ToHeaderItem(m))
}

func DecodeContextModel(raw json.RawMessage) (ContextModel, error) {
	var m ContextModel
	if len(raw) == 0 {
		return ContextModel{}, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func DecodeToHeaderModel(raw json.RawMessage) (ToHeaderModel, error) {
	var m ToHeaderModel
	if len(raw) == 0 {
		return ToHeaderModel{}, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
