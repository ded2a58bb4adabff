package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// MissingVariablesError lists variables that had no value
type MissingVariablesError struct {
	Names []string
}

func (e *MissingVariablesError) Error() string {
	return "missing variables: " + strings.Join(e.Names, ", ")
}

// ParseError reports malformed template text
type ParseError struct {
	Text   string
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid template at offset %d: %s", e.Offset, e.Reason)
}

type segment struct {
	text     string
	variable bool
}

// Template is a text prompt with {name} placeholders
type Template struct {
	segments []segment
	partials map[string]any
}

// NewTemplate parses text
func NewTemplate(text string) (*Template, error) {
	segments, err := parse(text)
	if err != nil {
		return nil, err
	}
	return &Template{segments: segments}, nil
}

// MustTemplate is NewTemplate that panics on malformed text
func MustTemplate(text string) *Template {
	t, err := NewTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

func parse(text string) ([]segment, error) {
	var (
		segments []segment
		literal  strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		switch ch := text[i]; ch {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				literal.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(text[i+1:], "{}")
			if end < 0 || text[i+1+end] != '}' {
				return nil, &ParseError{Text: text, Offset: i, Reason: "unclosed '{'"}
			}
			name := strings.TrimSpace(text[i+1 : i+1+end])
			if name == "" {
				return nil, &ParseError{Text: text, Offset: i, Reason: "empty variable name"}
			}
			flush()
			segments = append(segments, segment{text: name, variable: true})
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				literal.WriteByte('}')
				i++
				continue
			}
			return nil, &ParseError{Text: text, Offset: i, Reason: "single '}'"}
		default:
			literal.WriteByte(ch)
		}
	}
	flush()
	return segments, nil
}

// InputVariables returns the sorted variables still needed to format
func (t *Template) InputVariables() []string {
	return unique(t.variables(), t.partials)
}

func (t *Template) variables() []string {
	var names []string
	for _, s := range t.segments {
		if s.variable {
			names = append(names, s.text)
		}
	}
	return names
}

// Partial returns a copy with some variables bound. A value may be a
// func() string, evaluated each time the template is formatted.
func (t *Template) Partial(values map[string]any) *Template {
	return &Template{
		segments: t.segments,
		partials: mergeValues(t.partials, values),
	}
}

// Format renders the template. Extra values are ignored.
func (t *Template) Format(values map[string]any) (string, error) {
	all := mergeValues(t.partials, values)
	if missing := missingNames(t.variables(), all); len(missing) > 0 {
		return "", &MissingVariablesError{Names: missing}
	}

	var b strings.Builder
	for _, s := range t.segments {
		if !s.variable {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(stringify(all[s.text]))
	}
	return b.String(), nil
}

// Add concatenates other after t. other is a *Template or a string.
func (t *Template) Add(other any) (*Template, error) {
	var next *Template
	switch o := other.(type) {
	case *Template:
		next = o
	case string:
		parsed, err := NewTemplate(o)
		if err != nil {
			return nil, err
		}
		next = parsed
	default:
		return nil, fmt.Errorf("cannot add %T to a template", other)
	}

	segments := make([]segment, 0, len(t.segments)+len(next.segments))
	segments = append(segments, t.segments...)
	segments = append(segments, next.segments...)
	return &Template{
		segments: segments,
		partials: mergeValues(t.partials, next.partials),
	}, nil
}

// Invoke formats the template into a Value
func (t *Template) Invoke(values map[string]any) (Value, error) {
	text, err := t.Format(values)
	if err != nil {
		return nil, err
	}
	return StringValue(text), nil
}

func mergeValues(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func missingNames(names []string, values map[string]any) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, n := range names {
		if _, ok := values[n]; ok || seen[n] {
			continue
		}
		seen[n] = true
		missing = append(missing, n)
	}
	sort.Strings(missing)
	return missing
}

// unique returns names without duplicates or bound names, sorted
func unique(names []string, bound map[string]any) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, n := range names {
		if _, ok := bound[n]; ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case func() string:
		return x()
	case fmt.Stringer:
		return x.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
