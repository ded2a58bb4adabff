package prompt

import (
	"fmt"
)

// Entry is one line of a chat template: a role message or a placeholder
type Entry struct {
	Role     Role
	Template *Template
	// Placeholder names a variable holding a message list
	Placeholder string
	// Optional placeholders may be absent
	Optional bool
}

// System is a system message entry
func System(text string) Entry {
	return Entry{Role: RoleSystem, Template: MustTemplate(text)}
}

// Human is a human message entry
func Human(text string) Entry {
	return Entry{Role: RoleHuman, Template: MustTemplate(text)}
}

// AI is an ai message entry
func AI(text string) Entry {
	return Entry{Role: RoleAI, Template: MustTemplate(text)}
}

// Placeholder splices the messages held by variable name
func Placeholder(name string) Entry {
	return Entry{Placeholder: name}
}

// OptionalPlaceholder is a Placeholder that formats to nothing when unset
func OptionalPlaceholder(name string) Entry {
	return Entry{Placeholder: name, Optional: true}
}

// ChatTemplate is an ordered list of message templates
type ChatTemplate struct {
	entries  []Entry
	partials map[string]any
}

// NewChatTemplate builds a chat template from entries
func NewChatTemplate(entries ...Entry) (*ChatTemplate, error) {
	for i, e := range entries {
		if e.Placeholder == "" && e.Template == nil {
			return nil, fmt.Errorf("entry %d has neither template nor placeholder", i)
		}
	}
	return &ChatTemplate{entries: entries}, nil
}

// InputVariables returns the sorted variables still needed to format
func (t *ChatTemplate) InputVariables() []string {
	var names []string
	for _, e := range t.entries {
		switch {
		case e.Placeholder != "":
			if !e.Optional {
				names = append(names, e.Placeholder)
			}
		default:
			names = append(names, e.Template.variables()...)
		}
	}
	return unique(names, t.partials)
}

// Partial returns a copy with some variables bound
func (t *ChatTemplate) Partial(values map[string]any) *ChatTemplate {
	return &ChatTemplate{
		entries:  t.entries,
		partials: mergeValues(t.partials, values),
	}
}

// Add appends other: a *ChatTemplate, an Entry, a Message, or a string
// taken as a human message template
func (t *ChatTemplate) Add(other any) (*ChatTemplate, error) {
	entries := make([]Entry, len(t.entries), len(t.entries)+1)
	copy(entries, t.entries)
	partials := t.partials

	switch o := other.(type) {
	case *ChatTemplate:
		entries = append(entries, o.entries...)
		partials = mergeValues(partials, o.partials)
	case Entry:
		entries = append(entries, o)
	case Message:
		entries = append(entries, Entry{Role: o.Role, Template: literal(o.Content)})
	case string:
		tmpl, err := NewTemplate(o)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Role: RoleHuman, Template: tmpl})
	default:
		return nil, fmt.Errorf("cannot add %T to a chat template", other)
	}

	return &ChatTemplate{entries: entries, partials: partials}, nil
}

// FormatMessages renders every entry
func (t *ChatTemplate) FormatMessages(values map[string]any) ([]Message, error) {
	all := mergeValues(t.partials, values)
	if missing := missingNames(t.InputVariables(), all); len(missing) > 0 {
		return nil, &MissingVariablesError{Names: missing}
	}

	var out []Message
	for _, e := range t.entries {
		if e.Placeholder != "" {
			v, ok := all[e.Placeholder]
			if !ok {
				continue
			}
			msgs, err := toMessages(v)
			if err != nil {
				return nil, fmt.Errorf("placeholder %s: %w", e.Placeholder, err)
			}
			out = append(out, msgs...)
			continue
		}

		content, err := e.Template.Format(all)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{Role: e.Role, Content: content})
	}
	return out, nil
}

// Invoke formats the template into a ChatValue
func (t *ChatTemplate) Invoke(values map[string]any) (Value, error) {
	msgs, err := t.FormatMessages(values)
	if err != nil {
		return nil, err
	}
	return ChatValue(msgs), nil
}

// literal wraps text that must not be parsed for placeholders
func literal(text string) *Template {
	return &Template{segments: []segment{{text: text}}}
}

// toMessages accepts the shapes a placeholder value can take, including the
// []any of maps produced by decoding JSON
func toMessages(v any) ([]Message, error) {
	switch x := v.(type) {
	case []Message:
		return x, nil
	case Message:
		return []Message{x}, nil
	case ChatValue:
		return []Message(x), nil
	case nil:
		return nil, nil
	case []any:
		out := make([]Message, 0, len(x))
		for i, item := range x {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is %T, want an object", i, item)
			}
			roleName, _ := m["role"].(string)
			role, err := ParseRole(roleName)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			content, _ := m["content"].(string)
			out = append(out, Message{Role: role, Content: content})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported message list %T", v)
	}
}
