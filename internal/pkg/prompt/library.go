package prompt

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Kinds of library entries
const (
	KindText     = "text"
	KindChat     = "chat"
	KindPipeline = "pipeline"
)

// dynamicPartials are partial values resolved when the prompt is formatted
var dynamicPartials = map[string]func() string{
	"$now": func() string { return time.Now().Format(time.RFC3339) },
}

// LibraryEntry is a named prompt of a Library
type LibraryEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Kind        string   `json:"kind"`
	Variables   []string `json:"variables"`
	Prompt      Prompt   `json:"-"`
}

// Library is a named set of prompts
type Library struct {
	entries map[string]LibraryEntry
}

type libraryFile struct {
	Templates []templateSpec `yaml:"templates"`
}

type templateSpec struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Text        string            `yaml:"text"`
	Messages    []messageSpec     `yaml:"messages"`
	Pipeline    *pipelineSpec     `yaml:"pipeline"`
	Partials    map[string]string `yaml:"partials"`
}

type messageSpec struct {
	Role        string `yaml:"role"`
	Text        string `yaml:"text"`
	Placeholder string `yaml:"placeholder"`
	Optional    bool   `yaml:"optional"`
}

type pipelineSpec struct {
	Final string     `yaml:"final"`
	Steps []stepSpec `yaml:"steps"`
}

type stepSpec struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// LoadLibrary reads a YAML library file
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt library: %w", err)
	}
	return ParseLibrary(data)
}

// ParseLibrary parses a YAML library
func ParseLibrary(data []byte) (*Library, error) {
	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt library: %w", err)
	}

	lib := &Library{entries: make(map[string]LibraryEntry, len(file.Templates))}
	for _, spec := range file.Templates {
		if spec.Name == "" {
			return nil, errors.New("prompt library entry without name")
		}
		if _, dup := lib.entries[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate prompt %q", spec.Name)
		}

		entry, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", spec.Name, err)
		}
		lib.entries[spec.Name] = entry
	}
	return lib, nil
}

// NewLibrary builds a library from entries; used for prompts defined in code
func NewLibrary(entries ...LibraryEntry) *Library {
	lib := &Library{entries: make(map[string]LibraryEntry, len(entries))}
	for _, e := range entries {
		e.Variables = e.Prompt.InputVariables()
		lib.entries[e.Name] = e
	}
	return lib
}

// Get returns the entry called name
func (l *Library) Get(name string) (LibraryEntry, bool) {
	e, ok := l.entries[name]
	return e, ok
}

// Entries returns all entries sorted by name
func (l *Library) Entries() []LibraryEntry {
	out := make([]LibraryEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s templateSpec) build() (LibraryEntry, error) {
	set := 0
	for _, present := range []bool{s.Text != "", len(s.Messages) > 0, s.Pipeline != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return LibraryEntry{}, errors.New("exactly one of text, messages or pipeline is required")
	}

	partials := make(map[string]any, len(s.Partials))
	for k, v := range s.Partials {
		if fn, ok := dynamicPartials[v]; ok {
			partials[k] = fn
			continue
		}
		partials[k] = v
	}

	var (
		p    Prompt
		kind string
	)
	switch {
	case s.Text != "":
		tmpl, err := NewTemplate(s.Text)
		if err != nil {
			return LibraryEntry{}, err
		}
		p, kind = tmpl.Partial(partials), KindText
	case len(s.Messages) > 0:
		chat, err := buildChat(s.Messages)
		if err != nil {
			return LibraryEntry{}, err
		}
		p, kind = chat.Partial(partials), KindChat
	default:
		pipe, err := buildPipeline(*s.Pipeline, partials)
		if err != nil {
			return LibraryEntry{}, err
		}
		p, kind = pipe, KindPipeline
	}

	return LibraryEntry{
		Name:        s.Name,
		Description: s.Description,
		Kind:        kind,
		Variables:   p.InputVariables(),
		Prompt:      p,
	}, nil
}

func buildChat(specs []messageSpec) (*ChatTemplate, error) {
	entries := make([]Entry, 0, len(specs))
	for i, m := range specs {
		if m.Placeholder != "" {
			entries = append(entries, Entry{Placeholder: m.Placeholder, Optional: m.Optional})
			continue
		}
		role, err := ParseRole(m.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		tmpl, err := NewTemplate(m.Text)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		entries = append(entries, Entry{Role: role, Template: tmpl})
	}
	return NewChatTemplate(entries...)
}

func buildPipeline(spec pipelineSpec, partials map[string]any) (*Pipeline, error) {
	final, err := NewTemplate(spec.Final)
	if err != nil {
		return nil, fmt.Errorf("final: %w", err)
	}

	steps := make([]Step, 0, len(spec.Steps))
	for _, s := range spec.Steps {
		if s.Name == "" {
			return nil, errors.New("pipeline step without name")
		}
		tmpl, err := NewTemplate(s.Text)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name, err)
		}
		steps = append(steps, Step{Name: s.Name, Prompt: tmpl.Partial(partials)})
	}
	return &Pipeline{Final: final.Partial(partials), Steps: steps}, nil
}
