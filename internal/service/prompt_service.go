package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
	"github.com/490273789/llmops-api/internal/pkg/prompt"
)

// PromptLibrary is the read side of a prompt library
type PromptLibrary interface {
	Get(name string) (prompt.LibraryEntry, bool)
	Entries() []prompt.LibraryEntry
}

// MessageInput is an inline chat message template
type MessageInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompileInput selects the prompt to compile: a library name, an inline text
// template or inline chat messages. Exactly one must be set.
type CompileInput struct {
	Name      string
	Template  string
	Messages  []MessageInput
	Variables map[string]any
}

// CompiledPrompt is a formatted prompt
type CompiledPrompt struct {
	Name      string           `json:"name,omitempty"`
	Kind      string           `json:"kind"`
	Text      string           `json:"text"`
	Messages  []prompt.Message `json:"messages"`
	Variables []string         `json:"variables"`
}

// PromptService compiles prompt templates
type PromptService struct {
	library PromptLibrary
}

// NewPromptService creates a new prompt service
func NewPromptService(library PromptLibrary) *PromptService {
	return &PromptService{library: library}
}

// List returns the library entries sorted by name
func (s *PromptService) List(ctx context.Context) []prompt.LibraryEntry {
	return s.library.Entries()
}

// Compile formats the selected prompt with input.Variables
func (s *PromptService) Compile(ctx context.Context, input *CompileInput) (*CompiledPrompt, error) {
	p, kind, err := s.resolve(input)
	if err != nil {
		return nil, err
	}

	value, err := p.Invoke(input.Variables)
	if err != nil {
		return nil, compileError(err)
	}

	return &CompiledPrompt{
		Name:      input.Name,
		Kind:      kind,
		Text:      value.String(),
		Messages:  value.Messages(),
		Variables: p.InputVariables(),
	}, nil
}

func (s *PromptService) resolve(input *CompileInput) (prompt.Prompt, string, error) {
	set := 0
	for _, present := range []bool{input.Name != "", input.Template != "", len(input.Messages) > 0} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, "", apperrors.ValidateError("exactly one of name, template or messages is required")
	}

	switch {
	case input.Name != "":
		entry, ok := s.library.Get(input.Name)
		if !ok {
			return nil, "", apperrors.NotFound(fmt.Sprintf("prompt %q not found", input.Name))
		}
		return entry.Prompt, entry.Kind, nil
	case input.Template != "":
		tmpl, err := prompt.NewTemplate(input.Template)
		if err != nil {
			return nil, "", templateError("template", err)
		}
		return tmpl, prompt.KindText, nil
	default:
		entries := make([]prompt.Entry, 0, len(input.Messages))
		for i, m := range input.Messages {
			field := fmt.Sprintf("messages[%d]", i)
			role, err := prompt.ParseRole(m.Role)
			if err != nil {
				return nil, "", apperrors.ValidateError(err.Error()).WithDetail(field, []string{err.Error()})
			}
			tmpl, err := prompt.NewTemplate(m.Content)
			if err != nil {
				return nil, "", templateError(field, err)
			}
			entries = append(entries, prompt.Entry{Role: role, Template: tmpl})
		}
		chat, err := prompt.NewChatTemplate(entries...)
		if err != nil {
			return nil, "", apperrors.ValidateError(err.Error())
		}
		return chat, prompt.KindChat, nil
	}
}

func templateError(field string, err error) error {
	return apperrors.ValidateError("invalid template").
		WithDetail(field, []string{err.Error()}).
		WithError(err)
}

// compileError turns a formatting failure into a validation failure; the
// caller supplied the variables
func compileError(err error) error {
	var missing *prompt.MissingVariablesError
	if errors.As(err, &missing) {
		return apperrors.ValidateError(missing.Error()).
			WithDetail("missing", missing.Names).
			WithError(err)
	}
	return apperrors.ValidateError(err.Error()).WithError(err)
}
