package dto

import "github.com/490273789/llmops-api/internal/service"

// PromptMessage is an inline chat message template
type PromptMessage struct {
	Role    string `json:"role" validate:"required,oneof=system human ai user assistant"`
	Content string `json:"content" validate:"required"`
}

// CompilePromptRequest is the body of POST /prompts/compile
type CompilePromptRequest struct {
	Name      string          `json:"name" validate:"omitempty,max=255"`
	Template  string          `json:"template" validate:"omitempty,max=20000"`
	Messages  []PromptMessage `json:"messages" validate:"omitempty,max=100,dive"`
	Variables map[string]any  `json:"variables"`
}

// ToInput converts the request to a service input
func (r *CompilePromptRequest) ToInput() *service.CompileInput {
	messages := make([]service.MessageInput, len(r.Messages))
	for i, m := range r.Messages {
		messages[i] = service.MessageInput{Role: m.Role, Content: m.Content}
	}
	return &service.CompileInput{
		Name:      r.Name,
		Template:  r.Template,
		Messages:  messages,
		Variables: r.Variables,
	}
}
