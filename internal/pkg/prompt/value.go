package prompt

import (
	"fmt"
	"strings"
)

// Role of a chat message
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

// Label is the speaker name used when messages are flattened to text
func (r Role) Label() string {
	switch r {
	case RoleSystem:
		return "System"
	case RoleHuman:
		return "Human"
	case RoleAI:
		return "AI"
	default:
		return string(r)
	}
}

// ParseRole accepts the usual aliases of the three roles
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return RoleSystem, nil
	case "human", "user":
		return RoleHuman, nil
	case "ai", "assistant":
		return RoleAI, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Message is one chat message
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Value is the result of invoking a prompt
type Value interface {
	// String flattens the value to text
	String() string
	// Messages returns the value as chat messages
	Messages() []Message
}

// StringValue is the output of a text template
type StringValue string

func (v StringValue) String() string {
	return string(v)
}

// Messages wraps the text in a single human message
func (v StringValue) Messages() []Message {
	return []Message{{Role: RoleHuman, Content: string(v)}}
}

// ChatValue is the output of a chat template
type ChatValue []Message

// String renders "Role: content" lines
func (v ChatValue) String() string {
	lines := make([]string, len(v))
	for i, m := range v {
		lines[i] = m.Role.Label() + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

func (v ChatValue) Messages() []Message {
	return []Message(v)
}
