// Package prompt builds LLM prompts from templates.
//
// A Template is text with {name} placeholders; "{{" and "}}" produce literal
// braces. A ChatTemplate is a list of role messages, each a Template, plus
// placeholders that splice in whole message lists such as a chat history.
// Templates can be partially applied, concatenated with Add and chained into
// a Pipeline where the output of earlier steps feeds later ones.
//
//	tmpl := prompt.MustTemplate("Tell me a joke about {subject}")
//	text, err := tmpl.Format(map[string]any{"subject": "programmers"})
//
// Formatting with a variable absent returns *MissingVariablesError.
package prompt
