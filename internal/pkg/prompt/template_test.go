package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		variables []string
		wantErr   bool
	}{
		{"plain", "hello", []string{}, false},
		{"one variable", "请讲一个关于{subject}的冷笑话", []string{"subject"}, false},
		{"repeated variable", "{a} and {a} and {b}", []string{"a", "b"}, false},
		{"escaped braces", `{{"json": {value}}}`, []string{"value"}, false},
		{"unclosed", "hello {name", nil, true},
		{"stray close", "hello }", nil, true},
		{"empty name", "hello {}", nil, true},
		{"nested open", "{a{b}}", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewTemplate(tt.text)
			if tt.wantErr {
				var pe *ParseError
				assert.ErrorAs(t, err, &pe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variables, tmpl.InputVariables())
		})
	}
}

func TestTemplate_Format(t *testing.T) {
	tmpl := MustTemplate(`{{"subject": "{subject}", "count": {n}}}`)

	out, err := tmpl.Format(map[string]any{"subject": "程序员", "n": 3, "unused": true})
	require.NoError(t, err)
	assert.Equal(t, `{"subject": "程序员", "count": 3}`, out)
}

func TestTemplate_FormatMissing(t *testing.T) {
	tmpl := MustTemplate("{b} {a} {b}")

	_, err := tmpl.Format(map[string]any{})

	var missing *MissingVariablesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"a", "b"}, missing.Names)
	assert.Equal(t, "missing variables: a, b", err.Error())
}

func TestTemplate_Partial(t *testing.T) {
	calls := 0
	tmpl := MustTemplate("now={now} q={query}").Partial(map[string]any{
		"now": func() string {
			calls++
			return "T"
		},
	})

	assert.Equal(t, []string{"query"}, tmpl.InputVariables())

	out, err := tmpl.Format(map[string]any{"query": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "now=T q=hi", out)

	_, err = tmpl.Format(map[string]any{"query": "again"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	out, err = tmpl.Format(map[string]any{"query": "x", "now": "override"})
	require.NoError(t, err)
	assert.Equal(t, "now=override q=x", out)
}

func TestTemplate_Add(t *testing.T) {
	tmpl, err := MustTemplate("请讲一个关于{subject}的笑话").Add(",让我开心一下。")
	require.NoError(t, err)
	tmpl, err = tmpl.Add(MustTemplate("\n使用{language}语言"))
	require.NoError(t, err)

	assert.Equal(t, []string{"language", "subject"}, tmpl.InputVariables())

	v, err := tmpl.Invoke(map[string]any{"subject": "java", "language": "英语"})
	require.NoError(t, err)
	assert.Equal(t, "请讲一个关于java的笑话,让我开心一下。\n使用英语语言", v.String())
	assert.Equal(t, []Message{{Role: RoleHuman, Content: v.String()}}, v.Messages())

	_, err = tmpl.Add(42)
	assert.Error(t, err)

	_, err = tmpl.Add("bad {")
	assert.Error(t, err)
}

func TestTemplate_AddKeepsPartials(t *testing.T) {
	left := MustTemplate("{a}").Partial(map[string]any{"a": "A"})
	right := MustTemplate("{b}").Partial(map[string]any{"b": "B"})

	joined, err := left.Add(right)
	require.NoError(t, err)

	out, err := joined.Format(nil)
	require.NoError(t, err)
	assert.Equal(t, "AB", out)
}
