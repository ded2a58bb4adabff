package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
	"github.com/490273789/llmops-api/internal/pkg/prompt"
)

func newTestPromptService(t *testing.T) *PromptService {
	t.Helper()
	chat, err := prompt.NewChatTemplate(
		prompt.System("你是聊天机器人，请回答用户的问题，现在时间是{now}"),
		prompt.Human("{query}"),
	)
	require.NoError(t, err)

	lib := prompt.NewLibrary(
		prompt.LibraryEntry{Name: "joke", Kind: prompt.KindText, Prompt: prompt.MustTemplate("请讲一个关于{subject}的冷笑话")},
		prompt.LibraryEntry{Name: "chatbot", Kind: prompt.KindChat, Prompt: chat.Partial(map[string]any{"now": "2024-01-01"})},
	)
	return NewPromptService(lib)
}

func TestPromptService_Compile(t *testing.T) {
	svc := newTestPromptService(t)
	ctx := context.Background()

	t.Run("library text", func(t *testing.T) {
		out, err := svc.Compile(ctx, &CompileInput{Name: "joke", Variables: map[string]any{"subject": "程序员"}})

		require.NoError(t, err)
		assert.Equal(t, "joke", out.Name)
		assert.Equal(t, prompt.KindText, out.Kind)
		assert.Equal(t, "请讲一个关于程序员的冷笑话", out.Text)
		assert.Equal(t, []string{"subject"}, out.Variables)
		assert.Equal(t, []prompt.Message{{Role: prompt.RoleHuman, Content: out.Text}}, out.Messages)
	})

	t.Run("library chat", func(t *testing.T) {
		out, err := svc.Compile(ctx, &CompileInput{Name: "chatbot", Variables: map[string]any{"query": "你好"}})

		require.NoError(t, err)
		assert.Equal(t, prompt.KindChat, out.Kind)
		assert.Equal(t, "System: 你是聊天机器人，请回答用户的问题，现在时间是2024-01-01\nHuman: 你好", out.Text)
		assert.Len(t, out.Messages, 2)
	})

	t.Run("inline template", func(t *testing.T) {
		out, err := svc.Compile(ctx, &CompileInput{Template: "hello {name}", Variables: map[string]any{"name": "go"}})

		require.NoError(t, err)
		assert.Equal(t, "hello go", out.Text)
	})

	t.Run("inline messages", func(t *testing.T) {
		out, err := svc.Compile(ctx, &CompileInput{
			Messages: []MessageInput{
				{Role: "system", Content: "你是我的私人助理,你叫{name}"},
				{Role: "user", Content: "{query}"},
			},
			Variables: map[string]any{"name": "Shown", "query": "谁最帅？"},
		})

		require.NoError(t, err)
		assert.Equal(t, []prompt.Message{
			{Role: prompt.RoleSystem, Content: "你是我的私人助理,你叫Shown"},
			{Role: prompt.RoleHuman, Content: "谁最帅？"},
		}, out.Messages)
		assert.Equal(t, []string{"name", "query"}, out.Variables)
	})
}

func TestPromptService_CompileFailures(t *testing.T) {
	svc := newTestPromptService(t)
	ctx := context.Background()

	t.Run("missing variables", func(t *testing.T) {
		_, err := svc.Compile(ctx, &CompileInput{Name: "joke"})

		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.True(t, apperrors.IsValidateError(err))
		assert.Equal(t, []string{"subject"}, appErr.Data["missing"])
		assert.Equal(t, "missing variables: subject", appErr.Message)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := svc.Compile(ctx, &CompileInput{Name: "nope"})
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("nothing selected", func(t *testing.T) {
		_, err := svc.Compile(ctx, &CompileInput{})
		assert.True(t, apperrors.IsValidateError(err))
	})

	t.Run("two selected", func(t *testing.T) {
		_, err := svc.Compile(ctx, &CompileInput{Name: "joke", Template: "x"})
		assert.True(t, apperrors.IsValidateError(err))
	})

	t.Run("bad template", func(t *testing.T) {
		_, err := svc.Compile(ctx, &CompileInput{Template: "hello {name"})

		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.True(t, apperrors.IsValidateError(err))
		assert.Contains(t, appErr.Data, "template")
	})

	t.Run("bad role", func(t *testing.T) {
		_, err := svc.Compile(ctx, &CompileInput{Messages: []MessageInput{{Role: "tool", Content: "x"}}})

		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Contains(t, appErr.Data, "messages[0]")
	})
}

func TestPromptService_List(t *testing.T) {
	entries := newTestPromptService(t).List(context.Background())

	require.Len(t, entries, 2)
	assert.Equal(t, "chatbot", entries[0].Name)
	assert.Equal(t, []string{"query"}, entries[0].Variables)
	assert.Equal(t, "joke", entries[1].Name)
}
