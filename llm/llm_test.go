package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func TestSummaryPrompt(t *testing.T) {
	p := SummaryPrompt("line one\nline two", VideoInfo{Title: "Go Concurrency", Channel: "GopherCon"})
	assert.Contains(t, p, "Summarize the following YouTube video transcript")
	assert.Contains(t, p, "VIDEO TITLE: Go Concurrency")
	assert.Contains(t, p, "CHANNEL: GopherCon")
	assert.True(t, strings.HasSuffix(p, "TRANSCRIPT:\nline one\nline two\n"))

	bare := SummaryPrompt("x", VideoInfo{})
	assert.NotContains(t, bare, "VIDEO TITLE")
	assert.NotContains(t, bare, "CHANNEL")
}

func TestChatPrompt(t *testing.T) {
	p := ChatPrompt("the transcript", "what is it about?")
	assert.Contains(t, p, "The transcript of the video is:\nthe transcript")
	assert.Contains(t, p, "User question: what is it about?")
	assert.Contains(t, p, "just say so politely")
}

func TestSummarize(t *testing.T) {
	gen := &stubGenerator{reply: "## Summary\n- point"}
	a := NewAssistant(gen)

	got := a.Summarize(context.Background(), "transcript text", VideoInfo{})
	assert.Equal(t, "## Summary\n- point", got)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "transcript text")
}

func TestSummarizeErrorIsInlined(t *testing.T) {
	a := NewAssistant(&stubGenerator{err: errors.New("quota exceeded")})
	got := a.Summarize(context.Background(), "t", VideoInfo{})
	assert.Equal(t, "Error generating summary: quota exceeded", got)
}

func TestAnswerAndTranslate(t *testing.T) {
	gen := &stubGenerator{reply: "It is about Go."}
	a := NewAssistant(gen)

	out, err := a.Answer(context.Background(), "ctx", "q?")
	require.NoError(t, err)
	assert.Equal(t, "It is about Go.", out)

	_, err = a.Translate(context.Background(), "namaste", "en")
	require.NoError(t, err)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], `"en"`)
	assert.True(t, strings.HasSuffix(gen.prompts[1], "namaste"))

	gen.err = errors.New("boom")
	_, err = a.Answer(context.Background(), "ctx", "q?")
	assert.EqualError(t, err, "boom")
}

func TestFormatHistory(t *testing.T) {
	got := FormatHistory([]Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAI, Content: "hello"},
		{Role: "system", Content: "ignored"},
		{Role: RoleUser, Content: "bye"},
	})
	assert.Equal(t, "User: hi\nAI: hello\nUser: bye\n", got)
	assert.Equal(t, "", FormatHistory(nil))
}

func TestConversation(t *testing.T) {
	gen := &stubGenerator{reply: "first answer"}
	c := NewConversation(gen)

	out, err := c.Send(context.Background(), "first question")
	require.NoError(t, err)
	assert.Equal(t, "first answer", out)
	assert.Equal(t, "User: first question\n", gen.prompts[0])

	gen.reply = "second answer"
	_, err = c.Send(context.Background(), "second question")
	require.NoError(t, err)
	assert.Equal(t, "User: first question\nAI: first answer\nUser: second question\n", gen.prompts[1])
	assert.Len(t, c.History(), 4)

	gen.err = errors.New("down")
	_, err = c.Send(context.Background(), "third")
	require.Error(t, err)
	assert.Len(t, c.History(), 4, "failed turn must not stay in history")

	c.Reset()
	assert.Empty(t, c.History())
}

func TestNewGeminiValidation(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiOptions{Model: "gemini-2.0-flash"})
	assert.Error(t, err)
	_, err = NewGemini(context.Background(), GeminiOptions{APIKey: "k"})
	assert.Error(t, err)
}
