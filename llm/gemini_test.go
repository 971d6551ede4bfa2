package llm_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/youwin/llm"
	"github.com/onnwee/youwin/testutil"
)

func newTestGemini(t *testing.T, srv *testutil.MockGeminiServer) *llm.Gemini {
	t.Helper()
	g, err := llm.NewGemini(context.Background(), llm.GeminiOptions{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: srv.URL + "/",
	})
	require.NoError(t, err)
	return g
}

func TestGeminiGenerate(t *testing.T) {
	srv := testutil.NewMockGeminiServer(t, "  a concise summary \n")
	g := newTestGemini(t, srv)

	out, err := g.Generate(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "a concise summary", out)
	assert.Equal(t, []string{"summarize this"}, srv.Prompts())
	assert.Equal(t, "gemini-2.0-flash", g.Model())
	assert.Nil(t, srv.Temperature())
}

func TestGeminiTemperature(t *testing.T) {
	srv := testutil.NewMockGeminiServer(t, "ok")
	temp := float32(0.3)
	g, err := llm.NewGemini(context.Background(), llm.GeminiOptions{
		APIKey:      "test-key",
		Model:       "gemini-2.0-flash",
		BaseURL:     srv.URL + "/",
		Temperature: &temp,
	})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, srv.Temperature())
	assert.InDelta(t, 0.3, *srv.Temperature(), 1e-6)
}

func TestGeminiEmptyResponse(t *testing.T) {
	srv := testutil.NewMockGeminiServer(t, "   ")
	g := newTestGemini(t, srv)

	_, err := g.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestGeminiAPIError(t *testing.T) {
	srv := testutil.NewMockGeminiServer(t, "unused")
	srv.Fail(http.StatusInternalServerError)
	g := newTestGemini(t, srv)

	_, err := g.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini gemini-2.0-flash")
}

func TestAssistantOverGemini(t *testing.T) {
	srv := testutil.NewMockGeminiServer(t, "It covers three points.")
	a := llm.NewAssistant(newTestGemini(t, srv))

	summary := a.Summarize(context.Background(), "line one\nline two", llm.VideoInfo{Title: "Demo"})
	assert.Equal(t, "It covers three points.", summary)

	prompts := srv.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "line one\nline two")
	assert.Contains(t, prompts[0], "Demo")

	srv.Fail(http.StatusInternalServerError)
	summary = a.Summarize(context.Background(), "line one", llm.VideoInfo{})
	assert.Contains(t, summary, "Error generating summary: ")
}
