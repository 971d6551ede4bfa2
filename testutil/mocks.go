package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/onnwee/youwin/db"
	"github.com/onnwee/youwin/llm"
	"github.com/onnwee/youwin/transcript"
)

// MockGeminiServer serves the generateContent endpoint of the Gemini API with a canned reply.
type MockGeminiServer struct {
	*httptest.Server

	mu          sync.Mutex
	reply       string
	status      int
	prompts     []string
	temperature *float32
}

// NewMockGeminiServer starts a server answering every generateContent call with reply.
func NewMockGeminiServer(t *testing.T, reply string) *MockGeminiServer {
	t.Helper()
	m := &MockGeminiServer{reply: reply, status: http.StatusOK}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

func (m *MockGeminiServer) serve(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, ":generateContent") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var body struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		GenerationConfig *struct {
			Temperature *float32 `json:"temperature"`
		} `json:"generationConfig"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck // best effort capture

	m.mu.Lock()
	for _, c := range body.Contents {
		for _, p := range c.Parts {
			m.prompts = append(m.prompts, p.Text)
		}
	}
	if body.GenerationConfig != nil {
		m.temperature = body.GenerationConfig.Temperature
	}
	status, reply := m.status, m.reply
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test mock response
			"error": map[string]any{"code": status, "message": "mock failure", "status": "INTERNAL"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test mock response
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": reply}},
			},
			"finishReason": "STOP",
		}},
	})
}

// Fail makes subsequent calls return the given HTTP status.
func (m *MockGeminiServer) Fail(status int) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

// Prompts returns the prompt texts received so far.
func (m *MockGeminiServer) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Temperature returns the sampling temperature of the last request, nil when none was sent.
func (m *MockGeminiServer) Temperature() *float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.temperature
}

// FakeTranscripts returns a fixed transcript or error for every URL.
type FakeTranscripts struct {
	Result *transcript.Transcript
	Err    error

	mu   sync.Mutex
	urls []string
}

func (f *FakeTranscripts) Get(_ context.Context, rawURL string) (*transcript.Transcript, error) {
	f.mu.Lock()
	f.urls = append(f.urls, rawURL)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

// Calls returns the URLs passed to Get.
func (f *FakeTranscripts) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// FakeAssistant answers with fixed strings. PanicOn makes Answer panic for that question.
type FakeAssistant struct {
	Summary   string
	Reply     string
	AnswerErr error
	PanicOn   string

	mu        sync.Mutex
	infos     []llm.VideoInfo
	questions []string
}

func (f *FakeAssistant) Summarize(_ context.Context, _ string, info llm.VideoInfo) string {
	f.mu.Lock()
	f.infos = append(f.infos, info)
	f.mu.Unlock()
	return f.Summary
}

func (f *FakeAssistant) Answer(_ context.Context, _ string, question string) (string, error) {
	if f.PanicOn != "" && question == f.PanicOn {
		panic("assistant exploded")
	}
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()
	if f.AnswerErr != nil {
		return "", f.AnswerErr
	}
	return f.Reply, nil
}

// Infos returns the metadata passed to Summarize.
func (f *FakeAssistant) Infos() []llm.VideoInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.VideoInfo(nil), f.infos...)
}

// Questions returns the questions passed to Answer.
func (f *FakeAssistant) Questions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.questions...)
}

// FakeHistory records saved rows in memory.
type FakeHistory struct {
	Err error

	mu        sync.Mutex
	summaries []db.Summary
	chats     []db.ChatExchange
}

func (f *FakeHistory) SaveSummary(_ context.Context, rec *db.Summary) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.summaries) + 1)
	f.summaries = append(f.summaries, *rec)
	return nil
}

func (f *FakeHistory) SaveChat(_ context.Context, rec *db.ChatExchange) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = int64(len(f.chats) + 1)
	f.chats = append(f.chats, *rec)
	return nil
}

func (f *FakeHistory) Summaries() []db.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]db.Summary(nil), f.summaries...)
}

func (f *FakeHistory) Chats() []db.ChatExchange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]db.ChatExchange(nil), f.chats...)
}
