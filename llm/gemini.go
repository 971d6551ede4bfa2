// Package llm wraps the hosted Gemini model behind a small Generator interface and builds the
// prompts used by the relay: transcript summaries, questions about a transcript, caption
// translation and free-form multi-turn conversation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("model returned no text")

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini is a Generator backed by the Google Gen AI SDK.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// GeminiOptions configures NewGemini. BaseURL is only set when talking to a proxy or test server.
type GeminiOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
}

// NewGemini creates a client for the Gemini API.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if opts.Model == "" {
		return nil, errors.New("missing Gemini model")
	}
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g := &Gemini{client: client, model: opts.Model}
	if opts.Temperature != nil {
		g.config = &genai.GenerateContentConfig{Temperature: opts.Temperature}
	}
	return g, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
