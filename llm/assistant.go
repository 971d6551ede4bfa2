package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/youwin/telemetry"
)

// Request purposes, used as metric labels.
const (
	PurposeSummary   = "summary"
	PurposeChat      = "chat"
	PurposeTranslate = "translate"
)

// Assistant runs the relay's prompts against a Generator and records metrics per purpose.
type Assistant struct {
	gen Generator
}

func NewAssistant(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

// Summarize never fails: a generation error is reported inside the returned summary text,
// matching what clients already render.
func (a *Assistant) Summarize(ctx context.Context, transcript string, info VideoInfo) string {
	out, err := a.generate(ctx, PurposeSummary, SummaryPrompt(transcript, info))
	if err != nil {
		return "Error generating summary: " + err.Error()
	}
	return out
}

// Answer responds to a question about the transcript given as context.
func (a *Assistant) Answer(ctx context.Context, transcript, question string) (string, error) {
	return a.generate(ctx, PurposeChat, ChatPrompt(transcript, question))
}

// Translate implements transcript.Translator.
func (a *Assistant) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return a.generate(ctx, PurposeTranslate, TranslatePrompt(text, targetLang))
}

func (a *Assistant) generate(ctx context.Context, purpose, prompt string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "llm", "llm."+purpose)
	defer span.End()

	start := time.Now()
	out, err := a.gen.Generate(ctx, prompt)
	d := time.Since(start)
	telemetry.RecordLLM(purpose, d, err == nil)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.LoggerWithCorr(ctx).Warn("generation failed",
			slog.String("purpose", purpose), slog.Duration("took", d), slog.Any("err", err), slog.String("component", "llm"))
		return "", err
	}
	telemetry.SetSpanSuccess(span)
	telemetry.LoggerWithCorr(ctx).Debug("generation done",
		slog.String("purpose", purpose), slog.Duration("took", d), slog.Int("chars", len(out)), slog.String("component", "llm"))
	return out, nil
}
