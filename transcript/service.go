// Package transcript turns a submitted YouTube URL into plain caption text.
//
// Service.Get extracts the video id, lists the caption tracks, prefers the configured
// languages (manual captions before auto-generated ones) and, when only a fallback language
// is available, hands the text to a Translator. Failures are returned as errors wrapping one
// of the sentinel classes in errors.go; Message converts them to the strings sent to clients.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/onnwee/youwin/telemetry"
)

// Translator converts caption text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Transcript is a successfully retrieved caption text.
type Transcript struct {
	VideoID string
	// Language is the language of Text; SourceLanguage is the caption track it came from.
	Language       string
	SourceLanguage string
	Generated      bool
	Translated     bool
	Text           string
}

// Service resolves URLs into transcripts.
type Service struct {
	fetcher    Fetcher
	translator Translator
	preferred  []string
	fallback   []string
}

// NewService returns a Service. translator may be nil, in which case fallback-language
// captions are returned untranslated.
func NewService(f Fetcher, t Translator, preferred, fallback []string) *Service {
	if len(preferred) == 0 {
		preferred = []string{"en"}
	}
	return &Service{fetcher: f, translator: t, preferred: preferred, fallback: fallback}
}

// Get returns the transcript for the video referenced by rawURL.
func (s *Service) Get(ctx context.Context, rawURL string) (tr *Transcript, err error) {
	videoID, ok := ExtractVideoID(rawURL)
	if !ok {
		return nil, ErrInvalidURL
	}

	ctx, span := telemetry.StartSpan(ctx, "transcript", "transcript.get", telemetry.VideoIDAttr(videoID))
	defer span.End()
	defer func() {
		telemetry.RecordTranscript(err == nil)
		telemetry.RecordError(span, err)
	}()

	elapsed := telemetry.TimeFunc(telemetry.TranscriptDuration, func() {
		tr, err = s.get(ctx, videoID)
	})
	if err != nil {
		err = classify(err)
		telemetry.LoggerWithCorr(ctx).Warn("transcript retrieval failed",
			slog.String("video_id", videoID), slog.Duration("elapsed", elapsed),
			slog.Any("err", err), slog.String("component", "transcript"))
		return nil, err
	}
	return tr, nil
}

func (s *Service) get(ctx context.Context, videoID string) (*Transcript, error) {
	list, err := s.fetcher.ListTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	tracks := list.Tracks()
	if len(tracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	if track, ok := findTrack(tracks, s.preferred); ok {
		text, err := fetchText(ctx, list, track)
		if err != nil {
			return nil, err
		}
		return &Transcript{VideoID: videoID, Language: track.Language, SourceLanguage: track.Language, Generated: track.Generated, Text: text}, nil
	}

	track, ok := findTrack(tracks, s.fallback)
	if !ok {
		return nil, fmt.Errorf("video %s offers %s: %w", videoID, languages(tracks), ErrNoTranscript)
	}
	text, err := fetchText(ctx, list, track)
	if err != nil {
		return nil, err
	}
	tr := &Transcript{VideoID: videoID, Language: track.Language, SourceLanguage: track.Language, Generated: track.Generated, Text: text}
	if s.translator == nil {
		return tr, nil
	}
	target := s.preferred[0]
	translated, err := s.translator.Translate(ctx, text, target)
	if err != nil {
		return nil, fmt.Errorf("translate %s to %s: %v: %w", track.Language, target, err, ErrRetrieval)
	}
	tr.Text = translated
	tr.Language = target
	tr.Translated = true
	return tr, nil
}

func fetchText(ctx context.Context, list TrackList, track Track) (string, error) {
	segs, err := list.Fetch(ctx, track)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(segs))
	for _, seg := range segs {
		lines = append(lines, seg.Text)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("empty %s track: %w", track.Language, ErrNoTranscript)
	}
	return strings.Join(lines, "\n"), nil
}

// findTrack walks langs in order. For each language an exact code match wins over a regional
// variant (en-US for en), and manual captions win over auto-generated ones.
func findTrack(tracks []Track, langs []string) (Track, bool) {
	for _, lang := range langs {
		lang = strings.ToLower(lang)
		var best *Track
		rank := 4
		for i := range tracks {
			code := strings.ToLower(tracks[i].Language)
			r := -1
			switch {
			case code == lang:
				r = 0
			case strings.HasPrefix(code, lang+"-"):
				r = 2
			default:
				continue
			}
			if tracks[i].Generated {
				r++
			}
			if r < rank {
				rank = r
				best = &tracks[i]
			}
		}
		if best != nil {
			return *best, true
		}
	}
	return Track{}, false
}

func languages(tracks []Track) string {
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		codes = append(codes, t.Language)
	}
	return "[" + strings.Join(codes, ",") + "]"
}
