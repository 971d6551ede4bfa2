// Package youtubeapi wraps the YouTube Data API for the single purpose of looking up public
// video metadata (title, channel, duration) used to enrich summaries. Access uses an API key;
// without one the service is disabled and lookups return ErrDisabled.
package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

var (
	ErrDisabled = errors.New("youtube data api disabled: no api key")
	ErrNotFound = errors.New("video not found")
)

// Meta is the subset of video metadata the relay uses.
type Meta struct {
	ID          string
	Title       string
	Channel     string
	PublishedAt time.Time
	Duration    string // ISO 8601, e.g. PT4M13S
}

type Service struct {
	svc *yt.Service
}

// New builds the service. An empty apiKey yields a disabled Service; extra options are passed
// to the generated client (tests point it at a local endpoint).
func New(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Service, error) {
	if apiKey == "" {
		return &Service{}, nil
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &Service{svc: svc}, nil
}

// Enabled reports whether lookups will hit the API.
func (s *Service) Enabled() bool { return s != nil && s.svc != nil }

// VideoMeta fetches snippet and content details for one video.
func (s *Service) VideoMeta(ctx context.Context, videoID string) (Meta, error) {
	if !s.Enabled() {
		return Meta{}, ErrDisabled
	}
	res, err := s.svc.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return Meta{}, fmt.Errorf("youtube videos.list %s: %w", videoID, err)
	}
	if len(res.Items) == 0 || res.Items[0].Snippet == nil {
		return Meta{}, fmt.Errorf("%s: %w", videoID, ErrNotFound)
	}
	item := res.Items[0]
	m := Meta{ID: item.Id, Title: item.Snippet.Title, Channel: item.Snippet.ChannelTitle}
	if item.Snippet.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			m.PublishedAt = t.UTC()
		}
	}
	if item.ContentDetails != nil {
		m.Duration = item.ContentDetails.Duration
	}
	return m, nil
}
