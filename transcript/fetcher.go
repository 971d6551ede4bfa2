package transcript

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kkdai/youtube/v2"
)

// Track describes one caption track offered for a video.
type Track struct {
	Language  string
	Generated bool // auto-generated (ASR) captions
}

// Segment is one caption line.
type Segment struct {
	Text    string
	StartMs int
	Dur     int
}

// TrackList is the set of caption tracks of a single video.
type TrackList interface {
	Tracks() []Track
	Fetch(ctx context.Context, track Track) ([]Segment, error)
}

// Fetcher lists the caption tracks of a video.
type Fetcher interface {
	ListTracks(ctx context.Context, videoID string) (TrackList, error)
}

// YouTubeFetcher reads captions through the public YouTube player endpoints.
type YouTubeFetcher struct {
	client *youtube.Client
}

// NewYouTubeFetcher builds a fetcher; a nil httpClient uses the library default.
func NewYouTubeFetcher(httpClient *http.Client) *YouTubeFetcher {
	c := &youtube.Client{}
	if httpClient != nil {
		c.HTTPClient = httpClient
	}
	return &YouTubeFetcher{client: c}
}

func (f *YouTubeFetcher) ListTracks(ctx context.Context, videoID string) (TrackList, error) {
	video, err := f.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}
	if len(video.CaptionTracks) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrTranscriptsDisabled)
	}
	return &youtubeTracks{client: f.client, video: video, tracks: collapseTracks(video.CaptionTracks)}, nil
}

// collapseTracks keeps one Track per language code. get_transcript is keyed by language only,
// so YouTube picks which kind it serves; a code is reported Generated only when it has no
// manual track.
func collapseTracks(cts []youtube.CaptionTrack) []Track {
	tracks := make([]Track, 0, len(cts))
	index := make(map[string]int, len(cts))
	for _, ct := range cts {
		generated := ct.Kind == "asr"
		if i, ok := index[ct.LanguageCode]; ok {
			tracks[i].Generated = tracks[i].Generated && generated
			continue
		}
		index[ct.LanguageCode] = len(tracks)
		tracks = append(tracks, Track{Language: ct.LanguageCode, Generated: generated})
	}
	return tracks
}

type youtubeTracks struct {
	client *youtube.Client
	video  *youtube.Video
	tracks []Track
}

func (t *youtubeTracks) Tracks() []Track { return t.tracks }

func (t *youtubeTracks) Fetch(ctx context.Context, track Track) ([]Segment, error) {
	tr, err := t.client.GetTranscriptCtx(ctx, t.video, track.Language)
	if err != nil {
		return nil, fmt.Errorf("get transcript %s/%s: %w", t.video.ID, track.Language, err)
	}
	out := make([]Segment, 0, len(tr))
	for _, seg := range tr {
		out = append(out, Segment{Text: seg.Text, StartMs: seg.StartMs, Dur: seg.Duration})
	}
	return out, nil
}
