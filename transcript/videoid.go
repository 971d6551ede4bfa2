package transcript

import (
	"regexp"
	"strings"
	"sync"
)

// videoIDPatterns are tried in order; the first match wins. Matching is a substring search,
// so surrounding scheme, host prefix (www., m.) and trailing parameters are ignored.
var videoIDPatterns = sync.OnceValue(func() []*regexp.Regexp {
	const id = `([a-zA-Z0-9_-]{11})`
	return []*regexp.Regexp{
		regexp.MustCompile(`youtu\.be/` + id),
		regexp.MustCompile(`youtube\.com/watch\?v=` + id),
		regexp.MustCompile(`youtube\.com/live/` + id),
		regexp.MustCompile(`youtube\.com/embed/` + id),
		regexp.MustCompile(`youtube\.com/v/` + id),
		regexp.MustCompile(`youtube\.com/shorts/` + id),
		regexp.MustCompile(`youtube\.com/watch\?(?:[^#\s]*&)?v=` + id),
	}
})

// ExtractVideoID returns the 11 character video id embedded in a YouTube URL.
func ExtractVideoID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	for _, re := range videoIDPatterns() {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
