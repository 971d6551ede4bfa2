package transcript

import "testing"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link with time", "https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ&list=PL123", "dQw4w9WgXcQ", true},
		{"watch v not first", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"live", "https://www.youtube.com/live/abcDEF_12-3?si=x", "abcDEF_12-3", true},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"v path", "http://youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts", "https://youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"surrounding whitespace", "  https://youtu.be/dQw4w9WgXcQ\n", "dQw4w9WgXcQ", true},
		{"id too short", "https://youtu.be/abc", "", false},
		{"other host", "https://vimeo.com/123456789", "", false},
		{"plain text", "hello there", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("WatchURL = %q", got)
	}
}
