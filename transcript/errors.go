package transcript

import (
	"errors"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var (
	// ErrInvalidURL means no video id could be extracted from the submission.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrTranscriptsDisabled means the uploader turned captions off.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled")
	// ErrNoTranscript means captions exist but none in a usable language.
	ErrNoTranscript = errors.New("no transcript found")
	// ErrRetrieval means the video or its captions could not be fetched.
	ErrRetrieval = errors.New("could not retrieve transcript")
)

// Messages sent to the client for each failure class.
const (
	MsgInvalidURL = "Invalid YouTube URL!"
	MsgDisabled   = "Transcripts are disabled for this video!"
	MsgRetrieval  = "Could not retrieve the transcript!"
	MsgNoneFound  = "No transcripts available!"
)

// Message maps an error from Service.Get to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidURL):
		return MsgInvalidURL
	case errors.Is(err, ErrTranscriptsDisabled):
		return MsgDisabled
	case errors.Is(err, ErrRetrieval):
		return MsgRetrieval
	case errors.Is(err, ErrNoTranscript):
		return MsgNoneFound
	default:
		return "Error: " + err.Error()
	}
}

// classify wraps errors coming out of the youtube client into one of the sentinel classes.
// Errors that match no known pattern are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrTranscriptsDisabled) ||
		errors.Is(err, ErrNoTranscript) || errors.Is(err, ErrRetrieval) {
		return err
	}
	if errors.Is(err, youtube.ErrTranscriptDisabled) {
		return errors.Join(ErrTranscriptsDisabled, err)
	}
	if errors.Is(err, youtube.ErrVideoPrivate) || errors.Is(err, youtube.ErrLoginRequired) {
		return errors.Join(ErrRetrieval, err)
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "transcript is disabled") ||
		strings.Contains(lower, "subtitles are disabled") {
		return errors.Join(ErrTranscriptsDisabled, err)
	}
	if strings.Contains(lower, "unexpected status code") ||
		strings.Contains(lower, "video unavailable") ||
		strings.Contains(lower, "not available") ||
		strings.Contains(lower, "login required") ||
		strings.Contains(lower, "private") ||
		strings.Contains(lower, "429") ||
		strings.Contains(lower, "403") ||
		strings.Contains(lower, "404") {
		return errors.Join(ErrRetrieval, err)
	}
	return err
}
