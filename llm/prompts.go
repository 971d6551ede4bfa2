package llm

import (
	"fmt"
	"strings"
)

// VideoInfo is optional metadata folded into the summary prompt.
type VideoInfo struct {
	Title   string
	Channel string
}

// SummaryPrompt asks for a structured summary of a transcript.
func SummaryPrompt(transcript string, info VideoInfo) string {
	var b strings.Builder
	b.WriteString("Summarize the following YouTube video transcript in a concise way.\n")
	b.WriteString("Include the main topics discussed, key points, and important takeaways.\n")
	b.WriteString("Format the summary with clear sections and bullet points where appropriate.\n\n")
	if info.Title != "" {
		fmt.Fprintf(&b, "VIDEO TITLE: %s\n", info.Title)
	}
	if info.Channel != "" {
		fmt.Fprintf(&b, "CHANNEL: %s\n", info.Channel)
	}
	fmt.Fprintf(&b, "TRANSCRIPT:\n%s\n", transcript)
	return b.String()
}

// ChatPrompt asks a question grounded in the transcript passed as context.
func ChatPrompt(transcript, question string) string {
	var b strings.Builder
	b.WriteString("Context: This is a conversation about a YouTube video.\n")
	fmt.Fprintf(&b, "The transcript of the video is:\n%s\n\n", transcript)
	fmt.Fprintf(&b, "User question: %s\n\n", question)
	b.WriteString("Please respond to the user's question based on the video transcript.\n")
	b.WriteString("If the answer is not in the transcript, just say so politely.\n")
	return b.String()
}

// TranslatePrompt asks for a line-preserving translation of caption text.
func TranslatePrompt(text, targetLang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following video captions into the language with code %q.\n", targetLang)
	b.WriteString("Keep one output line per input line and return only the translated text.\n\n")
	b.WriteString(text)
	return b.String()
}
