package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Response statuses and types sent to clients.
const (
	StatusConnected = "connected"
	StatusSuccess   = "success"
	StatusError     = "error"

	TypeChatResponse = "chat_response"

	connectedMessage = "WebSocket connection established"
)

// Response is the single JSON shape written to the socket. Fields are omitted when empty so
// each reply carries only what its kind defines.
type Response struct {
	Status     string `json:"status"`
	Type       string `json:"type,omitempty"`
	Message    string `json:"message,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Summary    string `json:"summary,omitempty"`
	VideoID    string `json:"video_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Language   string `json:"language,omitempty"`
	Translated bool   `json:"translated,omitempty"`
}

// ChatRequest is the JSON object a client sends to ask about a transcript.
type ChatRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Context string `json:"context"`
}

type messageKind string

const (
	kindURL         messageKind = "url"
	kindChat        messageKind = "chat"
	kindUnsupported messageKind = "unsupported"
	// kindIgnored is a JSON object of another type; it gets no reply.
	kindIgnored messageKind = "ignored"
)

func errorResponse(msg string) Response {
	return Response{Status: StatusError, Message: msg}
}

func serverError(err error) Response {
	return errorResponse("Server error: " + err.Error())
}

// parseMessage decides how a text frame is handled. Anything that is not valid JSON is a URL
// submission. A JSON object with type "chat" is a question and any other object is ignored;
// JSON that is not an object is unsupported.
func parseMessage(data []byte) (messageKind, *ChatRequest, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return kindURL, nil, nil
	}
	if trimmed[0] != '{' {
		return kindUnsupported, nil, fmt.Errorf("unsupported message")
	}
	var req ChatRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return kindUnsupported, nil, fmt.Errorf("invalid chat message: %w", err)
	}
	if req.Type != "chat" {
		return kindIgnored, nil, fmt.Errorf("message type %q is not handled", req.Type)
	}
	req.Message = strings.TrimSpace(req.Message)
	return kindChat, &req, nil
}
