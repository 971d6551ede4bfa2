package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/youwin/db"
	"github.com/onnwee/youwin/llm"
	"github.com/onnwee/youwin/telemetry"
	"github.com/onnwee/youwin/transcript"
	"github.com/onnwee/youwin/youtubeapi"
)

const (
	writeWait   = 10 * time.Second
	historyWait = 5 * time.Second
)

type session struct {
	h      *Handler
	id     string
	conn   *websocket.Conn
	remote string
	log    *slog.Logger

	writeMu sync.Mutex
}

func newSession(h *Handler, id string, conn *websocket.Conn, r *http.Request) *session {
	return &session{
		h:      h,
		id:     id,
		conn:   conn,
		remote: r.RemoteAddr,
		log: telemetry.LoggerWithCorr(r.Context()).With(
			slog.String("conn_id", id),
			slog.String("component", "relay")),
	}
}

func (s *session) run(reqCtx context.Context) {
	ctx, cancel := context.WithCancel(telemetry.WithCorrelation(s.h.ctx, telemetry.GetCorrelation(reqCtx)))
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = s.conn.Close()
	})
	defer stop()

	s.h.registry.Add(s.id, s.conn)
	telemetry.IncConnections()
	defer func() {
		s.h.registry.Remove(s.id)
		_ = s.conn.Close()
	}()
	s.log.Info("client connected", slog.String("remote", s.remote))

	if err := s.send(Response{Status: StatusConnected, Message: connectedMessage}); err != nil {
		s.log.Warn("failed to send greeting", slog.Any("err", err))
		return
	}

	pongWait := 2 * s.h.opts.PingInterval
	s.conn.SetReadLimit(s.h.opts.MaxMessageBytes)
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepalive(done)

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readFailed(ctx, err)
			return
		}
		if mt != websocket.TextMessage {
			telemetry.IncMessage(string(kindUnsupported))
			if err := s.send(serverError(errors.New("unsupported binary message"))); err != nil {
				s.log.Warn("failed to send response", slog.Any("err", err))
				return
			}
			continue
		}
		if err := s.handle(ctx, data); err != nil {
			s.log.Warn("failed to send response", slog.Any("err", err))
			return
		}
	}
}

func (s *session) readFailed(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil:
		s.log.Info("connection closed on shutdown")
	case clientGone(err):
		s.log.Info("client disconnected", slog.Any("reason", err))
	default:
		s.log.Warn("read failed", slog.Any("err", err))
		// Best effort; the peer may already be gone.
		_ = s.send(errorResponse("Unexpected error: " + err.Error()))
	}
}

// clientGone reports read errors caused by the peer leaving, including connections dropped
// without a close frame (1006).
func clientGone(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure)
}

func (s *session) keepalive(done <-chan struct{}) {
	t := time.NewTicker(s.h.opts.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.log.Debug("ping failed", slog.Any("err", err))
				return
			}
		}
	}
}

func (s *session) send(resp Response) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(resp)
}

// handle processes one text frame and writes exactly one reply. The returned error is a write
// failure; processing failures are reported to the client.
func (s *session) handle(ctx context.Context, data []byte) (err error) {
	start := time.Now()
	kind, req, perr := parseMessage(data)
	telemetry.IncMessage(string(kind))

	ctx, cancel := context.WithTimeout(ctx, s.h.opts.RequestTimeout)
	ctx, span := telemetry.StartSpan(ctx, "relay", "relay.message",
		telemetry.ConnectionIDAttr(s.id), telemetry.MessageKindAttr(string(kind)))

	var resp Response
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			s.log.Error("message handler panicked", slog.Any("err", perr))
			resp = serverError(perr)
			telemetry.RecordError(span, perr)
			err = s.send(resp)
		}
		span.End()
		cancel()
		telemetry.ObserveMessage(string(kind), time.Since(start))
	}()

	switch kind {
	case kindURL:
		resp = s.handleURL(ctx, string(bytes.TrimSpace(data)))
	case kindChat:
		resp = s.handleChat(ctx, req)
	case kindIgnored:
		s.log.Debug("ignoring message", slog.Any("reason", perr))
		telemetry.SetSpanSuccess(span)
		return nil
	default:
		s.log.Debug("unsupported message", slog.Any("err", perr))
		resp = serverError(errors.New("unsupported message"))
	}

	if resp.Status == StatusError {
		telemetry.RecordError(span, errors.New(resp.Message))
	} else {
		telemetry.SetSpanSuccess(span)
	}
	return s.send(resp)
}

func (s *session) handleURL(ctx context.Context, rawURL string) Response {
	tr, err := s.h.deps.Transcripts.Get(ctx, rawURL)
	if err != nil {
		s.log.Info("transcript unavailable", slog.String("url", rawURL), slog.Any("err", err))
		return errorResponse(transcript.Message(err))
	}

	info := s.lookupMeta(ctx, tr.VideoID)
	summary := s.h.deps.Assistant.Summarize(ctx, tr.Text, info)

	s.saveSummary(ctx, &db.Summary{
		ConnectionID:    s.id,
		VideoID:         tr.VideoID,
		URL:             transcript.WatchURL(tr.VideoID),
		Title:           info.Title,
		Language:        tr.Language,
		Translated:      tr.Translated,
		TranscriptChars: len(tr.Text),
		Summary:         summary,
	})

	return Response{
		Status:     StatusSuccess,
		Transcript: tr.Text,
		Summary:    summary,
		VideoID:    tr.VideoID,
		Title:      info.Title,
		Language:   tr.Language,
		Translated: tr.Translated,
	}
}

func (s *session) handleChat(ctx context.Context, req *ChatRequest) Response {
	answer, err := s.h.deps.Assistant.Answer(ctx, req.Context, req.Message)
	if err != nil {
		return serverError(err)
	}
	s.saveChat(ctx, &db.ChatExchange{
		ConnectionID: s.id,
		Question:     req.Message,
		Answer:       answer,
		ContextChars: len(req.Context),
	})
	return Response{Status: StatusSuccess, Type: TypeChatResponse, Message: answer}
}

func (s *session) lookupMeta(ctx context.Context, videoID string) llm.VideoInfo {
	if s.h.deps.Meta == nil {
		return llm.VideoInfo{}
	}
	meta, err := s.h.deps.Meta.VideoMeta(ctx, videoID)
	if err != nil {
		if !errors.Is(err, youtubeapi.ErrDisabled) {
			s.log.Warn("video metadata lookup failed", slog.String("video_id", videoID), slog.Any("err", err))
		}
		return llm.VideoInfo{}
	}
	return llm.VideoInfo{Title: meta.Title, Channel: meta.Channel}
}

// History writes outlive the message deadline so a slow summary does not lose its record.
func (s *session) saveSummary(ctx context.Context, rec *db.Summary) {
	if s.h.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWait)
	defer cancel()
	err := s.h.deps.History.SaveSummary(ctx, rec)
	telemetry.RecordHistoryWrite(err == nil)
	if err != nil {
		s.log.Warn("failed to record summary", slog.String("video_id", rec.VideoID), slog.Any("err", err))
	}
}

func (s *session) saveChat(ctx context.Context, rec *db.ChatExchange) {
	if s.h.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWait)
	defer cancel()
	err := s.h.deps.History.SaveChat(ctx, rec)
	telemetry.RecordHistoryWrite(err == nil)
	if err != nil {
		s.log.Warn("failed to record chat exchange", slog.Any("err", err))
	}
}
