package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/config"
	apierrors "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/errors"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/services"
)

const sendBuffer = 16

// Session serves one client connection. Each request is answered in
// order; the server never pushes unsolicited messages.
type Session struct {
	id      string
	conn    *websocket.Conn
	handler *Handler
	request *http.Request
	send    chan Reply
	done    chan struct{}
	once    sync.Once
	filter  analytics.Filter
	cfg     config.WebSocketConfig
	logger  *slog.Logger

	connectedAt      time.Time
	messagesReceived int64
	messagesSent     int64
}

func newSession(h *Handler, conn *websocket.Conn, r *http.Request) *Session {
	id := uuid.New().String()
	return &Session{
		id:          id,
		conn:        conn,
		handler:     h,
		request:     r,
		send:        make(chan Reply, sendBuffer),
		done:        make(chan struct{}),
		cfg:         h.cfg,
		logger:      h.logger.With(slog.String("session_id", id)),
		connectedAt: time.Now(),
	}
}

// shutdown stops both pumps. Safe to call more than once.
func (s *Session) shutdown() {
	s.once.Do(func() { close(s.done) })
}

// readPump reads requests until the connection fails or the session ends.
// It owns request handling, so replies keep request order.
func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.shutdown()
		s.logger.InfoContext(ctx, "websocket session ended",
			slog.Duration("connection_duration", time.Since(s.connectedAt)),
			slog.Int64("messages_received", s.messagesReceived))
	}()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.WarnContext(ctx, "unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		s.messagesReceived++

		reply, ok := s.handle(ctx, message)
		if !ok {
			continue
		}
		select {
		case s.send <- reply:
		case <-s.done:
			return
		}
	}
}

// handle processes one raw request. ok is false when no reply is due.
func (s *Session) handle(ctx context.Context, message []byte) (reply Reply, ok bool) {
	var req Request
	if err := json.Unmarshal(message, &req); err != nil {
		return s.errorReply("", apierrors.NewWithDetails(http.StatusBadRequest, apierrors.CodeValidationFailed,
			"Malformed message", err.Error())), true
	}

	switch req.Type {
	case TypeHeartbeat:
		return Reply{}, false
	case TypeFilter:
		if req.Filter == nil {
			s.filter = analytics.Filter{}
		} else {
			s.filter = *req.Filter
		}
	case TypeRefine:
		if req.Filter != nil {
			s.filter = s.filter.Merge(*req.Filter)
		}
	case TypeRefresh:
	default:
		return s.errorReply(req.ID, apierrors.NewWithDetails(http.StatusBadRequest, apierrors.CodeValidationFailed,
			"Unknown message type", req.Type)), true
	}

	d, err := s.handler.builder.Dashboard(ctx, services.ChannelWebSocket, s.filter)
	if err != nil {
		return s.errorReply(req.ID, err), true
	}
	return Reply{Type: TypeDashboard, ID: req.ID, Data: d}, true
}

func (s *Session) errorReply(id string, err error) Reply {
	problem := s.handler.errorHandler.ErrorToProblem(err, s.request)
	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(s.request.Context(), level, "websocket request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status))
	return Reply{Type: TypeError, ID: id, Error: problem}
}

// writePump sends replies and pings until the session ends.
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case reply := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := s.conn.WriteJSON(reply); err != nil {
				s.logger.WarnContext(ctx, "websocket write failed", slog.String("error", err.Error()))
				s.shutdown()
				return
			}
			s.messagesSent++
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.shutdown()
				return
			}
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed")
			err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.DebugContext(ctx, "close frame not sent", slog.String("error", err.Error()))
			}
			return
		}
	}
}
