package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/config"
	apierrors "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/errors"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/infrastructure"
)

// DashboardBuilder computes a dashboard for a filter.
type DashboardBuilder interface {
	Dashboard(ctx context.Context, channel string, f analytics.Filter) (*analytics.Dashboard, error)
}

// Handler upgrades requests to filter sessions.
type Handler struct {
	builder      DashboardBuilder
	hub          *Hub
	upgrader     websocket.Upgrader
	cfg          config.WebSocketConfig
	metrics      *infrastructure.DashboardMetrics
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewHandler creates the WebSocket endpoint. allowedOrigins restricts
// browser origins; an empty list allows only same-host requests.
func NewHandler(builder DashboardBuilder, hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string,
	metrics *infrastructure.DashboardMetrics, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		builder:      builder,
		hub:          hub,
		cfg:          cfg,
		metrics:      metrics,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}
	return h
}

// ServeHTTP upgrades the connection and serves the session until it ends.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an HTTP error response.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	s := newSession(h, conn, r)
	if !h.hub.register(s) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseServiceRestart, "server shutting down"),
			time.Now().Add(h.cfg.WriteWait))
		conn.Close()
		return
	}
	defer h.hub.unregister(s)

	if h.metrics != nil {
		h.metrics.WebSocketSessions.Add(ctx, 1)
		defer h.metrics.WebSocketSessions.Add(ctx, -1)
	}
	s.logger.InfoContext(ctx, "websocket session started", slog.String("remote_addr", r.RemoteAddr))

	go s.writePump(ctx)
	s.readPump(ctx)
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}
