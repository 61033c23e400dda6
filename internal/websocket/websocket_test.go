package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/config"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	apierrors "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/errors"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// fakeBuilder records the filters it was asked to build.
type fakeBuilder struct {
	mu      sync.Mutex
	filters []analytics.Filter
	err     error
}

func (b *fakeBuilder) Dashboard(_ context.Context, channel string, f analytics.Filter) (*analytics.Dashboard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters = append(b.filters, f)
	if b.err != nil {
		return nil, b.err
	}
	return &analytics.Dashboard{
		Filter:  f,
		Summary: analytics.Summary{TotalStartups: len(b.filters)},
		Dataset: dataset.Meta{Source: channel},
	}, nil
}

func (b *fakeBuilder) last() analytics.Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters[len(b.filters)-1]
}

func testConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageSize:  4096,
		PingPeriod:      time.Second,
		PongWait:        2 * time.Second,
		WriteWait:       time.Second,
	}
}

func startServer(t *testing.T, builder DashboardBuilder) (*httptest.Server, *Hub) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	hub := NewHub(logger)
	h := NewHandler(builder, hub, testConfig(), nil, nil, apierrors.NewErrorHandler(logger, false), logger)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req any) Reply {
	t.Helper()
	require.NoError(t, conn.WriteJSON(req))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestSession_FilterAndRefine(t *testing.T) {
	builder := &fakeBuilder{}
	srv, _ := startServer(t, builder)
	conn := dial(t, srv)

	reply := roundTrip(t, conn, map[string]any{
		"type":   TypeFilter,
		"id":     "1",
		"filter": map[string]any{"states": []string{"Goa"}, "trl_buckets": []string{"mid"}},
	})
	assert.Equal(t, TypeDashboard, reply.Type)
	assert.Equal(t, "1", reply.ID)
	require.NotNil(t, reply.Data)
	assert.Equal(t, "websocket", reply.Data.Dataset.Source)
	assert.Equal(t, analytics.Filter{
		States:     []string{"Goa"},
		TRLBuckets: []domain.TRLBucket{domain.TRLBucketMid},
	}, builder.last())

	reply = roundTrip(t, conn, map[string]any{
		"type":   TypeRefine,
		"id":     "2",
		"filter": map[string]any{"sectors": []string{"Agri"}},
	})
	assert.Equal(t, TypeDashboard, reply.Type)
	assert.Equal(t, analytics.Filter{
		States:     []string{"Goa"},
		Sectors:    []string{"Agri"},
		TRLBuckets: []domain.TRLBucket{domain.TRLBucketMid},
	}, builder.last())

	reply = roundTrip(t, conn, map[string]any{"type": TypeFilter, "id": "3"})
	assert.Equal(t, TypeDashboard, reply.Type)
	assert.True(t, builder.last().IsEmpty())
}

func TestSession_HeartbeatHasNoReply(t *testing.T) {
	builder := &fakeBuilder{}
	srv, _ := startServer(t, builder)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Request{Type: TypeHeartbeat}))
	reply := roundTrip(t, conn, Request{Type: TypeRefresh, ID: "after"})

	assert.Equal(t, "after", reply.ID)
	builder.mu.Lock()
	assert.Len(t, builder.filters, 1)
	builder.mu.Unlock()
}

func TestSession_Errors(t *testing.T) {
	builder := &fakeBuilder{err: errors.New("read failed")}
	srv, _ := startServer(t, builder)
	conn := dial(t, srv)

	t.Run("malformed", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var reply Reply
		require.NoError(t, conn.ReadJSON(&reply))
		assert.Equal(t, TypeError, reply.Type)
		require.NotNil(t, reply.Error)
		assert.Equal(t, http.StatusBadRequest, reply.Error.Status)
	})

	t.Run("unknown type", func(t *testing.T) {
		reply := roundTrip(t, conn, Request{Type: "subscribe", ID: "x"})
		assert.Equal(t, TypeError, reply.Type)
		assert.Equal(t, "x", reply.ID)
	})

	t.Run("bad bucket", func(t *testing.T) {
		reply := roundTrip(t, conn, map[string]any{"type": TypeFilter, "filter": map[string]any{"trl_buckets": []string{"TRL 10"}}})
		assert.Equal(t, TypeError, reply.Type)
		assert.Equal(t, http.StatusBadRequest, reply.Error.Status)
	})

	t.Run("build failure", func(t *testing.T) {
		reply := roundTrip(t, conn, Request{Type: TypeRefresh, ID: "y"})
		assert.Equal(t, TypeError, reply.Type)
		assert.Equal(t, http.StatusInternalServerError, reply.Error.Status)
	})
}

func TestHub_CloseEndsSessions(t *testing.T) {
	srv, hub := startServer(t, &fakeBuilder{})
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Close(context.Background())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	require.Eventually(t, func() bool { return hub.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	late, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer late.Close()
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseServiceRestart), "got %v", err)
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "http://dash.example/ws/dashboard", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://dash.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))
}
