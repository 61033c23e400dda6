package websocket

import (
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	apierrors "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/errors"
)

// Message types
const (
	// TypeFilter replaces the session filter and requests a dashboard.
	TypeFilter = "filter"
	// TypeRefine merges the given dimensions into the session filter.
	TypeRefine = "refine"
	// TypeRefresh rebuilds the dashboard for the current session filter.
	TypeRefresh   = "refresh"
	TypeHeartbeat = "heartbeat"

	TypeDashboard = "dashboard"
	TypeError     = "error"
)

// Request is a client message.
type Request struct {
	Type   string            `json:"type"`
	ID     string            `json:"id,omitempty"`
	Filter *analytics.Filter `json:"filter,omitempty"`
}

// Reply answers exactly one Request, echoing its ID.
type Reply struct {
	Type  string                    `json:"type"`
	ID    string                    `json:"id,omitempty"`
	Data  *analytics.Dashboard      `json:"data,omitempty"`
	Error *apierrors.ProblemDetails `json:"error,omitempty"`
}
