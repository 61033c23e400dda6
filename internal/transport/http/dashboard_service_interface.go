package http

import (
	"context"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the HTTP API serves
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, channel string, f analytics.Filter) (*analytics.Dashboard, error)
	Summary(ctx context.Context, f analytics.Filter) (analytics.Summary, dataset.Meta, error)
	View(ctx context.Context, name analytics.ViewName, f analytics.Filter) ([]analytics.Group, dataset.Meta, error)
	Options(ctx context.Context) (analytics.FilterOptions, dataset.Meta, error)
	Startups(ctx context.Context, accelerator string, f analytics.Filter) ([]domain.StartupRow, dataset.Meta, error)
	DatasetMeta(ctx context.Context) (dataset.Meta, error)
}
