package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	apierrors "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/errors"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/infrastructure"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// Delivery channels reported on dashboard build metrics.
const (
	ChannelHTTP      = "http"
	ChannelWebSocket = "websocket"
	ChannelCLI       = "cli"
)

// DatasetProvider supplies the current cleaned dataset.
type DatasetProvider interface {
	Dataset(ctx context.Context) (*dataset.Dataset, error)
}

// DashboardService computes dashboard view models over the loaded dataset.
type DashboardService struct {
	provider DatasetProvider
	metrics  *infrastructure.DashboardMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewDashboardService creates a dashboard service. metrics and tracer may be nil.
func NewDashboardService(provider DatasetProvider, metrics *infrastructure.DashboardMetrics, tracer trace.Tracer, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return &DashboardService{
		provider: provider,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger.With(slog.String("service", "dashboard")),
	}
}

// Dashboard builds the full view model for f on behalf of channel.
func (s *DashboardService) Dashboard(ctx context.Context, channel string, f analytics.Filter) (d *analytics.Dashboard, err error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.build",
		trace.WithAttributes(
			attribute.String("dashboard.channel", channel),
			attribute.Int("filter.accelerators", len(f.Accelerators)),
			attribute.Int("filter.states", len(f.States)),
			attribute.Int("filter.sectors", len(f.Sectors)),
			attribute.Int("filter.trl_buckets", len(f.TRLBuckets)),
		))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveBuild(ctx, channel, time.Since(start), err)
	}()

	ds, err := s.dataset(ctx)
	if err != nil {
		return nil, err
	}
	d, err = analytics.Build(ds, f)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("dashboard.records", d.Summary.Records))

	s.logger.DebugContext(ctx, "dashboard built",
		slog.String("channel", channel),
		slog.Int("records", d.Summary.Records),
		slog.String("fingerprint", d.Dataset.Fingerprint),
		slog.Duration("duration", time.Since(start)))
	return d, nil
}

// Summary computes the headline metrics for f.
func (s *DashboardService) Summary(ctx context.Context, f analytics.Filter) (analytics.Summary, dataset.Meta, error) {
	v, meta, err := s.view(ctx, f)
	if err != nil {
		return analytics.Summary{}, dataset.Meta{}, err
	}
	return analytics.Summarize(v), meta, nil
}

// View computes one grouped view for f.
func (s *DashboardService) View(ctx context.Context, name analytics.ViewName, f analytics.Filter) ([]analytics.Group, dataset.Meta, error) {
	v, meta, err := s.view(ctx, f)
	if err != nil {
		return nil, dataset.Meta{}, err
	}
	groups, err := analytics.GroupView(v, name)
	if err != nil {
		return nil, dataset.Meta{}, err
	}
	return groups, meta, nil
}

// Options lists the selectable values of every filter dimension.
func (s *DashboardService) Options(ctx context.Context) (analytics.FilterOptions, dataset.Meta, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return analytics.FilterOptions{}, dataset.Meta{}, err
	}
	return analytics.Options(ds), ds.Meta, nil
}

// Startups lists the startups of one accelerator within f.
func (s *DashboardService) Startups(ctx context.Context, accelerator string, f analytics.Filter) ([]domain.StartupRow, dataset.Meta, error) {
	v, meta, err := s.view(ctx, f)
	if err != nil {
		return nil, dataset.Meta{}, err
	}
	return analytics.Startups(v, accelerator), meta, nil
}

// DatasetMeta describes the currently loaded dataset.
func (s *DashboardService) DatasetMeta(ctx context.Context) (dataset.Meta, error) {
	ds, err := s.dataset(ctx)
	if err != nil {
		return dataset.Meta{}, err
	}
	return ds.Meta, nil
}

func (s *DashboardService) view(ctx context.Context, f analytics.Filter) (analytics.View, dataset.Meta, error) {
	if err := f.Validate(); err != nil {
		return analytics.View{}, dataset.Meta{}, err
	}
	ds, err := s.dataset(ctx)
	if err != nil {
		return analytics.View{}, dataset.Meta{}, err
	}
	return analytics.Apply(ds, f), ds.Meta, nil
}

// dataset fetches the dataset and classifies load failures. Schema and
// context errors pass through; anything else means the source is unavailable.
func (s *DashboardService) dataset(ctx context.Context) (*dataset.Dataset, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: %w", apierrors.ErrDatasetUnavailable, dataset.ErrNoSource)
	}
	ds, err := s.provider.Dataset(ctx)
	if err == nil {
		return ds, nil
	}
	switch {
	case errors.Is(err, dataset.ErrSchema),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", apierrors.ErrDatasetUnavailable, err)
	}
}
