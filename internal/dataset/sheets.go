package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads the cohort from a Google spreadsheet. Remote sheets
// expose no modification time, so the identity changes once per refresh
// interval; a zero interval loads once for the process lifetime.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	sheet         string
	refresh       time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewSheetsSource creates a Sheets API client. Pass option.WithCredentialsFile
// (or any other client option) to authenticate.
func NewSheetsSource(ctx context.Context, spreadsheetID, sheet string, refresh time.Duration, logger *slog.Logger, opts ...option.ClientOption) (*SheetsSource, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is empty", ErrNoSource)
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsSource{
		service:       svc,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
		refresh:       refresh,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "sheets_source")),
	}, nil
}

// Identity is the spreadsheet and tab plus the current refresh window.
func (s *SheetsSource) Identity(ctx context.Context) (Identity, error) {
	version := "static"
	if s.refresh > 0 {
		version = s.now().Truncate(s.refresh).UTC().Format(time.RFC3339)
	}
	return Identity{
		Source:  "sheets:" + s.spreadsheetID + "#" + s.sheet,
		Version: version,
	}, nil
}

// Read fetches every populated cell of the tab.
func (s *SheetsSource) Read(ctx context.Context) (*Table, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(s.sheet)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", s.spreadsheetID, err)
	}

	s.logger.DebugContext(ctx, "spreadsheet values read",
		slog.String("range", resp.Range),
		slog.Int("total_rows", len(resp.Values)))

	return tableFromRows(resp.Values)
}

// quoteSheet turns a tab name into an A1 range covering the whole tab.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
