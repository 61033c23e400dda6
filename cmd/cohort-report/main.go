package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/app"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/config"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/infrastructure"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/services"
)

// options are the flags shared by every subcommand.
type options struct {
	configFile string
	workbook   string
	sheet      string

	cfg     *config.Config
	logger  *slog.Logger
	service *services.DashboardService
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cohort-report",
		Short: "Print accelerator cohort analytics in the terminal",
		Long:  "Loads the cohort spreadsheet configured for the dashboard server and prints its headline metrics, grouped views and drill-down lists.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (defaults to config.yaml or $"+config.ConfigFileEnv+")")
	root.PersistentFlags().StringVar(&opts.workbook, "workbook", "", "read this Excel workbook instead of the configured source")
	root.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "worksheet name (defaults to the configured sheet)")

	root.AddCommand(newSummaryCmd(opts), newStartupsCmd(opts))
	return root
}

func (o *options) init(ctx context.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.workbook != "" {
		cfg.Data.Source = config.SourceExcel
		cfg.Data.Path = o.workbook
	}
	if o.sheet != "" {
		cfg.Data.Sheet = o.sheet
	}
	o.cfg = cfg

	// Report output goes to stdout, so logs stay on stderr.
	o.logger = infrastructure.NewConsoleLogger(cfg.Logging.Level, os.Stderr)

	source, err := app.NewSource(ctx, cfg.Data, o.logger)
	if err != nil {
		return fmt.Errorf("create dataset source: %w", err)
	}
	o.service = services.NewDashboardService(dataset.NewLoader(source, o.logger), nil, nil, o.logger)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
