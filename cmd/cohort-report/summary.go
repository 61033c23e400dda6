package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/services"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// filterFlags binds the four filter dimensions to repeatable flags.
type filterFlags struct {
	accelerators []string
	states       []string
	sectors      []string
	buckets      []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.accelerators, "accelerator", nil, "restrict to an accelerator (repeatable)")
	cmd.Flags().StringArrayVar(&f.states, "state", nil, "restrict to a state (repeatable)")
	cmd.Flags().StringArrayVar(&f.sectors, "sector", nil, "restrict to a sector (repeatable)")
	cmd.Flags().StringArrayVar(&f.buckets, "trl-bucket", nil, "restrict to a TRL bucket: early, mid, late or unknown (repeatable)")
}

func (f *filterFlags) filter() (analytics.Filter, error) {
	out := analytics.Filter{
		Accelerators: f.accelerators,
		States:       f.states,
		Sectors:      f.sectors,
	}
	for _, raw := range f.buckets {
		b, err := domain.ParseTRLBucket(raw)
		if err != nil {
			return analytics.Filter{}, fmt.Errorf("--trl-bucket: %w", err)
		}
		out.TRLBuckets = append(out.TRLBuckets, b)
	}
	return out, nil
}

func newSummaryCmd(opts *options) *cobra.Command {
	flags := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print headline metrics and the grouped views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			d, err := opts.service.Dashboard(cmd.Context(), services.ChannelCLI, f)
			if err != nil {
				return fmt.Errorf("build dashboard: %w", err)
			}
			printDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printDashboard(out io.Writer, d *analytics.Dashboard) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total startups:\t%d\n", d.Summary.TotalStartups)
	_, _ = fmt.Fprintf(w, "Accelerators:\t%d\n", d.Summary.TotalAccelerators)
	_, _ = fmt.Fprintf(w, "States covered:\t%d\n", d.Summary.StatesCovered)
	_, _ = fmt.Fprintf(w, "Most common TRL:\t%s\n", trlText(d.Summary.MostCommonTRL))
	_ = w.Flush()

	for _, chart := range d.Charts {
		_, _ = fmt.Fprintf(out, "\n%s\n", chart.Title)
		if len(chart.Points) == 0 {
			_, _ = fmt.Fprintln(out, "  (no data)")
			continue
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		for _, p := range chart.Points {
			_, _ = fmt.Fprintf(w, "  %s\t%d\t\n", p.Label, p.Value)
		}
		_ = w.Flush()
	}
}

func trlText(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}
