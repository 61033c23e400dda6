package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

func newStartupsCmd(opts *options) *cobra.Command {
	flags := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "startups <accelerator>",
		Short: "List the startups of one accelerator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := flags.filter()
			if err != nil {
				return err
			}
			rows, _, err := opts.service.Startups(cmd.Context(), args[0], f)
			if err != nil {
				return fmt.Errorf("list startups: %w", err)
			}
			printStartups(cmd.OutOrStdout(), args[0], rows)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printStartups(out io.Writer, accelerator string, rows []domain.StartupRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintf(out, "No startups found for %q.\n", accelerator)
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTUP\tSECTOR\tSTAGE\tTRL\tSTATE")
	_, _ = fmt.Fprintln(w, "-------\t------\t-----\t---\t-----")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Startup, r.Sector, r.Stage, trlText(r.TRLNum), r.State)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d startups\n", len(rows))
}
