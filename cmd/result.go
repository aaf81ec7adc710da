package cmd

import (
	"context"
	"fmt"
	"os"

	"facefortune/internal/gate"
	"facefortune/internal/render"

	"github.com/spf13/cobra"
)

var resultCmd = &cobra.Command{
	Use:   "result <report-id>",
	Short: "View the full reading for a report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		return runResult(cmd.Context(), id)
	},
}

func init() {
	rootCmd.AddCommand(resultCmd)
}

func runResult(ctx context.Context, id string) error {
	events.Track("result_viewed", map[string]any{"report_id": id})

	g := gate.New(DB)
	g.MinDelay = cfg.ResultDelay()
	g.ExportWindow = cfg.ExportWindow()

	fmt.Fprintln(os.Stderr, "⏳ Fetching your result…")
	report, err := g.Resolve(ctx, id)
	if err != nil {
		return presentFailure("Result unavailable", err)
	}

	md := gate.ResultMarkdown(report)
	out, err := render.NewMarkdown().Render(md)
	if err != nil {
		out = md
	}
	fmt.Println(out)

	// Viewing stays allowed after expiry; only the download goes away.
	days := int(g.ExportWindow.Hours() / 24)
	if err := g.CanExport(report); err == nil {
		until := report.CreatedAt.Add(g.ExportWindow).Local().Format("2006-01-02")
		fmt.Fprintf(os.Stderr, "✻ Download available until %s: facefortune export %s\n", until, report.ID)
	} else {
		fmt.Fprintf(os.Stderr, "✻ The %d-day download window for this report has closed.\n", days)
	}
	return nil
}
