package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"facefortune/internal/gate"
	"facefortune/internal/types"
	"facefortune/internal/utils"

	"github.com/spf13/cobra"
)

var exportOpts Options

var exportCmd = &cobra.Command{
	Use:   "export <report-id>",
	Short: "Save a reading as a downloadable report",
	Long: `Writes the full reading to a file. Export is only permitted within
the download window after the report was created; viewing has no such limit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		return runExport(cmd.Context(), id, exportOpts)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOpts.Output, "output", "o", "", "Output file (default: wealth-report-<id>.md)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context, id string, opts Options) error {
	g := gate.New(DB)
	g.MinDelay = 0
	g.ExportWindow = cfg.ExportWindow()

	report, err := g.Resolve(ctx, id)
	if err != nil {
		return presentFailure("Export unavailable", err)
	}

	// Enforced eligibility window, not advisory copy.
	if err := g.CanExport(report); err != nil {
		events.Track("export_denied", map[string]any{
			"report_id": report.ID,
			"reason":    string(types.ReasonExportExpired),
		})
		utils.ShowError("Export refused", err)
		fmt.Fprintln(os.Stderr, "The reading itself can still be viewed: facefortune result "+report.ID)
		return err
	}

	output := opts.Output
	if output == "" {
		output = fmt.Sprintf("wealth-report-%s.md", shortID(report.ID))
	}

	var exporter gate.Exporter = markdownExporter{}
	if err := exporter.Export(report, output); err != nil {
		utils.ShowError("Failed to write report", err)
		return err
	}

	events.Track("report_exported", map[string]any{"report_id": report.ID})
	fmt.Printf("✅ Report saved to %s\n", output)
	return nil
}

// markdownExporter is the default Exporter collaborator: it ships the
// reading as a markdown document. PDF rendering belongs to the export
// utility, not the engine.
type markdownExporter struct{}

func (markdownExporter) Export(r types.Report, path string) error {
	var b strings.Builder
	b.WriteString("# Wealth Reading Report\n\n")
	fmt.Fprintf(&b, "Score: %.0f / 100\n\n", r.Score.Score)
	if summary := gate.CleanSummary(r.Score.Summary); summary != "" {
		b.WriteString("> " + summary + "\n\n")
	}
	b.WriteString(gate.ResultMarkdown(r))
	b.WriteString("\n")
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// shortID trims a uuid for filenames and tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
