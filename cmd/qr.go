package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"facefortune/internal/gate"
	"facefortune/internal/store"
	"facefortune/internal/types"
	"facefortune/internal/utils"

	"github.com/spf13/cobra"
)

var qrOpts Options

var qrCmd = &cobra.Command{
	Use:   "qr <report-id>",
	Short: "Show the QR hand-off view for a finished report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		return runQr(cmd.Context(), id, qrOpts)
	},
}

func init() {
	qrCmd.Flags().StringVar(&qrOpts.Hold, "hold", "", "Auto-return window (default from config, '0s' to exit immediately)")
	rootCmd.AddCommand(qrCmd)
}

func runQr(ctx context.Context, id string, opts Options) error {
	events.Track("qr_viewed", map[string]any{"report_id": id})

	g := gate.New(DB)
	g.MinDelay = 0 // the QR view resolves immediately
	report, err := g.Resolve(ctx, id)
	if err != nil {
		return presentFailure("QR view unavailable", err)
	}

	url := gate.QRLink(cfg.ResultBase, report.ID)
	code, err := qrRenderer.RenderURL(url)
	if err != nil {
		utils.ShowError("Failed to render QR code", err)
		return err
	}

	fmt.Println("🪙 Your wealth reading is ready")
	fmt.Println(code)
	fmt.Printf("Your score: %.0f / 100\n", report.Score.Score)
	if summary := gate.CleanSummary(report.Score.Summary); summary != "" {
		fmt.Println(summary)
	}
	fmt.Println("(Scan the QR to view the full result and download it.)")

	// Auto-return timer, cancelled if the view is dismissed first.
	hold := cfg.QRHold()
	if opts.Hold != "" {
		hold, err = time.ParseDuration(opts.Hold)
		if err != nil {
			return fmt.Errorf("invalid hold format (use '60s', '2m'): %w", err)
		}
	}
	if hold > 0 {
		fmt.Fprintf(os.Stderr, "⏳ Returning home in %s (ctrl-c to leave now)\n", hold)
		select {
		case <-time.After(hold):
		case <-ctx.Done():
		}
	}
	return nil
}

// presentFailure maps presentation-side errors to their redirect-home
// behavior and the matching observability event.
func presentFailure(context string, err error) error {
	reason := ""
	switch {
	case errors.Is(err, gate.ErrMissingID):
		reason = string(types.ReasonMissingInput)
	case errors.Is(err, store.ErrNotFound):
		reason = string(types.ReasonNotFound)
	}
	if reason != "" {
		events.Track("presentation_rejected", map[string]any{"reason": reason})
	}
	utils.ShowError(context, err)
	fmt.Fprintln(os.Stderr, "🏠 Returning to the start. Run: facefortune analyze <photo>")
	return err
}

// linkFrame is the stand-in QR renderer: the real image renderer is
// collaborator-owned, so the engine only guarantees the URL hand-off.
type linkFrame struct{}

var qrRenderer gate.QRRenderer = linkFrame{}

func (linkFrame) RenderURL(url string) (string, error) {
	bar := strings.Repeat("─", len(url)+2)
	return fmt.Sprintf("┌%s┐\n│ %s │\n└%s┘", bar, url, bar), nil
}
