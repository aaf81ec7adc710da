package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"facefortune/internal/analysis"
	"facefortune/internal/gate"
	"facefortune/internal/pipeline"
	"facefortune/internal/session"
	"facefortune/internal/types"
	"facefortune/internal/utils"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeOpts Options

var analyzeCmd = &cobra.Command{
	Use:   "analyze [photo]",
	Short: "Run the face reading pipeline on a photo",
	Long: `Runs the three-stage remote analysis (feature extraction, detail
analysis, scoring) on a face photo, persists the report, and prints the QR
hand-off link. With no photo argument it resumes from the session backup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return runAnalyze(cmd.Context(), path, analyzeOpts)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.APIBase, "api-base", "a", "", "Analysis API base URL (overrides config)")
	analyzeCmd.Flags().IntVarP(&analyzeOpts.Retries, "retries", "r", 1, "Max attempts per remote stage (1 = no retry)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.RetryBackoff, "retry-backoff", "0s", "Pause between retry attempts (e.g. '2s', '500ms')")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.SkipGate, "skip-gate", false, "Skip the passcode gate (automation)")
	rootCmd.AddCommand(analyzeCmd)
}

// runAnalyze orchestrates the analysis flow: access gate, photo load,
// pipeline run with progress tracking, and outcome routing.
func runAnalyze(ctx context.Context, path string, opts Options) error {
	backoff, err := validateAnalyzeFlags(&opts)
	if err != nil {
		utils.ShowError("Invalid flags", err)
		return err
	}

	// 1. Access gate (static passcode, asked once per install)
	if !opts.SkipGate {
		if err := ensureVerified(); err != nil {
			utils.ShowError("Access denied", err)
			return err
		}
	}

	apiBase := opts.APIBase
	if apiBase == "" {
		apiBase = cfg.APIBase
	}
	if apiBase == "" {
		err := errors.New("set api_base in the config file, FACEFORTUNE_API_BASE, or --api-base")
		utils.ShowError("No analysis API configured", err)
		return err
	}

	sess := session.Open(session.DefaultDir())

	// 2. Photo reference: the argument, or the session backup after a reload
	var photo types.Photo
	if path != "" {
		photo, err = utils.LoadPhoto(path)
		if err != nil {
			utils.ShowError("Failed to load photo", err)
			return err
		}
		// Backed up so an interrupted run can resume without the file.
		if berr := sess.WritePhoto(photo); berr != nil {
			logger.Debug("session photo backup failed", zap.Error(berr))
		}
	} else if backup, ok := sess.ReadPhoto(); ok {
		fmt.Fprintln(os.Stderr, "📷 Resuming with the photo from the previous session")
		photo = backup
	}
	// An empty photo falls through: the orchestrator treats it as missing
	// input and routes back to the entry point.

	events.Track("page_entered", map[string]any{"page": "loading"})
	logger.Debug("photo loaded", zap.String("fingerprint", utils.Fingerprint(photo)))

	// 3. Progress bar across the four suspension points
	bar := progressbar.NewOptions(4,
		progressbar.OptionSetDescription("🔮 Reading your face"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)

	orch := pipeline.New(pipeline.Config{
		Client: analysis.NewClient(apiBase),
		Store:  DB,
		Backup: sess,
		Events: events,
		Retry:  pipeline.RetryPolicy{MaxAttempts: opts.Retries, Backoff: backoff},
	})
	orch.OnStage = func(s pipeline.Stage) {
		switch s {
		case pipeline.StageExtracting:
			bar.Describe("🔮 Reading facial features")
		case pipeline.StageMiniAnalyzing:
			_ = bar.Add(1)
			bar.Describe("🔮 Consulting the reader")
		case pipeline.StageScoring:
			_ = bar.Add(1)
			bar.Describe("🔮 Scoring your fortune")
		case pipeline.StagePersisting:
			_ = bar.Add(1)
			bar.Describe("💾 Saving the report")
		case pipeline.StageCompleted:
			_ = bar.Add(1)
		}
	}

	// 4. Run to a terminal outcome
	report, err := orch.Run(ctx, photo)
	if err != nil {
		fmt.Fprintln(os.Stderr)
		var failure *pipeline.Failure
		if errors.As(err, &failure) {
			switch failure.Reason {
			case types.ReasonMissingInput:
				fmt.Fprintln(os.Stderr, "📷 No photo to analyze. Start again with: facefortune analyze <photo>")
				return err
			case types.ReasonNoFace:
				utils.ShowError("No face was recognized", failure.Err)
				fmt.Fprintln(os.Stderr, "🏠 Try again with a clearer, front-facing photo.")
				return err
			}
		}
		utils.ShowError("Analysis failed", err)
		fmt.Fprintln(os.Stderr, "🏠 Returning to the start. No report was created.")
		return err
	}

	_ = bar.Finish()

	// 5. Hand off to the presentation flow
	fmt.Fprintf(os.Stderr, "\n✅ Analysis complete. Report %s\n", report.ID)
	fmt.Fprintf(os.Stderr, "🔗 %s\n", gate.QRLink(cfg.ResultBase, report.ID))
	fmt.Fprintf(os.Stderr, "➡️  Next: facefortune qr %s\n", report.ID)
	return nil
}

// ensureVerified runs the static passcode gate, persisting the flag so it is
// asked at most once per install.
func ensureVerified() error {
	if local.Verified() {
		return nil
	}

	fmt.Fprint(os.Stderr, "🔒 Passcode: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read passcode: %w", err)
	}
	if strings.TrimSpace(line) != cfg.Passcode {
		return errors.New("wrong passcode")
	}
	return local.SetVerified(true)
}

// validateAnalyzeFlags ensures all CLI arguments are valid before any remote call.
func validateAnalyzeFlags(opts *Options) (time.Duration, error) {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	backoff, err := time.ParseDuration(opts.RetryBackoff)
	if err != nil {
		return 0, fmt.Errorf("invalid retry-backoff format (use '2s', '500ms'): %w", err)
	}
	if backoff < 0 {
		backoff = 0
	}
	return backoff, nil
}
