package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"facefortune/internal/config"
	"facefortune/internal/session"
	"facefortune/internal/store"
	"facefortune/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options holds shared configuration for the analyze and presentation commands
type Options struct {
	APIBase      string
	Retries      int
	RetryBackoff string
	SkipGate     bool
	Hold         string
	Output       string
}

var (
	// DB is the global report store shared by subcommands
	DB *store.Store
	// dbURL is the connection string
	dbURL string

	cfgPath string
	verbose bool

	cfg    config.Config
	local  *session.Local
	logger *zap.Logger
	events telemetry.Sink
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "facefortune",
	Short:   "Face Fortune — wealth reading analysis engine",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.ApplyEnv()

		// Logger first, so every later failure path can emit events
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		dir, err := session.DefaultLocalDir()
		if err != nil {
			return fmt.Errorf("failed to locate local state: %w", err)
		}
		local, err = session.OpenLocal(dir)
		if err != nil {
			return fmt.Errorf("failed to open local state: %w", err)
		}
		events = telemetry.NewLogger(logger, local.DistinctID())

		// If no flag was provided, try the config file, then the environment
		if dbURL == "" {
			dbURL = cfg.DatabaseURL
		}
		if dbURL == "" {
			if host := os.Getenv("POSTGRES_HOST"); host != "" {
				user := os.Getenv("POSTGRES_USER")
				pass := os.Getenv("POSTGRES_PASSWORD")
				name := os.Getenv("POSTGRES_DB")
				port := os.Getenv("POSTGRES_PORT")
				if port == "" {
					port = "5432"
				}
				dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
			} else {
				// Fallback to local default if no env vars are present
				dbURL = "postgres://localhost:5432/facefortune"
			}
		}

		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.New(cmd.Context(), dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string (default: postgres://localhost:5432/facefortune)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (default: ~/.facefortune/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
