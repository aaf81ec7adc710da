package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"facefortune/internal/types"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestReportPersistence runs the full report lifecycle against a real
// Postgres instance: create, fetch, list, reset.
func TestReportPersistence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Explicitly check for Docker availability and fail hard if missing
	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	// Start Postgres Container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("facefortune_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, _ := pgContainer.ConnectionString(ctx, "sslmode=disable")
	db, err := New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close(ctx)

	draft := types.ReportDraft{
		Features: "calm eyes, wide brow",
		Mini:     types.MiniAnalysis{Detail1: "## One", Detail2: "## Two", Detail3: "## Three"},
		Score:    types.ScoreAnalysis{Score: 82, Summary: `"steady fortune"`},
	}

	// Create: the store assigns identifier and timestamp
	created, err := db.CreateReport(ctx, draft)
	if err != nil {
		t.Fatalf("Failed to create report: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected a store-assigned identifier")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("Expected a server-side creation timestamp")
	}
	if age := time.Since(created.CreatedAt); age < 0 || age > time.Minute {
		t.Errorf("Creation timestamp implausible: %v", created.CreatedAt)
	}

	// Fetch: the stored document must match what went in
	got, err := db.GetReport(ctx, created.ID)
	if err != nil {
		t.Fatalf("Failed to fetch report: %v", err)
	}
	if got.Features != draft.Features || got.Mini != draft.Mini || got.Score != draft.Score {
		t.Errorf("Round trip mismatch. Got %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("Timestamp drift between create and fetch: %v vs %v", got.CreatedAt, created.CreatedAt)
	}

	// Unknown identifiers surface ErrNotFound
	if _, err := db.GetReport(ctx, "no-such-report"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// List: newest first
	second, err := db.CreateReport(ctx, draft)
	if err != nil {
		t.Fatal(err)
	}
	reports, err := db.ListReports(ctx)
	if err != nil {
		t.Fatalf("Failed to list reports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("Expected 2 reports, got %d", len(reports))
	}
	if reports[0].ID != second.ID {
		t.Errorf("Expected newest report first, got %s", reports[0].ID)
	}

	// Reset drops the table; a fresh connection re-migrates it empty
	if err := db.Reset(ctx); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	db.Close(ctx)

	db, err = New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to reconnect after reset: %v", err)
	}
	reports, err = db.ListReports(ctx)
	if err != nil {
		t.Fatalf("Failed to list after reset: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("Expected empty store after reset, got %d reports", len(reports))
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
