package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facefortune/internal/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a report identifier does not resolve.
var ErrNotFound = errors.New("report not found")

// Store manages the PostgreSQL connection holding the reports collection.
type Store struct {
	conn *pgx.Conn
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the reports table if it doesn't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			features TEXT NOT NULL,
			detail1 TEXT NOT NULL,
			detail2 TEXT NOT NULL,
			detail3 TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			summary TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS reports_created_at_idx ON reports (created_at);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// CreateReport persists a merged analysis result as a new report document.
// The store assigns the identifier and the server-side creation timestamp.
// Reports are immutable once written.
func (s *Store) CreateReport(ctx context.Context, draft types.ReportDraft) (types.Report, error) {
	id := uuid.NewString()

	var createdAt time.Time
	err := s.conn.QueryRow(ctx, `
		INSERT INTO reports (id, features, detail1, detail2, detail3, score, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, id, string(draft.Features),
		draft.Mini.Detail1, draft.Mini.Detail2, draft.Mini.Detail3,
		draft.Score.Score, draft.Score.Summary,
	).Scan(&createdAt)
	if err != nil {
		return types.Report{}, fmt.Errorf("failed to persist report: %w", err)
	}

	return types.Report{
		ID:        id,
		Features:  draft.Features,
		Mini:      draft.Mini,
		Score:     draft.Score,
		CreatedAt: createdAt,
	}, nil
}

// GetReport fetches a report by identifier. Lookups are read-only.
func (s *Store) GetReport(ctx context.Context, id string) (types.Report, error) {
	var r types.Report
	var features string
	err := s.conn.QueryRow(ctx, `
		SELECT id, features, detail1, detail2, detail3, score, summary, created_at
		FROM reports WHERE id = $1
	`, id).Scan(&r.ID, &features,
		&r.Mini.Detail1, &r.Mini.Detail2, &r.Mini.Detail3,
		&r.Score.Score, &r.Score.Summary, &r.CreatedAt)
	if err == pgx.ErrNoRows {
		return types.Report{}, ErrNotFound
	}
	if err != nil {
		return types.Report{}, err
	}
	r.Features = types.FeatureSet(features)
	return r, nil
}

// ListReports returns all stored reports, newest first.
func (s *Store) ListReports(ctx context.Context) ([]types.Report, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, features, detail1, detail2, detail3, score, summary, created_at
		FROM reports ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []types.Report
	for rows.Next() {
		var r types.Report
		var features string
		if err := rows.Scan(&r.ID, &features,
			&r.Mini.Detail1, &r.Mini.Detail2, &r.Mini.Detail3,
			&r.Score.Score, &r.Score.Summary, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Features = types.FeatureSet(features)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// Reset drops the reports table to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `DROP TABLE IF EXISTS reports CASCADE;`)
	return err
}
