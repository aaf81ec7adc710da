package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"facefortune/internal/types"

	"github.com/google/uuid"
)

// MemStore is an in-memory reports collection behind the same surface as
// Store. It backs unit tests and store-less development runs. Clock is
// injectable so expiry scenarios can pin creation time.
type MemStore struct {
	mu      sync.Mutex
	reports map[string]types.Report

	Clock func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		reports: make(map[string]types.Report),
		Clock:   time.Now,
	}
}

// CreateReport assigns a fresh identifier and timestamp, mirroring the
// durable store's create semantics.
func (m *MemStore) CreateReport(_ context.Context, draft types.ReportDraft) (types.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := types.Report{
		ID:        uuid.NewString(),
		Features:  draft.Features,
		Mini:      draft.Mini,
		Score:     draft.Score,
		CreatedAt: m.Clock().UTC(),
	}
	m.reports[r.ID] = r
	return r, nil
}

// GetReport fetches a report by identifier.
func (m *MemStore) GetReport(_ context.Context, id string) (types.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return types.Report{}, ErrNotFound
	}
	return r, nil
}

// ListReports returns all stored reports, newest first.
func (m *MemStore) ListReports(_ context.Context) ([]types.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reports := make([]types.Report, 0, len(m.reports))
	for _, r := range m.reports {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Reset clears all stored reports.
func (m *MemStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = make(map[string]types.Report)
	return nil
}
