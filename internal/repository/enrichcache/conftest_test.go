package enrichcache

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
)

type mockLookup struct {
	mu      sync.Mutex
	calls   map[string]int
	records map[string]enrichment.Record
	errs    map[string]error
	gate    chan struct{}
	entered chan struct{}
	// ctxErrs and deadlines record the context each provider call saw after the gate.
	ctxErrs   []error
	deadlines []bool
}

func newMockLookup() *mockLookup {
	return &mockLookup{
		calls:   map[string]int{},
		records: map[string]enrichment.Record{},
		errs:    map[string]error{},
	}
}

func (m *mockLookup) Lookup(ctx context.Context, id string) (enrichment.Record, error) {
	if m.entered != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
	}
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[id]++
	_, hasDeadline := ctx.Deadline()
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	m.deadlines = append(m.deadlines, hasDeadline)
	if err := m.errs[id]; err != nil {
		return enrichment.Record{}, err
	}
	return m.records[id], nil
}

func (m *mockLookup) callCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

func newTestCache(t *testing.T, inner *mockLookup, size int) *Cache {
	t.Helper()
	c, err := New(inner, size, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
