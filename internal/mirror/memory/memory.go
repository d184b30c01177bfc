// Package memory is an in-process mirror, used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pocketbook/internal/core"
)

type Mirror struct {
	mu        sync.Mutex
	rows      []core.Expense
	snapshots [][]byte
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, e)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) WriteSnapshot(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, append([]byte(nil), payload...))
	return nil
}

// Rows returns a copy of the mirrored expenses.
func (m *Mirror) Rows() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Expense(nil), m.rows...)
}

// Snapshots returns how many snapshots were written.
func (m *Mirror) Snapshots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}
