package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/housing/internal/server/repositories/memory"
	"github.com/dmitrijs2005/housing/internal/timex"
)

// MemoryRepositoryManager keeps everything in process memory. Units of work
// are serialized and a failed one is undone by restoring a snapshot taken
// before it started. Calls made outside InTx wait for a running unit of work
// to finish, so a rollback never discards them.
type MemoryRepositoryManager struct {
	*memory.Store // gated on txMu

	data *memory.Store
	txMu sync.Mutex
}

func NewMemoryRepositoryManager(now timex.Clock) *MemoryRepositoryManager {
	m := &MemoryRepositoryManager{data: memory.NewStore(now)}
	m.Store = m.data.WithGate(&m.txMu)
	return m
}

// InTx must not be reentered from fn through m itself: fn gets the store to
// use as its argument.
func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := m.data.Snapshot()
	defer func() {
		if p := recover(); p != nil {
			m.data.Restore(snap)
			panic(p)
		}
	}()

	if err := fn(ctx, m.data); err != nil {
		m.data.Restore(snap)
		return err
	}
	return nil
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Close() error                      { return nil }
