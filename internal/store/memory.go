package store

import (
	"context"
	"sync"

	"github.com/JonMunkholm/cohort/internal/core"
)

// Memory keeps the last import in process. It stores the encoded form so
// callers never share row slices with the store.
type Memory struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveLastImport(ctx context.Context, snap core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := core.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadLastImport(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()

	if data == nil {
		return nil, core.ErrNoImport
	}
	return core.DecodeSnapshot(data)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
