package history

import (
	"context"
	"sync"

	"github.com/sonnes/lekhak/core"
)

// Memory is a process-local Store. Its contents are lost on restart.
type Memory struct {
	mu    sync.RWMutex
	turns map[string][]core.ChatTurn
}

func NewMemory() *Memory {
	return &Memory{turns: make(map[string][]core.ChatTurn)}
}

func (m *Memory) Append(_ context.Context, session string, turn core.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[session] = append(m.turns[session], turn)
	return nil
}

func (m *Memory) List(_ context.Context, session string) ([]core.ChatTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.turns[session]
	out := make([]core.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *Memory) Clear(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, session)
	return nil
}

func (m *Memory) Close() error { return nil }
