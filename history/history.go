// Package history keeps the chat turns of each session so a conversation can
// be listed back without parsing its transcript.
package history

import (
	"context"
	"fmt"

	"github.com/sonnes/lekhak/core"
)

// Store records chat turns per session. Turns are returned in append order.
type Store interface {
	Append(ctx context.Context, session string, turn core.ChatTurn) error
	List(ctx context.Context, session string) ([]core.ChatTurn, error)
	Clear(ctx context.Context, session string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config selects and configures a history backend.
type Config struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string
}

// Open creates the Store named by cfg.Backend. An empty backend is memory.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendRedis:
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
