package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"
	"github.com/sonnes/lekhak/core"
)

// KeyPrefix namespaces the Redis list that holds a session's turns.
const KeyPrefix = "history:"

// Redis stores each session as a list of JSON-encoded turns.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Append(ctx context.Context, session string, turn core.ChatTurn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	if err := r.client.WithContext(ctx).RPush(KeyPrefix+session, data).Err(); err != nil {
		return fmt.Errorf("append history %s: %w", session, err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context, session string) ([]core.ChatTurn, error) {
	vals, err := r.client.WithContext(ctx).LRange(KeyPrefix+session, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list history %s: %w", session, err)
	}
	turns := make([]core.ChatTurn, 0, len(vals))
	for _, v := range vals {
		var turn core.ChatTurn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", session, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *Redis) Clear(ctx context.Context, session string) error {
	if err := r.client.WithContext(ctx).Del(KeyPrefix + session).Err(); err != nil {
		return fmt.Errorf("clear history %s: %w", session, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
