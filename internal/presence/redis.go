package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mirror keeps a best-effort copy of presence in redis so other services
// and instances can route. Keys: <prefix>:presence:<userID> -> json
// {status,last_seen}, expiring after ttl.
type Mirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewMirror(client *redis.Client, prefix string, ttl time.Duration) *Mirror {
	return &Mirror{client: client, prefix: prefix, ttl: ttl}
}

func (m *Mirror) key(userID string) string {
	return fmt.Sprintf("%s:presence:%s", m.prefix, userID)
}

func (m *Mirror) set(ctx context.Context, userID, status string, ttl time.Duration) error {
	b, _ := json.Marshal(map[string]any{"status": status, "last_seen": time.Now().Unix()})
	return m.client.Set(ctx, m.key(userID), b, ttl).Err()
}

func (m *Mirror) SetOnline(ctx context.Context, userID string) error {
	return m.set(ctx, userID, "online", m.ttl)
}

func (m *Mirror) SetOffline(ctx context.Context, userID string) error {
	return m.set(ctx, userID, "offline", 0)
}

// Publish fans a payload out to sibling instances.
func (m *Mirror) Publish(ctx context.Context, channel string, payload []byte) error {
	return m.client.Publish(ctx, m.prefix+":"+channel, payload).Err()
}
