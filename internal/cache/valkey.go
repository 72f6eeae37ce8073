// Package cache provides the Valkey (Redis-compatible) client and the
// per-shop category snapshot cache.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectValkey creates a Valkey client on logical database db and
// verifies the connection with a ping. Sessions and category snapshots
// of one deployment share that database.
func ConnectValkey(ctx context.Context, host, port, password string, db int) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%s", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s db %d: %w", addr, db, err)
	}

	slog.Info("valkey connected", "addr", addr, "db", db)
	return client, nil
}
