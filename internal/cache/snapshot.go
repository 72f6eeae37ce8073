// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// snapshot.go caches each shop's category snapshot in Valkey so the tree,
// stats and detail endpoints skip the database between mutations. Every
// accepted mutation invalidates the shop's entry.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storefront/internal/models"
)

const (
	// snapshotKeyPrefix is the Valkey key prefix for cached snapshots.
	snapshotKeyPrefix = "snapshot:"

	// DefaultSnapshotTTL is how long a snapshot stays cached.
	DefaultSnapshotTTL = 5 * time.Minute
)

// SnapshotCache manages per-shop category snapshots in Valkey.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a snapshot cache backed by the given Valkey client.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl == 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

// SnapshotKey returns the cache key of a shop's snapshot.
func SnapshotKey(shopID uuid.UUID) string {
	return snapshotKeyPrefix + shopID.String()
}

// Get returns the cached snapshot of a shop. Errors count as a miss.
func (sc *SnapshotCache) Get(ctx context.Context, shopID uuid.UUID) ([]models.Category, bool) {
	val, err := sc.client.Get(ctx, SnapshotKey(shopID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("snapshot cache get error", "shop_id", shopID, "error", err)
		return nil, false
	}

	var snap []models.Category
	if err := json.Unmarshal(val, &snap); err != nil {
		slog.Warn("snapshot cache decode error", "shop_id", shopID, "error", err)
		return nil, false
	}
	slog.Debug("snapshot cache hit", "shop_id", shopID)
	return snap, true
}

// Set stores a shop's snapshot with the configured TTL.
func (sc *SnapshotCache) Set(ctx context.Context, shopID uuid.UUID, snap []models.Category) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("snapshot cache encode error", "shop_id", shopID, "error", err)
		return
	}
	if err := sc.client.Set(ctx, SnapshotKey(shopID), data, sc.ttl).Err(); err != nil {
		slog.Warn("snapshot cache set error", "shop_id", shopID, "error", err)
	}
}

// Invalidate removes a shop's snapshot.
func (sc *SnapshotCache) Invalidate(ctx context.Context, shopID uuid.UUID) {
	if err := sc.client.Del(ctx, SnapshotKey(shopID)).Err(); err != nil {
		slog.Warn("snapshot cache invalidate error", "shop_id", shopID, "error", err)
		return
	}
	slog.Debug("snapshot cache invalidated", "shop_id", shopID)
}

// InvalidateAll removes every cached snapshot by scanning for the prefix.
// Used after migrations, since the stored shape may have changed.
func (sc *SnapshotCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := sc.client.Scan(ctx, cursor, snapshotKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("snapshot cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := sc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("snapshot cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("snapshot cache fully cleared", "deleted", deleted)
	}
}
