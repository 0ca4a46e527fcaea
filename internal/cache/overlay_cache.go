package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OverlayCache stores translation overlays keyed by (survey version, language).
// An overlay maps canonical English source strings to their translations.
// Content is deterministically derived from the version, so racing writers
// are harmless; last writer wins.
type OverlayCache interface {
	Set(ctx context.Context, versionID, lang string, overlay map[string]string) error
	Get(ctx context.Context, versionID, lang string) (map[string]string, error)
}

type overlayCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOverlayCache creates a new overlay cache
func NewOverlayCache(client *redis.Client) OverlayCache {
	return &overlayCache{
		client: client,
		ttl:    7 * 24 * time.Hour, // published versions are immutable, so long TTLs are safe
	}
}

func (c *overlayCache) key(versionID, lang string) string {
	return fmt.Sprintf("overlay:%s:%s", versionID, lang)
}

func (c *overlayCache) Set(ctx context.Context, versionID, lang string, overlay map[string]string) error {
	data, err := json.Marshal(overlay)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(versionID, lang), data, c.ttl).Err()
}

// Get returns nil with no error on a cache miss
func (c *overlayCache) Get(ctx context.Context, versionID, lang string) (map[string]string, error) {
	data, err := c.client.Get(ctx, c.key(versionID, lang)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var overlay map[string]string
	if err := json.Unmarshal([]byte(data), &overlay); err != nil {
		return nil, err
	}
	return overlay, nil
}
