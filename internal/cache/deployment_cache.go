package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/richn23/student-voice/internal/model"
)

// DeploymentCache caches token-to-deployment lookups so every runner load
// does not hit the document store.
type DeploymentCache interface {
	Set(ctx context.Context, deployment *model.Deployment) error
	Get(ctx context.Context, token string) (*model.Deployment, error)
	Delete(ctx context.Context, token string) error
}

type deploymentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeploymentCache creates a new deployment cache
func NewDeploymentCache(client *redis.Client) DeploymentCache {
	return &deploymentCache{
		client: client,
		ttl:    10 * time.Minute, // short, so pausing a deployment takes effect quickly
	}
}

func (c *deploymentCache) key(token string) string {
	return fmt.Sprintf("deployment:%s", token)
}

func (c *deploymentCache) Set(ctx context.Context, deployment *model.Deployment) error {
	data, err := json.Marshal(deployment)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(deployment.Token), data, c.ttl).Err()
}

// Get returns nil with no error on a cache miss
func (c *deploymentCache) Get(ctx context.Context, token string) (*model.Deployment, error) {
	data, err := c.client.Get(ctx, c.key(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var deployment model.Deployment
	if err := json.Unmarshal([]byte(data), &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (c *deploymentCache) Delete(ctx context.Context, token string) error {
	return c.client.Del(ctx, c.key(token)).Err()
}
