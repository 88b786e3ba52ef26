// Package cache is a Redis read-through cache for stored recipes, keyed by
// recipe ID. Disabled instances are inert: every call is a miss or a no-op.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"
)

type Service struct {
	client *redis.Client
	cfg    *config.StorageConfig
}

func NewService(cfg *config.StorageConfig) (*Service, error) {
	if !cfg.RedisEnabled {
		return &Service{cfg: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{client: client, cfg: cfg}, nil
}

// Get returns the cached recipe for id, or nil on a miss.
func (s *Service) Get(ctx context.Context, id string) (*recipe.Recipe, error) {
	if s.client == nil {
		return nil, nil
	}

	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached recipe: %w", err)
	}

	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached recipe: %w", err)
	}
	return &r, nil
}

func (s *Service) Set(ctx context.Context, r *recipe.Recipe) error {
	if s.client == nil || r == nil || r.ID == "" {
		return nil
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	if err := s.client.Set(ctx, key(r.ID), data, s.cfg.RedisTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache recipe: %w", err)
	}
	return nil
}

func (s *Service) Invalidate(ctx context.Context, id string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, key(id)).Err()
}

func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func key(id string) string {
	return "recipe:" + id
}
