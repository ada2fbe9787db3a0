package services

import (
	"context"
	"log/slog"
	"time"

	"inventory/internal/cache"
	"inventory/internal/models"
)

// EventPublisher receives product change events after they are stored.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishProductEvent(context.Context, models.ProductEvent) error { return nil }

// ProductServiceOption configures optional ProductService collaborators.
type ProductServiceOption func(*ProductService)

// WithListCache caches list pages in store for ttl. Every successful write
// drops all cached pages.
func WithListCache(store cache.Store, ttl time.Duration) ProductServiceOption {
	return func(s *ProductService) {
		s.cache = store
		s.cacheTTL = ttl
	}
}

// WithEventPublisher publishes a ProductEvent after every successful write.
func WithEventPublisher(publisher EventPublisher) ProductServiceOption {
	return func(s *ProductService) {
		s.publisher = publisher
	}
}

// WithLogger sets the logger for cache and event failures. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ProductServiceOption {
	return func(s *ProductService) {
		s.logger = logger
	}
}
