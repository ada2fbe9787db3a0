package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"inventory/internal/cache"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/validation"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10

	productsNamespace = "products"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	schema    *validation.ProductSchema
	cache     cache.Store
	cacheTTL  time.Duration
	publisher EventPublisher
	logger    *slog.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, opts ...ProductServiceOption) *ProductService {
	s := &ProductService{
		repo:      repo,
		schema:    validation.NewProductSchema(),
		cache:     cache.NewNoopStore(),
		publisher: noopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseID parses a path id. Anything but a non-negative integer is ErrInvalidID.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

// ParsePagination turns raw query values into a page and limit. Missing or
// unparseable values fall back to the defaults; everything is clamped to at
// least 1. There is no upper bound on limit.
func ParsePagination(rawPage, rawLimit string) (page, limit int) {
	return parsePositive(rawPage, DefaultPage), parsePositive(rawLimit, DefaultLimit)
}

func parsePositive(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return max(n, 1)
}

func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// CreateProduct validates payload and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, payload map[string]any) (*models.Product, error) {
	input, violations := s.schema.Parse(payload)
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if err := s.ensureArticleFree(ctx, input.Article); err != nil {
		return nil, err
	}

	product := &models.Product{}
	input.Apply(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, writeError(err)
	}

	s.afterWrite(ctx, models.ProductCreated, product.ID, product)
	return product, nil
}

// GetProduct retrieves a single product by its raw path id.
func (s *ProductService) GetProduct(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ListProducts returns one page of products ordered by id together with the
// total number of products.
func (s *ProductService) ListProducts(ctx context.Context, rawPage, rawLimit string) (*models.ProductPage, error) {
	page, limit := ParsePagination(rawPage, rawLimit)

	// The generation is read before the store so a write that lands while the
	// page is loading invalidates it.
	key := fmt.Sprintf("page=%d&limit=%d", page, limit)
	gen, err := s.cache.Generation(ctx, productsNamespace)
	if err != nil {
		s.logger.WarnContext(ctx, "product list cache generation read failed", "error", err)
		return s.listPage(ctx, page, limit)
	}
	key = cache.VersionedKey(gen, key)

	if cached, ok := s.cachedPage(ctx, key); ok {
		return cached, nil
	}

	result, err := s.listPage(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	s.storePage(ctx, key, result)
	return result, nil
}

func (s *ProductService) listPage(ctx context.Context, page, limit int) (*models.ProductPage, error) {
	products, total, err := s.repo.ListPage(ctx, pageOffset(page, limit), limit)
	if err != nil {
		return nil, err
	}
	return &models.ProductPage{Data: products, Total: total}, nil
}

// UpdateProduct replaces name, article, price and quantity of an existing
// product. The id is checked before the payload, the payload before the
// article.
func (s *ProductService) UpdateProduct(ctx context.Context, rawID string, payload map[string]any) (*models.Product, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	input, violations := s.schema.Parse(payload)
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if err := s.ensureArticleFree(ctx, input.Article, id); err != nil {
		return nil, err
	}

	product, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, writeError(err)
	}

	s.afterWrite(ctx, models.ProductUpdated, product.ID, product)
	return product, nil
}

// DeleteProduct permanently removes a product. Deleting a missing product
// returns ErrProductNotFound.
func (s *ProductService) DeleteProduct(ctx context.Context, rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.afterWrite(ctx, models.ProductDeleted, id, nil)
	return nil
}

// ensureArticleFree is a pre-check for a friendly error; the unique index
// still decides races, see writeError.
func (s *ProductService) ensureArticleFree(ctx context.Context, article string, excludeIDs ...uint) error {
	_, err := s.repo.GetByArticle(ctx, article, excludeIDs...)
	switch {
	case err == nil:
		return articleConflict()
	case errors.Is(err, repositories.ErrProductNotFound):
		return nil
	default:
		return err
	}
}

func writeError(err error) error {
	if errors.Is(err, repositories.ErrDuplicateArticle) {
		return articleConflict()
	}
	return err
}

func (s *ProductService) afterWrite(ctx context.Context, eventType models.ProductEventType, id uint, product *models.Product) {
	if err := s.cache.InvalidateNamespace(ctx, productsNamespace); err != nil {
		s.logger.WarnContext(ctx, "product list cache invalidation failed", "error", err)
	}

	event := models.ProductEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		ProductID:  id,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "product event publish failed", "type", eventType, "product_id", id, "error", err)
	}
}

func (s *ProductService) cachedPage(ctx context.Context, key string) (*models.ProductPage, bool) {
	raw, ok, err := s.cache.Get(ctx, productsNamespace, key)
	if err != nil {
		s.logger.WarnContext(ctx, "product list cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var page models.ProductPage
	if err := json.Unmarshal(raw, &page); err != nil {
		s.logger.WarnContext(ctx, "product list cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return &page, true
}

func (s *ProductService) storePage(ctx context.Context, key string, page *models.ProductPage) {
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, productsNamespace, key, raw, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "product list cache write failed", "key", key, "error", err)
	}
}
