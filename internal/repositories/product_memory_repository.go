package repositories

import (
	"context"
	"slices"
	"sync"
	"time"

	"inventory/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// It keeps the same article uniqueness guarantee as the database index.
type MemoryProductRepository struct {
	products map[uint]models.Product
	articles map[string]uint
	nextID   uint
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[uint]models.Product),
		articles: make(map[string]uint),
		nextID:   1,
	}
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// GetByArticle returns the product holding article unless its ID is excluded.
func (r *MemoryProductRepository) GetByArticle(_ context.Context, article string, excludeIDs ...uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.articles[article]
	if !ok || slices.Contains(excludeIDs, id) {
		return nil, ErrProductNotFound
	}
	product := r.products[id]
	return &product, nil
}

// ListPage returns one page of products ordered by ID.
func (r *MemoryProductRepository) ListPage(_ context.Context, offset, limit int) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	page := []models.Product{}
	for i := offset; i >= 0 && i < len(ids) && len(page) < limit; i++ {
		page = append(page, r.products[ids[i]])
	}
	return page, int64(len(ids)), nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.articles[product.Article]; taken {
		return ErrDuplicateArticle
	}
	product.ID = r.nextID
	product.CreatedAt = time.Now().UTC()
	r.nextID++
	r.products[product.ID] = *product
	r.articles[product.Article] = product.ID
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, id uint, input models.ProductInput) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if owner, taken := r.articles[input.Article]; taken && owner != id {
		return nil, ErrDuplicateArticle
	}
	delete(r.articles, product.Article)
	input.Apply(&product)
	r.products[id] = product
	r.articles[product.Article] = id
	return &product, nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	delete(r.articles, product.Article)
	delete(r.products, id)
	return nil
}

// DeleteAll removes every product. IDs are not reused afterwards.
func (r *MemoryProductRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = make(map[uint]models.Product)
	r.articles = make(map[string]uint)
	return nil
}
