package repositories

import (
	"context"
	"errors"
	"fmt"

	"inventory/internal/models"
)

var (
	// ErrProductNotFound is returned when no product matches the lookup.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateArticle is returned when a write would break article uniqueness.
	ErrDuplicateArticle = errors.New("product article already exists")
)

// StorageError wraps any failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to %s product: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// GetByArticle finds the product holding article, skipping any of excludeIDs.
	GetByArticle(ctx context.Context, article string, excludeIDs ...uint) (*models.Product, error)
	// ListPage returns up to limit products ordered by id ascending starting
	// at offset, plus the number of rows in the whole table.
	ListPage(ctx context.Context, offset, limit int) ([]models.Product, int64, error)
	// Create assigns ID and CreatedAt on product.
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
}
