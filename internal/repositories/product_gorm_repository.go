package repositories

import (
	"context"
	"errors"
	"strings"

	"inventory/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translateError("get", err)
	}
	return &product, nil
}

// GetByArticle retrieves the product with the given article.
func (r *GORMProductRepository) GetByArticle(ctx context.Context, article string, excludeIDs ...uint) (*models.Product, error) {
	query := r.db.WithContext(ctx).Where("article = ?", article)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	var product models.Product
	if err := query.First(&product).Error; err != nil {
		return nil, translateError("get", err)
	}
	return &product, nil
}

// ListPage retrieves one page of products and the total row count.
func (r *GORMProductRepository) ListPage(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, translateError("count", err)
	}
	products := []models.Product{}
	if err := r.db.WithContext(ctx).Order("id asc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, translateError("list", err)
	}
	return products, total, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translateError("create", err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing product and returns the stored row.
func (r *GORMProductRepository) Update(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A map is used so that a zero quantity is written too.
		res := tx.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]any{
			"name":     input.Name,
			"article":  input.Article,
			"price":    input.Price,
			"quantity": input.Quantity,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return tx.First(&product, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError("update", err)
	}
	return &product, nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return translateError("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteAll removes every product.
func (r *GORMProductRepository) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error
	if err != nil {
		return translateError("clear", err)
	}
	return nil
}

func translateError(op string, err error) error {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrProductNotFound
	case isDuplicateKey(err):
		return ErrDuplicateArticle
	default:
		return &StorageError{Op: op, Err: err}
	}
}

// isDuplicateKey reports unique index violations. Drivers without error
// translation are matched on their message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
