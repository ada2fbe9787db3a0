package database

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"inventory/internal/models"
	"inventory/internal/repositories"
)

// DefaultSeedCount is the number of products INITIALIZE_DB inserts.
const DefaultSeedCount = 100

const maxArticleAttempts = 20

// Seed wipes the products table and inserts count generated products.
func Seed(ctx context.Context, repo repositories.ProductRepository, count int, rnd *rand.Rand) error {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if err := repo.DeleteAll(ctx); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		if err := seedOne(ctx, repo, i, rnd); err != nil {
			return err
		}
	}
	return nil
}

func seedOne(ctx context.Context, repo repositories.ProductRepository, i int, rnd *rand.Rand) error {
	for attempt := 0; attempt < maxArticleAttempts; attempt++ {
		product := &models.Product{
			Name:     fmt.Sprintf("TEST-%03d", i),
			Article:  randomArticle(rnd),
			Price:    float64(rnd.IntN(1000) + 1),
			Quantity: float64(rnd.IntN(100) + 1),
		}
		err := repo.Create(ctx, product)
		if errors.Is(err, repositories.ErrDuplicateArticle) {
			continue
		}
		return err
	}
	return fmt.Errorf("no free article after %d attempts", maxArticleAttempts)
}

// randomArticle returns two uppercase letters, a dash and three digits.
func randomArticle(rnd *rand.Rand) string {
	return fmt.Sprintf("%c%c-%03d",
		'A'+rune(rnd.IntN(26)),
		'A'+rune(rnd.IntN(26)),
		rnd.IntN(1000))
}
