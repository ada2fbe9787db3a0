package database

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"testing"

	"inventory/internal/config"
	"inventory/internal/models"
	"inventory/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var articlePattern = regexp.MustCompile(`^[A-Z]{2}-\d{3}$`)

func TestSeed_ReplacesTableContents(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	require.NoError(t, repo.Create(t.Context(), &models.Product{Name: "old", Article: "OLD", Price: 1}))

	require.NoError(t, Seed(t.Context(), repo, DefaultSeedCount, rand.New(rand.NewPCG(1, 2))))

	products, total, err := repo.ListPage(t.Context(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultSeedCount), total)

	seen := map[string]bool{}
	for i, p := range products {
		assert.Regexp(t, articlePattern, p.Article)
		assert.False(t, seen[p.Article], "article %s repeated", p.Article)
		seen[p.Article] = true
		assert.GreaterOrEqual(t, p.Price, 1.0)
		assert.LessOrEqual(t, p.Price, 1000.0)
		assert.GreaterOrEqual(t, p.Quantity, 1.0)
		assert.LessOrEqual(t, p.Quantity, 100.0)
		if i == 0 {
			assert.Equal(t, "TEST-000", p.Name)
		}
	}
	assert.NotContains(t, seen, "OLD")
}

func TestSeed_OnSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: "file::memory:"}, discardLogger())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	repo := repositories.NewGORMProductRepository(db)
	require.NoError(t, Seed(t.Context(), repo, 30, nil))

	_, total, err := repo.ListPage(t.Context(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(30), total)
}

func TestOpen_RejectsMemoryDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: config.DriverMemory}, discardLogger())
	assert.Error(t, err)
}
