package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"inventory/internal/cache"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ProductEvent
	err    error
}

func (p *recordingPublisher) PublishProductEvent(_ context.Context, event models.ProductEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []models.ProductEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.ProductEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func TestProductService_CreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository())

	created, err := service.CreateProduct(ctx, payload("Laptop", "AB-001", 1200, 3))
	require.NoError(t, err)

	fetched, err := service.GetProduct(ctx, fmt.Sprint(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestProductService_ConflictRegardlessOfOtherFields(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository())

	_, err := service.CreateProduct(ctx, payload("Laptop", "AB-001", 1200, 3))
	require.NoError(t, err)

	_, err = service.CreateProduct(ctx, payload("Another", "AB-001", 1, 0))
	var conflict *services.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "article", conflict.Field)
}

func TestProductService_DeleteIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository())

	created, err := service.CreateProduct(ctx, payload("Laptop", "AB-001", 1200, 3))
	require.NoError(t, err)
	id := fmt.Sprint(created.ID)

	require.NoError(t, service.DeleteProduct(ctx, id))

	_, err = service.GetProduct(ctx, id)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.ErrorIs(t, service.DeleteProduct(ctx, id), services.ErrProductNotFound)
}

func TestProductService_ListFirstPageOfHundred(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository())

	var firstID uint
	for i := 0; i < 100; i++ {
		p, err := service.CreateProduct(ctx, payload(fmt.Sprintf("TEST-%03d", i), fmt.Sprintf("AR-%03d", i), 10, 1))
		require.NoError(t, err)
		if i == 0 {
			firstID = p.ID
		}
	}

	page, err := service.ListProducts(ctx, "1", "10")
	require.NoError(t, err)
	assert.EqualValues(t, 100, page.Total)
	require.Len(t, page.Data, 10)
	assert.Equal(t, firstID, page.Data[0].ID)

	last, err := service.ListProducts(ctx, "10", "10")
	require.NoError(t, err)
	assert.Len(t, last.Data, 10)

	beyond, err := service.ListProducts(ctx, "11", "10")
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.EqualValues(t, 100, beyond.Total)
}

func TestProductService_WritesInvalidateListCacheAndPublish(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}
	service := services.NewProductService(
		repositories.NewMemoryProductRepository(),
		services.WithListCache(cache.NewMemoryStore(), time.Minute),
		services.WithEventPublisher(publisher),
	)

	first, err := service.CreateProduct(ctx, payload("Laptop", "AB-001", 1200, 3))
	require.NoError(t, err)

	page, err := service.ListProducts(ctx, "1", "10")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = service.CreateProduct(ctx, payload("Mouse", "AB-002", 20, 30))
	require.NoError(t, err)

	page, err = service.ListProducts(ctx, "1", "10")
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total, "create drops cached pages")

	_, err = service.UpdateProduct(ctx, fmt.Sprint(first.ID), payload("Laptop Pro", "AB-001", 1500, 2))
	require.NoError(t, err)

	page, err = service.ListProducts(ctx, "1", "10")
	require.NoError(t, err)
	assert.Equal(t, "Laptop Pro", page.Data[0].Name, "update drops cached pages")

	require.NoError(t, service.DeleteProduct(ctx, fmt.Sprint(first.ID)))

	page, err = service.ListProducts(ctx, "1", "10")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total, "delete drops cached pages")

	assert.Equal(t, []models.ProductEventType{
		models.ProductCreated, models.ProductCreated, models.ProductUpdated, models.ProductDeleted,
	}, publisher.types())
}

func TestProductService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{err: fmt.Errorf("broker down")}
	service := services.NewProductService(
		repositories.NewMemoryProductRepository(),
		services.WithEventPublisher(publisher),
	)

	product, err := service.CreateProduct(ctx, payload("Laptop", "AB-001", 1200, 3))
	require.NoError(t, err)
	assert.NotZero(t, product.ID)
	assert.Len(t, publisher.types(), 1)
}

func TestProductService_ConcurrentCreatesKeepArticleUnique(t *testing.T) {
	ctx := context.Background()
	service := services.NewProductService(repositories.NewMemoryProductRepository())

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CreateProduct(ctx, payload("Racer", "RACE-1", 10, 1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *services.ConflictError
		assert.ErrorAs(t, err, &conflict)
	}
	assert.Equal(t, 1, succeeded)
}

// blockingListRepo pauses the first ListPage after it has read the store,
// until release is closed.
type blockingListRepo struct {
	*repositories.MemoryProductRepository
	block   atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func newBlockingListRepo() *blockingListRepo {
	r := &blockingListRepo{
		MemoryProductRepository: repositories.NewMemoryProductRepository(),
		loaded:                  make(chan struct{}),
		release:                 make(chan struct{}),
	}
	r.block.Store(true)
	return r
}

func (r *blockingListRepo) ListPage(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	products, total, err := r.MemoryProductRepository.ListPage(ctx, offset, limit)
	if r.block.CompareAndSwap(true, false) {
		close(r.loaded)
		<-r.release
	}
	return products, total, err
}

func TestProductService_ListCacheDropsPageLoadedBeforeWrite(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := map[string]cache.Store{
		"memory": cache.NewMemoryStore(),
		"redis":  cache.NewRedisStore(client, "services_test"),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newBlockingListRepo()
			service := services.NewProductService(repo, services.WithListCache(store, time.Minute))

			inFlight := make(chan *models.ProductPage, 1)
			go func() {
				page, err := service.ListProducts(ctx, "1", "10")
				assert.NoError(t, err)
				inFlight <- page
			}()

			<-repo.loaded
			_, err := service.CreateProduct(ctx, payload("Laptop", "AB-001", 1200, 3))
			require.NoError(t, err)
			close(repo.release)

			stale := <-inFlight
			require.NotNil(t, stale)
			assert.EqualValues(t, 0, stale.Total)

			page, err := service.ListProducts(ctx, "1", "10")
			require.NoError(t, err)
			assert.EqualValues(t, 1, page.Total)
			assert.Len(t, page.Data, 1)
		})
	}
}
