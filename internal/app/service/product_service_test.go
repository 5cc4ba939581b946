package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/fixture"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

var discardLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func newStore() *memory.ProductStore {
	return memory.NewProductStore(noop.NewTracerProvider().Tracer("test"), discardLogger)
}

func newService(store domain.ProductStore, fx domain.FixtureSource) *ProductService {
	return NewProductService(
		store,
		fx,
		noop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
		discardLogger,
	)
}

func writeFixture(t *testing.T, products []*domain.Product) domain.FixtureSource {
	t.Helper()
	data, err := json.Marshal(products)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return fixture.NewFileSource(path, noop.NewTracerProvider().Tracer("test"), discardLogger)
}

func intPtr(v int) *int { return &v }

func createRequest(tags ...string) *dto.CreateProductRequest {
	req := &dto.CreateProductRequest{
		Description: "Lake at sunrise",
		Likes:       intPtr(7),
		URLs:        domain.URLs{Regular: "r", Small: "s", Thumb: "t"},
		Links:       domain.Links{Self: "self", HTML: "html"},
		User:        domain.User{ID: "u1", FirstName: "Ada", Username: "ada"},
	}
	for _, tag := range tags {
		req.Tags = append(req.Tags, domain.Tag{Title: tag})
	}
	return req
}

func fixtureProduct(id string, tags ...string) *domain.Product {
	p := createRequest(tags...).ToProduct()
	p.ID = id
	return p
}

// --- Create ---

func TestCreateProduct_GeneratesUniqueIDs(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		created, err := svc.CreateProduct(ctx, createRequest("nature"))
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.False(t, seen[created.ID], "duplicate id %s", created.ID)
		seen[created.ID] = true
	}
}

func TestCreateProduct_KeepsSuppliedID(t *testing.T) {
	svc := newService(newStore(), nil)
	req := createRequest()
	req.ID = "custom-id"

	created, err := svc.CreateProduct(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "custom-id", created.ID)
}

func TestCreateProduct_DuplicateID(t *testing.T) {
	svc := newService(newStore(), nil)
	req := createRequest()
	req.ID = "dup"

	_, err := svc.CreateProduct(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateProduct(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDuplicateProduct)
}

func TestCreateProduct_MissingRequiredFields(t *testing.T) {
	svc := newService(newStore(), nil)
	req := createRequest()
	req.Likes = nil
	req.URLs.Small = ""
	req.User.FirstName = ""

	_, err := svc.CreateProduct(context.Background(), req)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"likes", "urls.small", "user.first_name"}, verr.Fields)
}

func TestCreateProduct_ZeroLikesIsValid(t *testing.T) {
	svc := newService(newStore(), nil)
	req := createRequest()
	req.Likes = intPtr(0)

	created, err := svc.CreateProduct(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, created.Likes)
}

// --- Get ---

func TestGetProductByID_ReturnsCreated(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, createRequest("nature", "lake"))
	require.NoError(t, err)

	got, err := svc.GetProductByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetProductByID_NotFoundHasNoFixtureFallback(t *testing.T) {
	fx := writeFixture(t, []*domain.Product{fixtureProduct("f1", "nature")})
	svc := newService(newStore(), fx)

	got, err := svc.GetProductByID(context.Background(), "f1")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

// --- Edit ---

func TestEditProduct_ChangesOnlyNamedField(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, createRequest("nature"))
	require.NoError(t, err)

	edited, err := svc.EditProduct(ctx, created.ID, &dto.EditProductRequest{Likes: intPtr(42)})
	require.NoError(t, err)

	want := *created
	want.Likes = 42
	assert.Equal(t, &want, edited)

	got, err := svc.GetProductByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, &want, got)
}

func TestEditProduct_ReplacesSubObjectWholesale(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	req := createRequest()
	req.User.LastName = "Lovelace"
	created, err := svc.CreateProduct(ctx, req)
	require.NoError(t, err)

	edited, err := svc.EditProduct(ctx, created.ID, &dto.EditProductRequest{
		User: &domain.User{ID: "u2", FirstName: "Grace", Username: "grace"},
	})
	require.NoError(t, err)
	assert.Equal(t, "grace", edited.User.Username)
	assert.Empty(t, edited.User.LastName)
}

func TestEditProduct_NotFound(t *testing.T) {
	svc := newService(newStore(), nil)

	got, err := svc.EditProduct(context.Background(), "missing", &dto.EditProductRequest{Likes: intPtr(42)})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestEditProduct_InvalidPatchLeavesProductUntouched(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, createRequest())
	require.NoError(t, err)

	_, err = svc.EditProduct(ctx, created.ID, &dto.EditProductRequest{
		URLs: &domain.URLs{Regular: "only-regular"},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.GetProductByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestEditProduct_EmptyPatchReturnsCurrent(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, createRequest())
	require.NoError(t, err)

	got, err := svc.EditProduct(ctx, created.ID, &dto.EditProductRequest{})
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

// --- Destroy ---

func TestDestroyProduct_ThenGetIsNotFound(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, createRequest())
	require.NoError(t, err)

	res, err := svc.DestroyProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)

	_, err = svc.GetProductByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDestroyProduct_MissingIsZero(t *testing.T) {
	svc := newService(newStore(), nil)

	res, err := svc.DestroyProduct(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.DeletedCount)
}

// --- List ---

func TestListProducts_TagFilterFromStore(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.CreateProduct(ctx, createRequest("nature"))
		require.NoError(t, err)
		_, err = svc.CreateProduct(ctx, createRequest("city"))
		require.NoError(t, err)
	}

	res, err := svc.ListProducts(ctx, domain.ListQuery{Tag: "nature"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceStore, res.Source)
	require.Len(t, res.Items, 4)
	for _, p := range res.Items {
		assert.Contains(t, p.Tags, domain.Tag{Title: "nature"})
	}
}

func TestListProducts_OffsetLimitInIDOrder(t *testing.T) {
	store := newStore()
	svc := newService(store, nil)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		req := createRequest()
		req.ID = fmt.Sprintf("id-%02d", 19-i)
		_, err := svc.CreateProduct(ctx, req)
		require.NoError(t, err)
	}

	res, err := svc.ListProducts(ctx, domain.ListQuery{Offset: 10, Limit: 5})
	require.NoError(t, err)
	require.Len(t, res.Items, 5)
	for i, p := range res.Items {
		assert.Equal(t, fmt.Sprintf("id-%02d", 10+i), p.ID)
	}
}

func TestListProducts_DefaultLimit(t *testing.T) {
	svc := newService(newStore(), nil)
	ctx := context.Background()
	for i := 0; i < 30; i++ {
		_, err := svc.CreateProduct(ctx, createRequest())
		require.NoError(t, err)
	}

	res, err := svc.ListProducts(ctx, domain.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Items, domain.DefaultListLimit)
}

func TestListProducts_FallsBackToFixtureInFileOrder(t *testing.T) {
	var products []*domain.Product
	for i := 0; i < 30; i++ {
		products = append(products, fixtureProduct(fmt.Sprintf("z-nature-%02d", i), "nature"))
		products = append(products, fixtureProduct(fmt.Sprintf("a-city-%02d", i), "city"))
	}
	svc := newService(newStore(), writeFixture(t, products))

	res, err := svc.ListProducts(context.Background(), domain.ListQuery{Tag: "nature", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFixture, res.Source)
	require.Len(t, res.Items, 10)
	for i, p := range res.Items {
		assert.Equal(t, fmt.Sprintf("z-nature-%02d", i), p.ID)
	}
}

func TestListProducts_StoreResultsWinOverFixture(t *testing.T) {
	fx := writeFixture(t, []*domain.Product{fixtureProduct("f1", "nature")})
	svc := newService(newStore(), fx)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, createRequest("nature"))
	require.NoError(t, err)

	res, err := svc.ListProducts(ctx, domain.ListQuery{Tag: "nature"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceStore, res.Source)
	require.Len(t, res.Items, 1)
	assert.Equal(t, created.ID, res.Items[0].ID)
}

func TestListProducts_FallbackWhenStorePageEmpty(t *testing.T) {
	fx := writeFixture(t, []*domain.Product{fixtureProduct("f1", "nature"), fixtureProduct("f2", "nature")})
	svc := newService(newStore(), fx)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, createRequest("city"))
	require.NoError(t, err)

	res, err := svc.ListProducts(ctx, domain.ListQuery{Tag: "nature", Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceFixture, res.Source)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "f2", res.Items[0].ID)
}

func TestListProducts_NoFixtureReturnsEmptyStoreResult(t *testing.T) {
	svc := newService(newStore(), nil)

	res, err := svc.ListProducts(context.Background(), domain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceStore, res.Source)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestListProducts_FixtureErrorPropagates(t *testing.T) {
	missing := fixture.NewFileSource(filepath.Join(t.TempDir(), "missing.json"),
		noop.NewTracerProvider().Tracer("test"), discardLogger)
	svc := newService(newStore(), missing)

	_, err := svc.ListProducts(context.Background(), domain.ListQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListProducts_FixtureErrorWithPopulatedStore(t *testing.T) {
	missing := fixture.NewFileSource(filepath.Join(t.TempDir(), "missing.json"),
		noop.NewTracerProvider().Tracer("test"), discardLogger)
	svc := newService(newStore(), missing)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, createRequest("nature"))
	require.NoError(t, err)

	res, err := svc.ListProducts(ctx, domain.ListQuery{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// countingSource records how often the fixture is loaded.
type countingSource struct {
	domain.FixtureSource
	loads int
}

func (c *countingSource) Load(ctx context.Context) ([]*domain.Product, error) {
	c.loads++
	return c.FixtureSource.Load(ctx)
}

func TestListProducts_ReadsFixtureOnEveryCall(t *testing.T) {
	fx := &countingSource{FixtureSource: writeFixture(t, []*domain.Product{fixtureProduct("f1", "nature")})}
	svc := newService(newStore(), fx)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, domain.ListQuery{})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, createRequest("nature"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := svc.ListProducts(ctx, domain.ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, domain.SourceStore, res.Source)
	}
	assert.Equal(t, 4, fx.loads)
}

// failingStore surfaces a fixed error from every call.
type failingStore struct {
	domain.ProductStore
	err error
}

func (f failingStore) Find(context.Context, domain.ListQuery) ([]*domain.Product, error) {
	return nil, f.err
}

func (f failingStore) FindByID(context.Context, string) (*domain.Product, error) {
	return nil, f.err
}

func (f failingStore) DeleteOne(context.Context, string) (int64, error) {
	return 0, f.err
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	fx := writeFixture(t, []*domain.Product{fixtureProduct("f1")})
	svc := newService(failingStore{err: boom}, fx)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, domain.ListQuery{})
	assert.ErrorIs(t, err, boom)

	_, err = svc.GetProductByID(ctx, "x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.EditProduct(ctx, "x", &dto.EditProductRequest{Likes: intPtr(1)})
	assert.ErrorIs(t, err, boom)

	_, err = svc.DestroyProduct(ctx, "x")
	assert.ErrorIs(t, err, boom)
}

// --- Seed ---

func TestSeedFromFixture_PopulatesEmptyStoreOnce(t *testing.T) {
	fx := writeFixture(t, []*domain.Product{fixtureProduct("f1", "nature"), fixtureProduct("f2")})
	svc := newService(newStore(), nil)
	ctx := context.Background()

	n, err := svc.SeedFromFixture(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.SeedFromFixture(ctx, fx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	res, err := svc.ListProducts(ctx, domain.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceStore, res.Source)
	assert.Len(t, res.Items, 2)
}

func TestSeedFromFixture_SkipsNullEntries(t *testing.T) {
	fx := writeFixture(t, []*domain.Product{nil, fixtureProduct("f1"), nil})
	svc := newService(newStore(), nil)

	n, err := svc.SeedFromFixture(context.Background(), fx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSeedFromFixture_RejectsInvalidFixtureProduct(t *testing.T) {
	bad := fixtureProduct("bad")
	bad.Links.HTML = ""
	fx := writeFixture(t, []*domain.Product{bad})
	svc := newService(newStore(), nil)

	_, err := svc.SeedFromFixture(context.Background(), fx)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
