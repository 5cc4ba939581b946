package memory

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestStore() *ProductStore {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewProductStore(noop.NewTracerProvider().Tracer("test"), logger)
}

func product(id string, tags ...string) *domain.Product {
	p := &domain.Product{
		ID:    id,
		Likes: 1,
		URLs:  domain.URLs{Regular: "r", Small: "s", Thumb: "t"},
		Links: domain.Links{Self: "self", HTML: "html"},
		User:  domain.User{ID: "u", FirstName: "F", Username: "f"},
	}
	for _, tag := range tags {
		p.Tags = append(p.Tags, domain.Tag{Title: tag})
	}
	return p
}

func TestProductStore_FindSortsByID(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Insert(ctx, product(id)))
	}

	got, err := s.Find(ctx, domain.ListQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestProductStore_FindTagAndPage(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, product("a", "nature")))
	require.NoError(t, s.Insert(ctx, product("b", "city")))
	require.NoError(t, s.Insert(ctx, product("c", "nature", "city")))
	require.NoError(t, s.Insert(ctx, product("d", "nature")))

	got, err := s.Find(ctx, domain.ListQuery{Tag: "nature", Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestProductStore_InsertDuplicate(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, product("a")))

	err := s.Insert(ctx, product("a"))
	assert.ErrorIs(t, err, domain.ErrDuplicateProduct)
}

func TestProductStore_FindByIDReturnsCopy(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, product("a", "nature")))

	got, err := s.FindByID(ctx, "a")
	require.NoError(t, err)
	got.Tags[0].Title = "mutated"

	again, err := s.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "nature", again.Tags[0].Title)
}

func TestProductStore_FindByIDMissing(t *testing.T) {
	_, err := newTestStore().FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductStore_SaveRequiresExisting(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	assert.ErrorIs(t, s.Save(ctx, product("a")), domain.ErrProductNotFound)

	require.NoError(t, s.Insert(ctx, product("a")))
	updated := product("a")
	updated.Likes = 99
	require.NoError(t, s.Save(ctx, updated))

	got, err := s.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 99, got.Likes)
}

func TestProductStore_DeleteOneAndCount(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, product("a")))

	n, err := s.DeleteOne(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteOne(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
