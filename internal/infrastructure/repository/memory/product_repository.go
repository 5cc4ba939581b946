package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductStore is an in-memory implementation of domain.ProductStore
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

var _ domain.ProductStore = (*ProductStore)(nil)

// NewProductStore creates a new in-memory product store
func NewProductStore(tracer trace.Tracer, logger *slog.Logger) *ProductStore {
	return &ProductStore{
		products: make(map[string]*domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// Find returns matching products ordered by id
func (s *ProductStore) Find(ctx context.Context, q domain.ListQuery) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Find")
	defer span.End()

	q = q.Normalize()
	span.SetAttributes(
		attribute.Int("query.offset", q.Offset),
		attribute.Int("query.limit", q.Limit),
		attribute.String("query.tag", q.Tag),
	)

	s.mu.RLock()
	ids := make([]string, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sorted := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		sorted = append(sorted, s.products[id].Clone())
	}
	s.mu.RUnlock()

	products := q.Apply(sorted)

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.logger.DebugContext(ctx, "Products retrieved from memory store",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved")
	return products, nil
}

// FindByID retrieves a product by ID
func (s *ProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.mu.RLock()
	product, exists := s.products[id]
	s.mu.RUnlock()

	if !exists {
		span.SetStatus(codes.Error, "Product not found")
		s.logger.DebugContext(ctx, "Product not found in memory store",
			slog.String("product_id", id),
		)
		return nil, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	return product.Clone(), nil
}

// Insert stores a new product
func (s *ProductStore) Insert(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Insert")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		span.RecordError(domain.ErrDuplicateProduct)
		span.SetStatus(codes.Error, "Duplicate product")
		return domain.ErrDuplicateProduct
	}
	s.products[product.ID] = product.Clone()

	s.logger.DebugContext(ctx, "Product inserted in memory store",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product inserted")
	return nil
}

// Save replaces an existing product
func (s *ProductStore) Save(ctx context.Context, product *domain.Product) error {
	_, span := s.tracer.Start(ctx, "ProductStore.Save")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}
	s.products[product.ID] = product.Clone()

	span.SetStatus(codes.Ok, "Product saved")
	return nil
}

// DeleteOne removes a product and reports how many were removed
func (s *ProductStore) DeleteOne(ctx context.Context, id string) (int64, error) {
	_, span := s.tracer.Start(ctx, "ProductStore.DeleteOne")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		span.SetAttributes(attribute.Int64("product.deleted", 0))
		return 0, nil
	}
	delete(s.products, id)

	span.SetAttributes(attribute.Int64("product.deleted", 1))
	span.SetStatus(codes.Ok, "Product deleted")
	return 1, nil
}

// Count returns the number of stored products
func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	_, span := s.tracer.Start(ctx, "ProductStore.Count")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}
