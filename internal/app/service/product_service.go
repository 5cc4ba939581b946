package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles product use cases.
//
// Lists are served by a two-tier lookup: the document store first and, when
// it returns nothing, the fixture file. A nil fixture disables the fallback.
type ProductService struct {
	store                 domain.ProductStore
	fixture               domain.FixtureSource
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
	listSource            metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	store domain.ProductStore,
	fixture domain.FixtureSource,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	listSource, _ := meter.Int64Counter(
		"products.list.source",
		metric.WithDescription("Product list results by serving tier"),
	)

	return &ProductService{
		store:                 store,
		fixture:               fixture,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
		listSource:            listSource,
	}
}

// ListProducts returns a page of products, falling back to the fixture when the store has none
func (s *ProductService) ListProducts(ctx context.Context, q domain.ListQuery) (*dto.ListProductsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	q = q.Normalize()
	span.SetAttributes(
		attribute.Int("query.offset", q.Offset),
		attribute.Int("query.limit", q.Limit),
		attribute.String("query.tag", q.Tag),
	)

	s.logger.InfoContext(ctx, "Listing products",
		slog.Int("offset", q.Offset),
		slog.Int("limit", q.Limit),
		slog.String("tag", q.Tag),
	)

	result, err := s.lookup(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve products")
		s.logger.ErrorContext(ctx, "Failed to list products",
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "list", "failure")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("product.count", len(result.Items)),
		attribute.String("list.source", string(result.Source)),
	)
	s.listSource.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(result.Source))))
	s.recordOperation(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(result.Items)),
		slog.String("source", string(result.Source)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return &dto.ListProductsResponse{
		Items:  dto.ToProductResponseList(result.Items),
		Source: result.Source,
	}, nil
}

// lookup reads the fixture on every call, then queries the store. The
// store page wins whenever it is non-empty.
func (s *ProductService) lookup(ctx context.Context, q domain.ListQuery) (*domain.ListResult, error) {
	var fallback []*domain.Product
	if s.fixture != nil {
		all, err := s.fixture.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load fixture products: %w", err)
		}
		fallback = q.Apply(all)
	}

	products, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	if len(products) > 0 || s.fixture == nil {
		return &domain.ListResult{Items: products, Source: domain.SourceStore}, nil
	}
	return &domain.ListResult{Items: fallback, Source: domain.SourceFixture}, nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.InfoContext(ctx, "Getting product by ID",
		slog.String("product_id", id),
	)

	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrProductNotFound) {
			span.SetStatus(codes.Error, "Product not found")
			s.logger.WarnContext(ctx, "Product not found",
				slog.String("product_id", id),
			)
			s.recordOperation(ctx, "read", "not_found")
			return nil, err
		}
		span.SetStatus(codes.Error, "Failed to retrieve product")
		s.recordOperation(ctx, "read", "failure")
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}

	s.recordOperation(ctx, "read", "success")

	s.logger.InfoContext(ctx, "Product retrieved successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.ToProductResponse(product), nil
}

// CreateProduct validates and persists a new product, generating its id when absent
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("requested_id", req.ID),
	)

	product, err := newProduct(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.logger.WarnContext(ctx, "Product validation failed",
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "create", "invalid")
		return nil, err
	}

	span.SetAttributes(attribute.String("product.id", product.ID))

	if err := s.store.Insert(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store product")
		s.logger.ErrorContext(ctx, "Failed to store product",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "create", "failure")
		if errors.Is(err, domain.ErrDuplicateProduct) {
			return nil, err
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}

	s.productCreatedCounter.Add(ctx, 1)
	s.recordOperation(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.ToProductResponse(product), nil
}

func newProduct(req *dto.CreateProductRequest) (*domain.Product, error) {
	if err := domain.ValidateStruct(req); err != nil {
		return nil, err
	}
	product := req.ToProduct()
	if product.ID == "" {
		product.ID = domain.NewProductID()
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// EditProduct overwrites the supplied top-level fields of an existing product
func (s *ProductService) EditProduct(ctx context.Context, id string, req *dto.EditProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.EditProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.logger.InfoContext(ctx, "Editing product",
		slog.String("product_id", id),
	)

	patch := req.ToPatch()
	if err := patch.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.recordOperation(ctx, "edit", "invalid")
		return nil, err
	}

	product, err := s.store.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrProductNotFound) {
			span.SetStatus(codes.Error, "Product not found")
			s.logger.WarnContext(ctx, "Product to edit not found",
				slog.String("product_id", id),
			)
			s.recordOperation(ctx, "edit", "not_found")
			return nil, err
		}
		span.SetStatus(codes.Error, "Failed to retrieve product")
		s.recordOperation(ctx, "edit", "failure")
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}

	if patch.IsEmpty() {
		s.recordOperation(ctx, "edit", "success")
		span.SetStatus(codes.Ok, "Nothing to change")
		return dto.ToProductResponse(product), nil
	}

	patch.Apply(product)
	if err := product.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.recordOperation(ctx, "edit", "invalid")
		return nil, err
	}

	if err := s.store.Save(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save product")
		s.logger.ErrorContext(ctx, "Failed to save product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "edit", "failure")
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save product %s: %w", id, err)
	}

	s.recordOperation(ctx, "edit", "success")

	s.logger.InfoContext(ctx, "Product edited successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product edited successfully")
	return dto.ToProductResponse(product), nil
}

// DestroyProduct deletes a product; a missing id yields a zero count, not an error
func (s *ProductService) DestroyProduct(ctx context.Context, id string) (*dto.DeleteProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.DestroyProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	deleted, err := s.store.DeleteOne(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		s.logger.ErrorContext(ctx, "Failed to delete product",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		s.recordOperation(ctx, "delete", "failure")
		return nil, fmt.Errorf("delete product %s: %w", id, err)
	}

	span.SetAttributes(attribute.Int64("product.deleted", deleted))
	s.recordOperation(ctx, "delete", "success")

	s.logger.InfoContext(ctx, "Product deleted",
		slog.String("product_id", id),
		slog.Int64("deleted_count", deleted),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return &dto.DeleteProductResponse{DeletedCount: deleted}, nil
}

// SeedFromFixture copies the fixture products into an empty store and reports how many were inserted
func (s *ProductService) SeedFromFixture(ctx context.Context, fixture domain.FixtureSource) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.SeedFromFixture")
	defer span.End()

	count, err := s.store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to count products")
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "Store already populated, skipping fixture seed",
			slog.Int64("count", count),
		)
		span.SetStatus(codes.Ok, "Seed skipped")
		return 0, nil
	}

	products, err := fixture.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load fixture")
		return 0, fmt.Errorf("load fixture products: %w", err)
	}

	inserted := 0
	for _, p := range products {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			return inserted, fmt.Errorf("fixture product %q: %w", p.ID, err)
		}
		if err := s.store.Insert(ctx, p); err != nil {
			if errors.Is(err, domain.ErrDuplicateProduct) {
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to seed product")
			return inserted, fmt.Errorf("seed product %q: %w", p.ID, err)
		}
		inserted++
	}

	span.SetAttributes(attribute.Int("product.seeded", inserted))
	s.logger.InfoContext(ctx, "Store seeded from fixture",
		slog.Int("count", inserted),
	)

	span.SetStatus(codes.Ok, "Store seeded")
	return inserted, nil
}

func (s *ProductService) recordOperation(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
