package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductStore keeps product documents in a PostgreSQL JSONB column.
type ProductStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *slog.Logger
}

var _ domain.ProductStore = (*ProductStore)(nil)

// NewProductStore constructs a store.
func NewProductStore(pool *pgxpool.Pool, tracer trace.Tracer, logger *slog.Logger) *ProductStore {
	return &ProductStore{pool: pool, tracer: tracer, logger: logger}
}

// Find returns products whose tags contain the requested title, ordered by id.
func (s *ProductStore) Find(ctx context.Context, q domain.ListQuery) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Find")
	defer span.End()

	q = q.Normalize()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.Int("query.offset", q.Offset),
		attribute.Int("query.limit", q.Limit),
		attribute.String("query.tag", q.Tag),
	)

	query, args := buildFindQuery(q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(ctx, span, "find products", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0, q.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, s.fail(ctx, span, "scan product", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, span, "iterate products", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved")
	return products, nil
}

// FindByID fetches a product by id.
func (s *ProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("product.id", id),
	)

	const query = `SELECT document FROM products WHERE id = $1`
	product, err := scanProduct(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Product not found")
			return nil, domain.ErrProductNotFound
		}
		return nil, s.fail(ctx, span, "find product", err)
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, nil
}

// Insert stores a new product document.
func (s *ProductStore) Insert(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("product.id", product.ID),
	)

	doc, err := json.Marshal(product)
	if err != nil {
		return s.fail(ctx, span, "encode product", err)
	}

	const query = `INSERT INTO products (id, document) VALUES ($1, $2)`
	if _, err := s.pool.Exec(ctx, query, product.ID, doc); err != nil {
		if isUniqueViolation(err) {
			span.RecordError(domain.ErrDuplicateProduct)
			span.SetStatus(codes.Error, "Duplicate product")
			return domain.ErrDuplicateProduct
		}
		return s.fail(ctx, span, "insert product", err)
	}

	span.SetStatus(codes.Ok, "Product inserted")
	return nil
}

// Save overwrites the stored document.
func (s *ProductStore) Save(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("product.id", product.ID),
	)

	doc, err := json.Marshal(product)
	if err != nil {
		return s.fail(ctx, span, "encode product", err)
	}

	const query = `UPDATE products SET document = $2 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, product.ID, doc)
	if err != nil {
		return s.fail(ctx, span, "update product", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product saved")
	return nil
}

// DeleteOne removes a product by id.
func (s *ProductStore) DeleteOne(ctx context.Context, id string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.DeleteOne")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("product.id", id),
	)

	const query = `DELETE FROM products WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, s.fail(ctx, span, "delete product", err)
	}

	span.SetAttributes(attribute.Int64("product.deleted", tag.RowsAffected()))
	span.SetStatus(codes.Ok, "Product deleted")
	return tag.RowsAffected(), nil
}

// Count returns the number of stored products.
func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Count")
	defer span.End()

	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, s.fail(ctx, span, "count products", err)
	}
	return n, nil
}

func (s *ProductStore) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	s.logger.ErrorContext(ctx, "PostgreSQL operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("postgres %s: %w", op, err)
}

// buildFindQuery orders ids by byte value so pages line up with the memory and
// mongo stores.
func buildFindQuery(q domain.ListQuery) (string, []any) {
	query := "SELECT document FROM products "
	var args []any
	if q.Tag != "" {
		filter, _ := json.Marshal([]domain.Tag{{Title: q.Tag}})
		args = append(args, string(filter))
		query += "WHERE document->'tags' @> $1::jsonb "
	}
	args = append(args, q.Offset, q.Limit)
	query += "ORDER BY id COLLATE \"C\" ASC OFFSET $" + strconv.Itoa(len(args)-1) + " LIMIT $" + strconv.Itoa(len(args))
	return query, args
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		return nil, err
	}
	var p domain.Product
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
