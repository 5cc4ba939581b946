package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductStore persists products as documents in a MongoDB collection
type ProductStore struct {
	collection *mongo.Collection
	tracer     trace.Tracer
	logger     *slog.Logger
}

var _ domain.ProductStore = (*ProductStore)(nil)

// NewProductStore creates a store backed by the given collection
func NewProductStore(collection *mongo.Collection, tracer trace.Tracer, logger *slog.Logger) *ProductStore {
	return &ProductStore{
		collection: collection,
		tracer:     tracer,
		logger:     logger,
	}
}

// Find queries products by tag, sorted by _id ascending
func (s *ProductStore) Find(ctx context.Context, q domain.ListQuery) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Find")
	defer span.End()

	q = q.Normalize()
	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.Int("query.offset", q.Offset),
		attribute.Int("query.limit", q.Limit),
		attribute.String("query.tag", q.Tag),
	)

	cursor, err := s.collection.Find(ctx, findFilter(q), findOptions(q))
	if err != nil {
		return nil, s.fail(ctx, span, "find products", err)
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0, q.Limit)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, s.fail(ctx, span, "decode products", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products retrieved")
	return products, nil
}

// FindByID fetches a single product document
func (s *ProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("product.id", id),
	)

	var product domain.Product
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.SetStatus(codes.Error, "Product not found")
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, s.fail(ctx, span, "find product", err)
	}

	span.SetStatus(codes.Ok, "Product found")
	return &product, nil
}

// Insert stores a new product document
func (s *ProductStore) Insert(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Insert")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("product.id", product.ID),
	)

	if _, err := s.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			span.RecordError(domain.ErrDuplicateProduct)
			span.SetStatus(codes.Error, "Duplicate product")
			return domain.ErrDuplicateProduct
		}
		return s.fail(ctx, span, "insert product", err)
	}

	span.SetStatus(codes.Ok, "Product inserted")
	return nil
}

// Save replaces the stored product document
func (s *ProductStore) Save(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("product.id", product.ID),
	)

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return s.fail(ctx, span, "replace product", err)
	}
	if res.MatchedCount == 0 {
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product saved")
	return nil
}

// DeleteOne removes the product document with the given id
func (s *ProductStore) DeleteOne(ctx context.Context, id string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.DeleteOne")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("product.id", id),
	)

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, s.fail(ctx, span, "delete product", err)
	}

	span.SetAttributes(attribute.Int64("product.deleted", res.DeletedCount))
	span.SetStatus(codes.Ok, "Product deleted")
	return res.DeletedCount, nil
}

// Count returns the number of product documents
func (s *ProductStore) Count(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductStore.Count")
	defer span.End()

	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, s.fail(ctx, span, "count products", err)
	}
	return n, nil
}

func (s *ProductStore) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	s.logger.ErrorContext(ctx, "MongoDB operation failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("mongo %s: %w", op, err)
}

func findFilter(q domain.ListQuery) bson.M {
	if q.Tag == "" {
		return bson.M{}
	}
	return bson.M{
		"tags": bson.M{
			"$elemMatch": bson.M{"title": q.Tag},
		},
	}
}

func findOptions(q domain.ListQuery) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))
}
