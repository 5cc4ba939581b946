package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FileSource reads sample products from a JSON array on disk.
// The file is read on every call and never written.
type FileSource struct {
	path   string
	tracer trace.Tracer
	logger *slog.Logger
}

var _ domain.FixtureSource = (*FileSource)(nil)

// NewFileSource creates a fixture source for the file at path
func NewFileSource(path string, tracer trace.Tracer, logger *slog.Logger) *FileSource {
	return &FileSource{
		path:   path,
		tracer: tracer,
		logger: logger,
	}
}

// Path returns the fixture file location
func (f *FileSource) Path() string {
	return f.path
}

// Load reads and parses the fixture file in file order
func (f *FileSource) Load(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := f.tracer.Start(ctx, "FixtureSource.Load")
	defer span.End()

	span.SetAttributes(attribute.String("fixture.path", f.path))

	data, err := os.ReadFile(f.path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read fixture file")
		f.logger.ErrorContext(ctx, "Failed to read fixture file",
			slog.String("path", f.path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("read fixture %s: %w", f.path, err)
	}

	products, err := decode(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to parse fixture file")
		f.logger.ErrorContext(ctx, "Failed to parse fixture file",
			slog.String("path", f.path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("parse fixture %s: %w", f.path, err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Fixture loaded")
	return products, nil
}
