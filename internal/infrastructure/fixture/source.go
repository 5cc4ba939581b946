package fixture

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/trace"
)

const s3Scheme = "s3://"

// S3Options configures access to fixtures stored in an S3 compatible bucket
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewSource picks the fixture backend from the location: s3://bucket/key
// reads from object storage, anything else is a local file path.
func NewSource(location string, opts S3Options, tracer trace.Tracer, logger *slog.Logger) (domain.FixtureSource, error) {
	if !strings.HasPrefix(location, s3Scheme) {
		return NewFileSource(location, tracer, logger), nil
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid fixture location %q: want s3://bucket/key", location)
	}
	return NewS3Source(newS3Client(opts), bucket, key, tracer, logger), nil
}

// decode parses a JSON array of products, keeping file order
func decode(data []byte) ([]*domain.Product, error) {
	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}
