package fixture

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ObjectGetter is the part of the S3 client the fixture source needs
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads sample products from a JSON object in a bucket.
// The object is fetched on every call.
type S3Source struct {
	client ObjectGetter
	bucket string
	key    string
	tracer trace.Tracer
	logger *slog.Logger
}

var _ domain.FixtureSource = (*S3Source)(nil)

// NewS3Source creates a fixture source for bucket/key
func NewS3Source(client ObjectGetter, bucket, key string, tracer trace.Tracer, logger *slog.Logger) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		key:    key,
		tracer: tracer,
		logger: logger,
	}
}

func newS3Client(opts S3Options) *s3.Client {
	o := s3.Options{
		Region:       opts.Region,
		UsePathStyle: opts.Endpoint != "",
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKey != "" {
		o.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")
	}
	return s3.New(o)
}

// Load downloads and parses the fixture object
func (s *S3Source) Load(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "FixtureSource.LoadS3")
	defer span.End()

	span.SetAttributes(
		attribute.String("fixture.bucket", s.bucket),
		attribute.String("fixture.key", s.key),
	)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, s.fail(ctx, span, "get", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.fail(ctx, span, "read", err)
	}

	products, err := decode(data)
	if err != nil {
		return nil, s.fail(ctx, span, "parse", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Fixture loaded")
	return products, nil
}

func (s *S3Source) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "Failed to load fixture object")
	s.logger.ErrorContext(ctx, "Failed to load fixture object",
		slog.String("bucket", s.bucket),
		slog.String("key", s.key),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s fixture s3://%s/%s: %w", op, s.bucket, s.key, err)
}
