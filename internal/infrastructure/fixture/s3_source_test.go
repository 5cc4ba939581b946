package fixture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeGetter struct {
	body  string
	err   error
	input *s3.GetObjectInput
	calls int
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func newS3Source(getter ObjectGetter) *S3Source {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewS3Source(getter, "catalog", "fixtures/products.json", noop.NewTracerProvider().Tracer("test"), logger)
}

func TestS3SourceLoad(t *testing.T) {
	getter := &fakeGetter{body: `[{"id":"b"},{"id":"a"}]`}

	products, err := newS3Source(getter).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "b", products[0].ID)
	assert.Equal(t, "catalog", aws.ToString(getter.input.Bucket))
	assert.Equal(t, "fixtures/products.json", aws.ToString(getter.input.Key))
}

func TestS3SourceLoad_FetchesEveryCall(t *testing.T) {
	getter := &fakeGetter{body: `[]`}
	src := newS3Source(getter)

	_, err := src.Load(context.Background())
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, getter.calls)
}

func TestS3SourceLoad_GetError(t *testing.T) {
	boom := errors.New("access denied")

	_, err := newS3Source(&fakeGetter{err: boom}).Load(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s3://catalog/fixtures/products.json")
}

func TestS3SourceLoad_InvalidJSON(t *testing.T) {
	_, err := newS3Source(&fakeGetter{body: `{"id":`}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse fixture")
}

func TestNewSource(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")

	src, err := NewSource("data/products.json", S3Options{}, tracer, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	src, err = NewSource("s3://bucket/path/products.json", S3Options{Region: "us-east-1"}, tracer, logger)
	require.NoError(t, err)
	s3src, ok := src.(*S3Source)
	require.True(t, ok)
	assert.Equal(t, "bucket", s3src.bucket)
	assert.Equal(t, "path/products.json", s3src.key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, err := NewSource(bad, S3Options{}, tracer, logger)
		assert.Error(t, err, bad)
	}
}
