package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

const (
	MaxLimit = 200
)

// Decode parses a JSON body. Unknown fields are rejected so a patch can only
// name fields the product actually has.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("invalid JSON: empty body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseListQuery extracts offset, limit and tag from query parameters.
// Unparseable numbers fall back to the defaults.
func ParseListQuery(r *http.Request) domain.ListQuery {
	values := r.URL.Query()
	q := domain.ListQuery{
		Tag: values.Get("tag"),
	}

	if offset, err := strconv.Atoi(values.Get("offset")); err == nil {
		q.Offset = offset
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		q.Limit = limit
	}

	q = q.Normalize()
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// RequireID rejects an empty path identifier
func RequireID(s string) (string, error) {
	if s == "" {
		return "", domain.NewValidationError("id", errors.New("missing required ID"))
	}
	return s, nil
}
