package domain

const (
	DefaultListLimit = 25
)

// ListSource identifies which tier produced a list result
type ListSource string

const (
	SourceStore   ListSource = "store"
	SourceFixture ListSource = "fixture"
)

// ListQuery holds the pagination and tag filter of a list request
type ListQuery struct {
	Offset int
	Limit  int
	Tag    string
}

// ListResult is a page of products together with the tier that served it
type ListResult struct {
	Items  []*Product
	Source ListSource
}

// Normalize fills defaults and clamps out of range values
func (q ListQuery) Normalize() ListQuery {
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	return q
}

// Matches reports whether a product passes the tag filter
func (q ListQuery) Matches(p *Product) bool {
	if q.Tag == "" {
		return true
	}
	return p.HasTag(q.Tag)
}

// Apply filters products by tag and slices the requested page, keeping input order
func (q ListQuery) Apply(products []*Product) []*Product {
	q = q.Normalize()

	matched := make([]*Product, 0, len(products))
	for _, p := range products {
		if p != nil && q.Matches(p) {
			matched = append(matched, p)
		}
	}

	if q.Offset >= len(matched) {
		return []*Product{}
	}
	end := q.Offset + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[q.Offset:end]
}
