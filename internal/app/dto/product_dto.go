package dto

import (
	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	ID             string       `json:"id,omitempty"`
	Description    string       `json:"description,omitempty"`
	AltDescription string       `json:"alt_description,omitempty"`
	Likes          *int         `json:"likes" validate:"required"`
	URLs           domain.URLs  `json:"urls"`
	Links          domain.Links `json:"links"`
	User           domain.User  `json:"user"`
	Tags           []domain.Tag `json:"tags" validate:"dive"`
}

// ToProduct converts the request to a domain Product
func (r *CreateProductRequest) ToProduct() *domain.Product {
	p := &domain.Product{
		ID:             r.ID,
		Description:    r.Description,
		AltDescription: r.AltDescription,
		URLs:           r.URLs,
		Links:          r.Links,
		User:           r.User,
		Tags:           make([]domain.Tag, len(r.Tags)),
	}
	copy(p.Tags, r.Tags)
	if r.Likes != nil {
		p.Likes = *r.Likes
	}
	return p
}

// EditProductRequest carries the top-level fields to overwrite
type EditProductRequest struct {
	Description    *string       `json:"description,omitempty"`
	AltDescription *string       `json:"alt_description,omitempty"`
	Likes          *int          `json:"likes,omitempty"`
	URLs           *domain.URLs  `json:"urls,omitempty"`
	Links          *domain.Links `json:"links,omitempty"`
	User           *domain.User  `json:"user,omitempty"`
	Tags           *[]domain.Tag `json:"tags,omitempty"`
}

// ToPatch converts the request to a domain ProductPatch
func (r *EditProductRequest) ToPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Description:    r.Description,
		AltDescription: r.AltDescription,
		Likes:          r.Likes,
		URLs:           r.URLs,
		Links:          r.Links,
		User:           r.User,
		Tags:           r.Tags,
	}
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID             string       `json:"id"`
	Description    string       `json:"description,omitempty"`
	AltDescription string       `json:"alt_description,omitempty"`
	Likes          int          `json:"likes"`
	URLs           domain.URLs  `json:"urls"`
	Links          domain.Links `json:"links"`
	User           domain.User  `json:"user"`
	Tags           []domain.Tag `json:"tags"`
}

// ListProductsResponse is a page of products and the tier that served it
type ListProductsResponse struct {
	Items  []*ProductResponse `json:"items"`
	Source domain.ListSource  `json:"source"`
}

// DeleteProductResponse reports the outcome of a delete
type DeleteProductResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	tags := make([]domain.Tag, len(p.Tags))
	copy(tags, p.Tags)
	return &ProductResponse{
		ID:             p.ID,
		Description:    p.Description,
		AltDescription: p.AltDescription,
		Likes:          p.Likes,
		URLs:           p.URLs,
		Links:          p.Links,
		User:           p.User,
		Tags:           tags,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}
