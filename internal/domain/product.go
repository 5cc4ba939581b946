package domain

import (
	"github.com/google/uuid"
)

// Product represents a catalog photo product
type Product struct {
	ID             string `json:"id" bson:"_id"`
	Description    string `json:"description,omitempty" bson:"description,omitempty"`
	AltDescription string `json:"alt_description,omitempty" bson:"alt_description,omitempty"`
	Likes          int    `json:"likes" bson:"likes"`
	URLs           URLs   `json:"urls" bson:"urls"`
	Links          Links  `json:"links" bson:"links"`
	User           User   `json:"user" bson:"user"`
	Tags           []Tag  `json:"tags" bson:"tags" validate:"dive"`
}

// URLs holds the rendition URLs of a product image
type URLs struct {
	Regular string `json:"regular" bson:"regular" validate:"required"`
	Small   string `json:"small" bson:"small" validate:"required"`
	Thumb   string `json:"thumb" bson:"thumb" validate:"required"`
}

// Links holds the canonical links of a product
type Links struct {
	Self string `json:"self" bson:"self" validate:"required"`
	HTML string `json:"html" bson:"html" validate:"required"`
}

// User is the author of a product
type User struct {
	ID           string `json:"id" bson:"id" validate:"required"`
	FirstName    string `json:"first_name" bson:"first_name" validate:"required"`
	LastName     string `json:"last_name,omitempty" bson:"last_name,omitempty"`
	PortfolioURL string `json:"portfolio_url,omitempty" bson:"portfolio_url,omitempty"`
	Username     string `json:"username" bson:"username" validate:"required"`
}

// Tag labels a product with a category
type Tag struct {
	Title string `json:"title" bson:"title" validate:"required"`
}

// NewProductID returns a fresh collision-resistant product identifier
func NewProductID() string {
	return uuid.NewString()
}

// Validate checks the required-field constraints of the product
func (p *Product) Validate() error {
	if p.ID == "" {
		return &ValidationError{Fields: []string{"id"}}
	}
	return ValidateStruct(p)
}

// HasTag reports whether the product carries a tag with the given title
func (p *Product) HasTag(title string) bool {
	for _, t := range p.Tags {
		if t.Title == title {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers never share the tag slice
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	if p.Tags != nil {
		c.Tags = make([]Tag, len(p.Tags))
		copy(c.Tags, p.Tags)
	}
	return &c
}
