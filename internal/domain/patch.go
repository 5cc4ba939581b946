package domain

// ProductPatch is a partial update restricted to the known top-level fields.
// Nil fields are left untouched; sub-objects replace the stored value wholesale.
type ProductPatch struct {
	Description    *string `json:"description,omitempty"`
	AltDescription *string `json:"alt_description,omitempty"`
	Likes          *int    `json:"likes,omitempty"`
	URLs           *URLs   `json:"urls,omitempty"`
	Links          *Links  `json:"links,omitempty"`
	User           *User   `json:"user,omitempty"`
	Tags           *[]Tag  `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch names no field at all
func (p ProductPatch) IsEmpty() bool {
	return p.Description == nil &&
		p.AltDescription == nil &&
		p.Likes == nil &&
		p.URLs == nil &&
		p.Links == nil &&
		p.User == nil &&
		p.Tags == nil
}

// Validate checks every supplied value before it is merged
func (p ProductPatch) Validate() error {
	if p.URLs != nil {
		if err := validatePart("urls", p.URLs); err != nil {
			return err
		}
	}
	if p.Links != nil {
		if err := validatePart("links", p.Links); err != nil {
			return err
		}
	}
	if p.User != nil {
		if err := validatePart("user", p.User); err != nil {
			return err
		}
	}
	if p.Tags != nil {
		for _, t := range *p.Tags {
			if t.Title == "" {
				return &ValidationError{Fields: []string{"tags.title"}}
			}
		}
	}
	return nil
}

// Apply overwrites the fields named by the patch
func (p ProductPatch) Apply(product *Product) {
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.AltDescription != nil {
		product.AltDescription = *p.AltDescription
	}
	if p.Likes != nil {
		product.Likes = *p.Likes
	}
	if p.URLs != nil {
		product.URLs = *p.URLs
	}
	if p.Links != nil {
		product.Links = *p.Links
	}
	if p.User != nil {
		product.User = *p.User
	}
	if p.Tags != nil {
		tags := make([]Tag, len(*p.Tags))
		copy(tags, *p.Tags)
		product.Tags = tags
	}
}

func validatePart(prefix string, v any) error {
	err := ValidateStruct(v)
	if err == nil {
		return nil
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		return err
	}
	for i, f := range verr.Fields {
		verr.Fields[i] = prefix + "." + f
	}
	return verr
}
