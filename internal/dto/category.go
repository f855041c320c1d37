package dto

import "github.com/cafeworks/espresso/internal/entity"

// CategoryCreate is the payload for adding a menu category.
type CategoryCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CategoryUpdate carries optional field changes; only non-nil fields apply.
type CategoryUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CategoryResponse represents a category as exposed via transport layers.
type CategoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewCategoryResponse maps a category entity onto its response shape.
func NewCategoryResponse(c *entity.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description}
}

// NewCategoryResponses maps a slice of category entities.
func NewCategoryResponses(categories []*entity.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, NewCategoryResponse(c))
	}
	return out
}
