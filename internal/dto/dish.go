package dto

import (
	"github.com/shopspring/decimal"

	"github.com/cafeworks/espresso/internal/entity"
)

// DishCreate is the payload for adding a dish to the menu.
type DishCreate struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	CategoryID  int64           `json:"category_id"`
}

// DishUpdate carries optional field changes; only non-nil fields apply.
type DishUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *int64           `json:"category_id,omitempty"`
}

// DishResponse represents a dish as exposed via transport layers.
type DishResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	CategoryID  int64           `json:"category_id"`
}

// NewDishResponse maps a dish entity onto its response shape.
func NewDishResponse(d *entity.Dish) DishResponse {
	return DishResponse{
		ID:          d.ID,
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		CategoryID:  d.CategoryID,
	}
}

// NewDishResponses maps a slice of dish entities.
func NewDishResponses(dishes []*entity.Dish) []DishResponse {
	out := make([]DishResponse, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, NewDishResponse(d))
	}
	return out
}
