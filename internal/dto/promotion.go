package dto

import "github.com/cafeworks/espresso/internal/entity"

// PromotionCreate is the payload for scheduling a promotion.
type PromotionCreate struct {
	Description     string            `json:"description"`
	DiscountPercent int               `json:"discount_percent"`
	ValidFrom       Date              `json:"valid_from"`
	ValidTo         Date              `json:"valid_to"`
	StartTime       *entity.TimeOfDay `json:"start_time,omitempty"`
	EndTime         *entity.TimeOfDay `json:"end_time,omitempty"`
	DishIDs         []int64           `json:"dish_ids"`
}

// PromotionUpdate carries optional field changes; only non-nil fields apply.
// A non-nil DishIDs replaces the promotion's dish set wholesale.
type PromotionUpdate struct {
	Description     *string           `json:"description,omitempty"`
	DiscountPercent *int              `json:"discount_percent,omitempty"`
	ValidFrom       *Date             `json:"valid_from,omitempty"`
	ValidTo         *Date             `json:"valid_to,omitempty"`
	StartTime       *entity.TimeOfDay `json:"start_time,omitempty"`
	EndTime         *entity.TimeOfDay `json:"end_time,omitempty"`
	DishIDs         []int64           `json:"dish_ids,omitempty"`
}

// PromotionResponse represents a promotion with its resolved dish list.
type PromotionResponse struct {
	ID              int64             `json:"id"`
	Description     string            `json:"description"`
	DiscountPercent int               `json:"discount_percent"`
	ValidFrom       Date              `json:"valid_from"`
	ValidTo         Date              `json:"valid_to"`
	StartTime       *entity.TimeOfDay `json:"start_time,omitempty"`
	EndTime         *entity.TimeOfDay `json:"end_time,omitempty"`
	Dishes          []DishResponse    `json:"dishes"`
}

// NewPromotionResponse maps a promotion entity onto its response shape.
func NewPromotionResponse(p *entity.Promotion) PromotionResponse {
	return PromotionResponse{
		ID:              p.ID,
		Description:     p.Description,
		DiscountPercent: p.DiscountPercent,
		ValidFrom:       NewDate(p.ValidFrom),
		ValidTo:         NewDate(p.ValidTo),
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Dishes:          NewDishResponses(p.Dishes),
	}
}

// NewPromotionResponses maps a slice of promotion entities.
func NewPromotionResponses(promotions []*entity.Promotion) []PromotionResponse {
	out := make([]PromotionResponse, 0, len(promotions))
	for _, p := range promotions {
		out = append(out, NewPromotionResponse(p))
	}
	return out
}
