package dto

import "github.com/cafeworks/espresso/internal/entity"

// TableCreate is the payload for registering a café table.
type TableCreate struct {
	Number   int    `json:"number"`
	Location string `json:"location,omitempty"`
}

// TableUpdate carries optional field changes; only non-nil fields apply.
type TableUpdate struct {
	Number   *int    `json:"number,omitempty"`
	Location *string `json:"location,omitempty"`
}

// TableResponse represents a table as exposed via transport layers.
type TableResponse struct {
	ID       int64  `json:"id"`
	Number   int    `json:"number"`
	Location string `json:"location,omitempty"`
}

// NewTableResponse maps a table entity onto its response shape.
func NewTableResponse(t *entity.Table) TableResponse {
	return TableResponse{ID: t.ID, Number: t.Number, Location: t.Location}
}

// NewTableResponses maps a slice of table entities.
func NewTableResponses(tables []*entity.Table) []TableResponse {
	out := make([]TableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, NewTableResponse(t))
	}
	return out
}
