package handler

import (
	"time"

	"pricetrends/internal/pricing/models"
)

// BoundsResponse is the HTTP response for GET /pricing/bounds.
type BoundsResponse struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

func fromRange(r models.DateRange) *BoundsResponse {
	return &BoundsResponse{Min: r.Start, Max: r.End}
}
