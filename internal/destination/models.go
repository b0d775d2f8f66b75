package destination

import (
	"time"

	"backend-navtrack/internal/shared/geo"
)

type Destination struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Coordinates   geo.Coordinate `json:"coordinates"`
	Address       string         `json:"address"`
	Distance      string         `json:"distance"`
	EstimatedTime string         `json:"estimated_time"`
	Priority      string         `json:"priority"`
	Instructions  string         `json:"instructions"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty"`
}

// WithDistance is a destination enriched with distance figures relative to a
// caller-supplied location.
type WithDistance struct {
	Destination
	CalculatedDistance string `json:"calculated_distance,omitempty"`
	CalculatedTime     string `json:"calculated_time,omitempty"`
	DistanceMeters     int    `json:"distance_meters,omitempty"`
}

// Patch carries a partial update; empty strings and a nil Coordinates leave
// the stored value untouched.
type Patch struct {
	Name         string          `json:"name"`
	Coordinates  *geo.Coordinate `json:"coordinates"`
	Address      string          `json:"address"`
	Instructions string          `json:"instructions"`
}
