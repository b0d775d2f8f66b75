package location

import (
	"time"

	"backend-navtrack/internal/shared/geo"
)

// DefaultSession keys updates that arrive without a session id, matching
// clients that track a single anonymous walk.
const DefaultSession = "default"

// RecentWindow is how fresh the last sample must be to count as live.
const RecentWindow = 30 * time.Second

// Sample is one received GPS fix. Immutable once ingested.
type Sample struct {
	SessionID        string         `json:"session_id,omitempty"`
	UserID           string         `json:"user_id,omitempty"`
	Coordinates      geo.Coordinate `json:"coordinates"`
	Altitude         *float64       `json:"altitude,omitempty"`
	Accuracy         *float64       `json:"accuracy,omitempty"`
	Speed            *float64       `json:"speed,omitempty"`
	Heading          *float64       `json:"heading,omitempty"`
	ClientTimestamp  time.Time      `json:"timestamp"`
	ServerReceivedAt time.Time      `json:"server_received_at"`
	Sequence         int            `json:"sequence"`
}

// Stats are derived incrementally per session; they are never rebuilt from
// the retained history.
type Stats struct {
	FirstLocation   *Sample   `json:"first_location,omitempty"`
	LastLocation    *Sample   `json:"last_location,omitempty"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	TotalUpdates    int       `json:"total_updates"`
	AverageAccuracy float64   `json:"average_accuracy"`
	SpeedRecords    []float64 `json:"speed_records,omitempty"`

	accuracySamples int
}

// Ack reports the outcome of a single accepted update.
type Ack struct {
	ReceivedAt   time.Time              `json:"received_at"`
	TotalUpdates int                    `json:"total_updates"`
	Distance     *DistanceToDestination `json:"distance_to_destination,omitempty"`
}

// DistanceToDestination is the best-effort enrichment attached to an ack.
type DistanceToDestination struct {
	Kilometers      float64 `json:"kilometers"`
	Meters          int     `json:"meters"`
	DestinationName string  `json:"destination_name"`
}

// CurrentView is the most recent sample plus freshness info.
type CurrentView struct {
	Sample             Sample  `json:"current_location"`
	SecondsSinceUpdate float64 `json:"seconds_since_last_update"`
	IsRecent           bool    `json:"is_recent"`
}
