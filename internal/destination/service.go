package destination

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"backend-navtrack/internal/shared/clock"
	"backend-navtrack/internal/shared/geo"

	"github.com/google/uuid"
)

// Service holds the single active destination. It is seeded with a default at
// startup and mutated in place by admin updates; it is never removed.
type Service struct {
	mu      sync.RWMutex
	current Destination
	clock   clock.Clock
}

func NewService(clk clock.Clock) *Service {
	return &Service{
		clock: clk,
		current: Destination{
			ID:          "dest_" + uuid.NewString()[:8],
			Name:        "Kangra Bus Stand",
			Description: "Main Bus Stand - Public Transport Hub",
			Category:    "Transport",
			Coordinates: geo.Coordinate{
				Latitude:  32.0992,
				Longitude: 76.2691,
			},
			Address:       "Bus Stand Road, Kangra, Himachal Pradesh",
			Distance:      "TBD",
			EstimatedTime: "TBD",
			Priority:      "high",
			Instructions:  "Navigate to Kangra bus stand for public transport",
		},
	}
}

// Get returns a copy; callers cannot mutate the stored record through it.
func (s *Service) Get() Destination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies only the fields present in the patch and stamps updated_at.
// Coordinate values are caller-trusted and not range checked.
func (s *Service) Update(patch Patch) Destination {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Name != "" {
		s.current.Name = patch.Name
	}
	if patch.Coordinates != nil {
		s.current.Coordinates = *patch.Coordinates
	}
	if patch.Address != "" {
		s.current.Address = patch.Address
	}
	if patch.Instructions != "" {
		s.current.Instructions = patch.Instructions
	}
	s.current.UpdatedAt = s.clock.Now()

	return s.current
}

// WithUserDistance enriches a copy of the destination with the distance from
// rawLocation ("lat,lng"). A malformed location is logged and the static
// placeholder fields are kept; it is never surfaced as a failure.
func (s *Service) WithUserDistance(rawLocation string) WithDistance {
	dest := WithDistance{Destination: s.Get()}

	user, err := ParseCoordinate(rawLocation)
	if err != nil {
		log.Printf("distance calculation error: %v", err)
		return dest
	}

	km := geo.DistanceKm(user, dest.Coordinates)
	dest.CalculatedDistance = fmt.Sprintf("%.1f km", km)
	dest.CalculatedTime = fmt.Sprintf("%d min", geo.WalkTimeMinutes(km))
	dest.DistanceMeters = int(km * 1000)
	return dest
}

// ParseCoordinate parses a "lat,lng" pair.
func ParseCoordinate(raw string) (geo.Coordinate, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return geo.Coordinate{}, fmt.Errorf("expected lat,lng, got %q", raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return geo.Coordinate{Latitude: lat, Longitude: lng}, nil
}
