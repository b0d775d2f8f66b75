package analytics

import (
	"time"

	"backend-navtrack/internal/destination"
	"backend-navtrack/internal/location"
	"backend-navtrack/internal/navigation"
	"backend-navtrack/internal/shared/clock"
)

// RecentActivityWindow bounds how old the newest update may be for the
// service to count as actively tracked.
const RecentActivityWindow = 300 * time.Second

// Service derives read-only rollups from the other stores; it holds no state
// of its own.
type Service struct {
	nav     *navigation.Service
	tracker *location.Service
	dest    *destination.Service
	clock   clock.Clock
}

func NewService(nav *navigation.Service, tracker *location.Service, dest *destination.Service, clk clock.Clock) *Service {
	return &Service{nav: nav, tracker: tracker, dest: dest, clock: clk}
}

type NavigationSummary struct {
	TotalSessions       int `json:"total_sessions"`
	ActiveSessions      int `json:"active_sessions"`
	CompletedSessions   int `json:"completed_sessions"`
	TotalCompletedSteps int `json:"total_completed_steps"`
}

type LocationSummary struct {
	TotalPoints     int        `json:"total_points"`
	TrackedSessions int        `json:"tracked_sessions"`
	LatestUpdate    *time.Time `json:"latest_update,omitempty"`
}

type Summary struct {
	Navigation         NavigationSummary       `json:"navigation"`
	Locations          LocationSummary         `json:"locations"`
	CurrentDestination destination.Destination `json:"current_destination"`
	RecentActivity     bool                    `json:"recent_activity"`
}

type Health struct {
	Message             string `json:"message"`
	ActiveSessions      int    `json:"active_sessions"`
	TotalSessions       int    `json:"total_sessions"`
	TotalLocationPoints int    `json:"total_location_points"`
	CurrentDestination  string `json:"current_destination"`
	ServiceType         string `json:"service_type"`
}

func (s *Service) Summary() Summary {
	_, counts := s.nav.ListAll()

	summary := Summary{
		Navigation: NavigationSummary{
			TotalSessions:       counts.Total,
			ActiveSessions:      counts.Active,
			CompletedSessions:   counts.Completed,
			TotalCompletedSteps: len(s.nav.CompletedSteps("")),
		},
		Locations: LocationSummary{
			TotalPoints:     s.tracker.TotalPoints(),
			TrackedSessions: s.tracker.SessionCount(),
		},
		CurrentDestination: s.dest.Get(),
		RecentActivity:     s.hasRecentActivity(),
	}
	if at, ok := s.tracker.LastReceivedAt(); ok {
		summary.Locations.LatestUpdate = &at
	}
	return summary
}

func (s *Service) Health() Health {
	_, counts := s.nav.ListAll()
	return Health{
		Message:             "Navigation API is running!",
		ActiveSessions:      counts.Active,
		TotalSessions:       counts.Total,
		TotalLocationPoints: s.tracker.TotalPoints(),
		CurrentDestination:  s.dest.Get().Name,
		ServiceType:         "blind_navigation",
	}
}

// hasRecentActivity is true when any session saw a location or lifecycle
// update inside the activity window.
func (s *Service) hasRecentActivity() bool {
	now := s.clock.Now()
	if at, ok := s.tracker.LastReceivedAt(); ok && now.Sub(at) < RecentActivityWindow {
		return true
	}
	if at, ok := s.nav.LastActivityAt(); ok && now.Sub(at) < RecentActivityWindow {
		return true
	}
	return false
}
