package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"backend-navtrack/internal/destination"
	"backend-navtrack/internal/shared/clock"
	"backend-navtrack/internal/shared/geo"
	"backend-navtrack/internal/stream"
	"backend-navtrack/internal/throttle"
)

var ErrNoLocations = errors.New("no location data available")
var ErrBatchTooLarge = errors.New("bulk batch exceeds maximum size")

// ThrottledError reports an update rejected by the spacing policy.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("location update throttled, retry in %.1fs", e.RetryAfter.Seconds())
}

// Service owns per-session location histories and their derived stats. All
// state lives in process memory and is lost on restart.
type Service struct {
	mu        sync.Mutex
	histories map[string][]Sample
	stats     map[string]*Stats

	historyCap int
	speedCap   int
	bulkMax    int

	limiter throttle.Limiter
	dest    *destination.Service
	hub     *stream.Hub
	clock   clock.Clock
}

func NewService(historyCap, speedCap, bulkMax int, limiter throttle.Limiter, dest *destination.Service, hub *stream.Hub, clk clock.Clock) *Service {
	return &Service{
		histories:  map[string][]Sample{},
		stats:      map[string]*Stats{},
		historyCap: historyCap,
		speedCap:   speedCap,
		bulkMax:    bulkMax,
		limiter:    limiter,
		dest:       dest,
		hub:        hub,
		clock:      clk,
	}
}

// Ingest accepts a single update for a session: throttle check, bounded
// append, incremental stats, then best-effort distance to the destination.
func (s *Service) Ingest(ctx context.Context, sessionID string, in Sample) (Ack, error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}
	now := s.clock.Now()

	if s.limiter != nil {
		allowed, retryAfter := s.limiter.Allow(ctx, sessionID, now)
		if !allowed {
			return Ack{}, &ThrottledError{RetryAfter: retryAfter}
		}
	}

	s.mu.Lock()
	sample := s.appendLocked(sessionID, in, now)
	ack := Ack{
		ReceivedAt:   sample.ServerReceivedAt,
		TotalUpdates: s.stats[sessionID].TotalUpdates,
	}
	s.mu.Unlock()

	ack.Distance = s.distanceToDestination(sample.Coordinates)

	if s.hub != nil {
		if payload, err := json.Marshal(sample); err == nil {
			s.hub.Broadcast(sessionID, payload)
		}
	}

	return ack, nil
}

// BulkIngest replays an ordered batch for a session. The batch bypasses the
// throttle and the destination enrichment; oversized batches are rejected
// whole.
func (s *Service) BulkIngest(_ context.Context, sessionID string, samples []Sample) (int, error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}
	if len(samples) > s.bulkMax {
		return 0, ErrBatchTooLarge
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range samples {
		s.appendLocked(sessionID, in, now)
	}
	return len(samples), nil
}

// appendLocked stamps, appends and evicts, and folds the sample into the
// session stats. Caller holds s.mu.
func (s *Service) appendLocked(sessionID string, in Sample, now time.Time) Sample {
	in.SessionID = sessionID
	in.ServerReceivedAt = now
	if in.ClientTimestamp.IsZero() {
		in.ClientTimestamp = now
	}

	st := s.stats[sessionID]
	if st == nil {
		st = &Stats{}
		s.stats[sessionID] = st
	}
	in.Sequence = st.TotalUpdates + 1

	history := append(s.histories[sessionID], in)
	if len(history) > s.historyCap {
		history = history[len(history)-s.historyCap:]
	}
	s.histories[sessionID] = history

	if st.FirstLocation == nil {
		first := in
		st.FirstLocation = &first
	}
	if st.TotalUpdates > 0 {
		st.TotalDistanceKm += geo.DistanceKm(st.LastLocation.Coordinates, in.Coordinates)
	}
	st.TotalUpdates++
	last := in
	st.LastLocation = &last

	if in.Accuracy != nil {
		st.accuracySamples++
		n := float64(st.accuracySamples)
		st.AverageAccuracy = (st.AverageAccuracy*(n-1) + *in.Accuracy) / n
	}
	if in.Speed != nil && *in.Speed > 0 {
		st.SpeedRecords = append(st.SpeedRecords, *in.Speed)
		if len(st.SpeedRecords) > s.speedCap {
			st.SpeedRecords = st.SpeedRecords[len(st.SpeedRecords)-s.speedCap:]
		}
	}

	return in
}

// distanceToDestination is optional enrichment; a failed calculation is
// logged and dropped, never surfaced.
func (s *Service) distanceToDestination(from geo.Coordinate) *DistanceToDestination {
	if s.dest == nil {
		return nil
	}
	dest := s.dest.Get()
	km := geo.DistanceKm(from, dest.Coordinates)
	if math.IsNaN(km) || math.IsInf(km, 0) {
		log.Printf("distance calculation error: invalid coordinates %+v", from)
		return nil
	}
	return &DistanceToDestination{
		Kilometers:      math.Round(km*1000) / 1000,
		Meters:          int(math.Round(km * 1000)),
		DestinationName: dest.Name,
	}
}

// Current returns the latest sample for a session with freshness info.
func (s *Service) Current(sessionID string) (CurrentView, error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}

	s.mu.Lock()
	history := s.histories[sessionID]
	if len(history) == 0 {
		s.mu.Unlock()
		return CurrentView{}, ErrNoLocations
	}
	latest := history[len(history)-1]
	s.mu.Unlock()

	now := s.clock.Now()
	return CurrentView{
		Sample:             latest,
		SecondsSinceUpdate: now.Sub(latest.ServerReceivedAt).Seconds(),
		IsRecent:           IsRecent(latest, now),
	}, nil
}

// History returns the retained samples in arrival order, most recent limit
// entries when limit > 0.
func (s *Service) History(sessionID string, limit int) []Sample {
	if sessionID == "" {
		sessionID = DefaultSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.histories[sessionID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]Sample, len(history))
	copy(out, history)
	return out
}

// Stats returns a snapshot of the session's derived statistics.
func (s *Service) Stats(sessionID string) (Stats, error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[sessionID]
	if !ok {
		return Stats{}, ErrNoLocations
	}
	out := *st
	out.SpeedRecords = append([]float64(nil), st.SpeedRecords...)
	return out, nil
}

// SessionCount reports how many sessions hold retained samples.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.histories)
}

// TotalPoints reports retained samples across all sessions.
func (s *Service) TotalPoints() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, h := range s.histories {
		total += len(h)
	}
	return total
}

// LastReceivedAt reports the most recent arrival across all sessions.
func (s *Service) LastReceivedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last time.Time
	found := false
	for _, st := range s.stats {
		if st.LastLocation != nil && st.LastLocation.ServerReceivedAt.After(last) {
			last = st.LastLocation.ServerReceivedAt
			found = true
		}
	}
	return last, found
}

// IsRecent reports whether a sample arrived within the recent window.
func IsRecent(sample Sample, now time.Time) bool {
	return now.Sub(sample.ServerReceivedAt) < RecentWindow
}

// WindowDistanceKm sums consecutive distances over a slice of samples. Used
// for history views over a limited window.
func WindowDistanceKm(samples []Sample) float64 {
	total := 0.0
	for i := 1; i < len(samples); i++ {
		total += geo.DistanceKm(samples[i-1].Coordinates, samples[i].Coordinates)
	}
	return total
}
