package navigation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"backend-navtrack/internal/destination"
	"backend-navtrack/internal/location"
	"backend-navtrack/internal/shared/clock"
)

var ErrSessionNotFound = errors.New("navigation session not found")
var ErrMissingFields = errors.New("missing required fields")

// Service owns the session lifecycle: start, step events, completion. Step
// records are kept per session so per-session queries stay proportional to
// that session's own steps.
type Service struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	completed   map[string][]StepCompletion
	activeSteps map[string]*ActiveStep

	dest    *destination.Service
	tracker *location.Service
	clock   clock.Clock
}

func NewService(dest *destination.Service, tracker *location.Service, clk clock.Clock) *Service {
	return &Service{
		sessions:    map[string]*Session{},
		completed:   map[string][]StepCompletion{},
		activeSteps: map[string]*ActiveStep{},
		dest:        dest,
		tracker:     tracker,
		clock:       clk,
	}
}

// Start creates a session in the active state. Re-starting an existing
// session silently replaces it, including its step records; clients rely on
// a retried start call succeeding.
func (s *Service) Start(input StartInput) (StartResult, error) {
	if input.SessionID == "" {
		return StartResult{}, fmt.Errorf("%w: session_id", ErrMissingFields)
	}

	session := Session{
		SessionID:       input.SessionID,
		Destination:     s.dest.Get(),
		Origin:          input.Origin,
		TotalSteps:      input.TotalSteps,
		TotalDistance:   input.TotalDistance,
		TotalDuration:   input.TotalDuration,
		StartedAt:       s.clock.Now(),
		Status:          StatusActive,
		TrackingEnabled: true,
	}

	s.mu.Lock()
	s.sessions[input.SessionID] = &session
	delete(s.completed, input.SessionID)
	delete(s.activeSteps, input.SessionID)
	s.mu.Unlock()

	voice := fmt.Sprintf("Navigation started. Proceeding to %s. %s ahead.",
		session.Destination.Name, input.TotalDistance)
	return StartResult{
		Session:           session,
		DestinationName:   session.Destination.Name,
		VoiceAnnouncement: voice,
	}, nil
}

// RecordStepActive notes the step the walker just entered.
func (s *Service) RecordStepActive(input StepActiveInput) (StepActiveResult, error) {
	if input.StepInstruction == "" {
		return StepActiveResult{}, fmt.Errorf("%w: step_instruction", ErrMissingFields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[input.SessionID]
	if !ok {
		return StepActiveResult{}, ErrSessionNotFound
	}

	record := ActiveStep{
		SessionID:       input.SessionID,
		StepIndex:       input.StepIndex,
		StepInstruction: input.StepInstruction,
		StepDistance:    input.StepDistance,
		StepDuration:    input.StepDuration,
		Maneuver:        input.Maneuver,
		CurrentLocation: input.CurrentLocation,
		ActivatedAt:     s.clock.Now(),
	}
	s.activeSteps[input.SessionID] = &record
	session.CurrentStep = input.StepIndex
	session.LastUpdate = record.ActivatedAt

	voice := input.StepInstruction + "."
	if input.StepDistance != "" {
		voice = fmt.Sprintf("%s. %s", input.StepInstruction, input.StepDistance)
	}
	return StepActiveResult{
		Record:            record,
		StepsRemaining:    session.TotalSteps - input.StepIndex,
		DestinationName:   session.Destination.Name,
		VoiceAnnouncement: voice,
	}, nil
}

// RecordStepCompleted appends an immutable completion record and advances the
// session's progress.
func (s *Service) RecordStepCompleted(input StepCompletedInput) (StepCompletedResult, error) {
	if input.StepInstruction == "" || input.CurrentLocation == nil {
		return StepCompletedResult{}, fmt.Errorf("%w: step_instruction, current_location", ErrMissingFields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[input.SessionID]
	if !ok {
		return StepCompletedResult{}, ErrSessionNotFound
	}

	now := s.clock.Now()
	record := StepCompletion{
		SessionID:       input.SessionID,
		StepIndex:       input.StepIndex,
		StepInstruction: input.StepInstruction,
		StepDistance:    input.StepDistance,
		StepDuration:    input.StepDuration,
		CurrentLocation: *input.CurrentLocation,
		CompletionTime:  now,
		Accuracy:        input.Accuracy,
	}
	s.completed[input.SessionID] = append(s.completed[input.SessionID], record)

	session.CompletedSteps = input.StepIndex + 1
	session.LastUpdate = now

	progress := Progress{
		CompletedSteps: input.StepIndex + 1,
		TotalSteps:     session.TotalSteps,
		Percentage:     progressPercentage(input.StepIndex+1, session.TotalSteps),
		StepsRemaining: session.TotalSteps - (input.StepIndex + 1),
	}

	destName := session.Destination.Name
	var voice string
	if progress.StepsRemaining > 0 {
		voice = fmt.Sprintf("Step completed. %d steps remaining to %s.", progress.StepsRemaining, destName)
	} else {
		voice = fmt.Sprintf("Final step completed. You have arrived at %s.", destName)
	}

	return StepCompletedResult{
		Record:            record,
		Progress:          progress,
		DestinationName:   destName,
		VoiceAnnouncement: voice,
	}, nil
}

// Complete moves the session to its terminal state and freezes the final
// metrics. Re-completing overwrites them; the transition is one-way only in
// the sense that the session never becomes active again.
func (s *Service) Complete(input CompleteInput) (CompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[input.SessionID]
	if !ok {
		return CompleteResult{}, ErrSessionNotFound
	}

	session.Status = StatusCompleted
	session.TrackingEnabled = false
	session.CompletedAt = s.clock.Now()
	session.FinalLocation = input.FinalLocation
	session.ActualTotalTime = input.TotalTime
	session.ActualDistanceTraveled = input.TotalDistanceTraveled

	destName := session.Destination.Name
	return CompleteResult{
		Session:         *session,
		Summary:         s.summaryLocked(session),
		DestinationName: destName,
		VoiceAnnouncement: fmt.Sprintf(
			"Navigation complete. You have successfully arrived at %s.", destName),
	}, nil
}

// Status composes the session, its step records and the tracker's stats.
func (s *Service) Status(sessionID string) (StatusView, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return StatusView{}, ErrSessionNotFound
	}

	view := StatusView{
		Session:        *session,
		CompletedSteps: append([]StepCompletion(nil), s.completed[sessionID]...),
		Summary:        s.summaryLocked(session),
	}
	if active, ok := s.activeSteps[sessionID]; ok {
		record := *active
		view.ActiveStep = &record
	}
	s.mu.Unlock()

	if s.tracker != nil {
		if stats, err := s.tracker.Stats(sessionID); err == nil {
			view.LocationStats = &stats
		}
	}
	return view, nil
}

// summaryLocked derives the aggregate progress view. Caller holds s.mu.
func (s *Service) summaryLocked(session *Session) SessionSummary {
	done := len(s.completed[session.SessionID])
	return SessionSummary{
		TotalSteps:         session.TotalSteps,
		CompletedSteps:     done,
		ProgressPercentage: progressPercentage(done, session.TotalSteps),
		Status:             session.Status,
	}
}

// ActiveStepView reports the current step for a session, if any.
func (s *Service) ActiveStepView(sessionID string) (*ActiveStep, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var record *ActiveStep
	if active, ok := s.activeSteps[sessionID]; ok {
		copied := *active
		record = &copied
	}

	currentStep, totalSteps := 0, 0
	if session, ok := s.sessions[sessionID]; ok {
		currentStep = session.CurrentStep
		totalSteps = session.TotalSteps
	}
	return record, currentStep, totalSteps
}

// CompletedSteps lists completion records, for one session or for all of
// them ordered by completion time.
func (s *Service) CompletedSteps(sessionID string) []StepCompletion {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID != "" {
		return append([]StepCompletion(nil), s.completed[sessionID]...)
	}

	var all []StepCompletion
	for _, records := range s.completed {
		all = append(all, records...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CompletionTime.Before(all[j].CompletionTime)
	})
	return all
}

// ListAll snapshots every session with aggregate counts.
func (s *Service) ListAll() ([]Session, Counts) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]Session, 0, len(s.sessions))
	counts := Counts{Total: len(s.sessions)}
	for _, session := range s.sessions {
		sessions = append(sessions, *session)
		switch session.Status {
		case StatusActive:
			counts.Active++
		case StatusCompleted:
			counts.Completed++
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions, counts
}

// LastActivityAt reports the most recent step or lifecycle update across all
// sessions.
func (s *Service) LastActivityAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last time.Time
	found := false
	for _, session := range s.sessions {
		at := session.LastUpdate
		if at.IsZero() {
			at = session.StartedAt
		}
		if at.After(last) {
			last = at
			found = true
		}
	}
	return last, found
}

func progressPercentage(completed, totalSteps int) float64 {
	if totalSteps <= 0 {
		return 100
	}
	p := float64(completed) / float64(totalSteps) * 100
	return math.Round(p*10) / 10
}
