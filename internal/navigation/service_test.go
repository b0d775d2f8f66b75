package navigation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"backend-navtrack/internal/destination"
	"backend-navtrack/internal/location"
	"backend-navtrack/internal/shared/clock"
	"backend-navtrack/internal/shared/geo"
)

func newTestService(clk clock.Clock) *Service {
	return NewService(destination.NewService(clk), nil, clk)
}

func coord(lat, lng float64) *geo.Coordinate {
	return &geo.Coordinate{Latitude: lat, Longitude: lng}
}

func TestStartSnapshotsDestination(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	dest := destination.NewService(clk)
	svc := NewService(dest, nil, clk)

	result, err := svc.Start(StartInput{SessionID: "S1", Origin: coord(32.0, 76.0), TotalSteps: 4})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Session.Status != StatusActive || !result.Session.TrackingEnabled {
		t.Fatalf("unexpected initial state: %+v", result.Session)
	}
	if !strings.Contains(result.VoiceAnnouncement, "Kangra Bus Stand") {
		t.Fatalf("unexpected announcement: %s", result.VoiceAnnouncement)
	}

	// later destination edits must not touch the snapshot
	dest.Update(destination.Patch{Name: "Somewhere Else"})
	view, err := svc.Status("S1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.Session.Destination.Name != "Kangra Bus Stand" {
		t.Fatalf("snapshot mutated: %s", view.Session.Destination.Name)
	}
}

func TestStartMissingSessionID(t *testing.T) {
	svc := newTestService(clock.NewFake(time.Now()))
	if _, err := svc.Start(StartInput{}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
}

func TestStartOverwritesExistingSession(t *testing.T) {
	clk := clock.NewFake(time.Now())
	svc := newTestService(clk)

	svc.Start(StartInput{SessionID: "S1", TotalSteps: 4})
	svc.RecordStepCompleted(StepCompletedInput{
		SessionID: "S1", StepIndex: 0, StepInstruction: "Turn left", CurrentLocation: coord(32, 76),
	})

	result, err := svc.Start(StartInput{SessionID: "S1", TotalSteps: 8})
	if err != nil {
		t.Fatalf("re-start: %v", err)
	}
	if result.Session.TotalSteps != 8 || result.Session.CompletedSteps != 0 {
		t.Fatalf("re-start must replace the session: %+v", result.Session)
	}
	if got := svc.CompletedSteps("S1"); len(got) != 0 {
		t.Fatalf("re-start must drop prior step records, got %d", len(got))
	}
}

func TestProgressSequence(t *testing.T) {
	clk := clock.NewFake(time.Now())
	svc := newTestService(clk)
	svc.Start(StartInput{SessionID: "S1", TotalSteps: 4})

	want := []float64{25.0, 50.0, 75.0, 100.0}
	for i := 0; i < 4; i++ {
		result, err := svc.RecordStepCompleted(StepCompletedInput{
			SessionID:       "S1",
			StepIndex:       i,
			StepInstruction: "Continue straight",
			CurrentLocation: coord(32.0, 76.0),
		})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if result.Progress.Percentage != want[i] {
			t.Fatalf("step %d percentage: got %v want %v", i, result.Progress.Percentage, want[i])
		}
		if i < 3 {
			if !strings.Contains(result.VoiceAnnouncement, "steps remaining") {
				t.Fatalf("unexpected announcement: %s", result.VoiceAnnouncement)
			}
		} else if !strings.Contains(result.VoiceAnnouncement, "arrived") {
			t.Fatalf("final step must announce arrival: %s", result.VoiceAnnouncement)
		}
	}
}

func TestProgressZeroTotalSteps(t *testing.T) {
	svc := newTestService(clock.NewFake(time.Now()))
	svc.Start(StartInput{SessionID: "S1", TotalSteps: 0})

	result, err := svc.RecordStepCompleted(StepCompletedInput{
		SessionID: "S1", StepIndex: 0, StepInstruction: "Walk", CurrentLocation: coord(32, 76),
	})
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if result.Progress.Percentage != 100 {
		t.Fatalf("expected 100%% with zero total steps, got %v", result.Progress.Percentage)
	}
}

func TestRecordStepCompletedValidation(t *testing.T) {
	svc := newTestService(clock.NewFake(time.Now()))
	svc.Start(StartInput{SessionID: "S1", TotalSteps: 4})

	_, err := svc.RecordStepCompleted(StepCompletedInput{
		SessionID: "S1", StepIndex: 0, CurrentLocation: coord(32, 76),
	})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected missing instruction error, got %v", err)
	}

	_, err = svc.RecordStepCompleted(StepCompletedInput{
		SessionID: "S1", StepIndex: 0, StepInstruction: "Turn right",
	})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected missing location error, got %v", err)
	}

	_, err = svc.RecordStepCompleted(StepCompletedInput{
		SessionID: "ghost", StepIndex: 0, StepInstruction: "Turn right", CurrentLocation: coord(32, 76),
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordStepActive(t *testing.T) {
	svc := newTestService(clock.NewFake(time.Now()))
	svc.Start(StartInput{SessionID: "S1", TotalSteps: 4})

	result, err := svc.RecordStepActive(StepActiveInput{
		SessionID:       "S1",
		StepIndex:       1,
		StepInstruction: "Turn left onto Mall Road",
		StepDistance:    "200 m",
		Maneuver:        "turn-left",
	})
	if err != nil {
		t.Fatalf("step active: %v", err)
	}
	if result.StepsRemaining != 3 {
		t.Fatalf("unexpected steps remaining: %d", result.StepsRemaining)
	}
	if result.VoiceAnnouncement != "Turn left onto Mall Road. 200 m" {
		t.Fatalf("unexpected announcement: %s", result.VoiceAnnouncement)
	}

	record, currentStep, totalSteps := svc.ActiveStepView("S1")
	if record == nil || record.StepIndex != 1 || currentStep != 1 || totalSteps != 4 {
		t.Fatalf("unexpected active view: %+v %d %d", record, currentStep, totalSteps)
	}

	if _, err := svc.RecordStepActive(StepActiveInput{SessionID: "ghost", StepIndex: 0, StepInstruction: "x"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestComplete(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	svc := newTestService(clk)
	svc.Start(StartInput{SessionID: "S1", TotalSteps: 2})
	svc.RecordStepCompleted(StepCompletedInput{
		SessionID: "S1", StepIndex: 0, StepInstruction: "Walk", CurrentLocation: coord(32, 76),
	})

	clk.Advance(20 * time.Minute)
	result, err := svc.Complete(CompleteInput{
		SessionID:             "S1",
		FinalLocation:         coord(32.0992, 76.2691),
		TotalTime:             "20 min",
		TotalDistanceTraveled: 1.4,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if result.Session.Status != StatusCompleted || result.Session.TrackingEnabled {
		t.Fatalf("unexpected completed state: %+v", result.Session)
	}
	if !result.Session.CompletedAt.Equal(clk.Now()) {
		t.Fatalf("expected completion stamp")
	}
	if result.Summary.CompletedSteps != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}

	// re-completion is tolerated and refreshes the final metrics
	clk.Advance(time.Minute)
	again, err := svc.Complete(CompleteInput{SessionID: "S1", TotalTime: "21 min"})
	if err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	if !again.Session.CompletedAt.After(result.Session.CompletedAt) {
		t.Fatalf("expected refreshed completion stamp")
	}

	if _, err := svc.Complete(CompleteInput{SessionID: "ghost"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusUnknownSession(t *testing.T) {
	svc := newTestService(clock.NewFake(time.Now()))
	if _, err := svc.Status("unknown-session"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusIncludesLocationStats(t *testing.T) {
	clk := clock.NewFake(time.Now())
	dest := destination.NewService(clk)
	tracker := location.NewService(200, 50, 50, nil, dest, nil, clk)
	svc := NewService(dest, tracker, clk)

	svc.Start(StartInput{SessionID: "S1", TotalSteps: 4})
	tracker.Ingest(context.Background(), "S1", location.Sample{
		Coordinates: geo.Coordinate{Latitude: 32.0, Longitude: 76.0},
	})

	view, err := svc.Status("S1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.LocationStats == nil || view.LocationStats.TotalUpdates != 1 {
		t.Fatalf("expected location stats in status view")
	}
}

func TestListAllAndCounts(t *testing.T) {
	clk := clock.NewFake(time.Now())
	svc := newTestService(clk)

	svc.Start(StartInput{SessionID: "S1", TotalSteps: 1})
	clk.Advance(time.Second)
	svc.Start(StartInput{SessionID: "S2", TotalSteps: 1})
	svc.Complete(CompleteInput{SessionID: "S2"})

	sessions, counts := svc.ListAll()
	if len(sessions) != 2 || counts.Total != 2 || counts.Active != 1 || counts.Completed != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if sessions[0].SessionID != "S1" {
		t.Fatalf("expected start-order listing")
	}
}

func TestCompletedStepsAcrossSessions(t *testing.T) {
	clk := clock.NewFake(time.Now())
	svc := newTestService(clk)
	svc.Start(StartInput{SessionID: "S1", TotalSteps: 2})
	svc.Start(StartInput{SessionID: "S2", TotalSteps: 2})

	svc.RecordStepCompleted(StepCompletedInput{SessionID: "S1", StepIndex: 0, StepInstruction: "a", CurrentLocation: coord(32, 76)})
	clk.Advance(time.Second)
	svc.RecordStepCompleted(StepCompletedInput{SessionID: "S2", StepIndex: 0, StepInstruction: "b", CurrentLocation: coord(32, 76)})

	all := svc.CompletedSteps("")
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if all[0].SessionID != "S1" || all[1].SessionID != "S2" {
		t.Fatalf("expected completion-time ordering")
	}

	if got := svc.CompletedSteps("S1"); len(got) != 1 {
		t.Fatalf("expected 1 record for S1, got %d", len(got))
	}
}

func TestLastActivityAt(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := newTestService(clk)

	if _, ok := svc.LastActivityAt(); ok {
		t.Fatalf("expected no activity on empty manager")
	}

	svc.Start(StartInput{SessionID: "S1", TotalSteps: 2})
	clk.Advance(time.Minute)
	svc.RecordStepCompleted(StepCompletedInput{SessionID: "S1", StepIndex: 0, StepInstruction: "a", CurrentLocation: coord(32, 76)})

	at, ok := svc.LastActivityAt()
	if !ok || !at.Equal(clk.Now()) {
		t.Fatalf("unexpected last activity: %v %v", at, ok)
	}
}
