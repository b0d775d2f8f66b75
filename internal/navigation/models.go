package navigation

import (
	"time"

	"backend-navtrack/internal/destination"
	"backend-navtrack/internal/location"
	"backend-navtrack/internal/shared/geo"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Session is one end-to-end navigation attempt. Destination is a snapshot
// taken at start time, not a live reference to the store.
type Session struct {
	SessionID              string                  `json:"session_id"`
	Destination            destination.Destination `json:"destination"`
	Origin                 *geo.Coordinate         `json:"origin,omitempty"`
	TotalSteps             int                     `json:"total_steps"`
	TotalDistance          string                  `json:"total_distance,omitempty"`
	TotalDuration          string                  `json:"total_duration,omitempty"`
	StartedAt              time.Time               `json:"started_at"`
	CurrentStep            int                     `json:"current_step"`
	CompletedSteps         int                     `json:"completed_steps"`
	Status                 string                  `json:"status"`
	TrackingEnabled        bool                    `json:"tracking_enabled"`
	LastUpdate             time.Time               `json:"last_update,omitempty"`
	CompletedAt            time.Time               `json:"completed_at,omitempty"`
	FinalLocation          *geo.Coordinate         `json:"final_location,omitempty"`
	ActualTotalTime        string                  `json:"actual_total_time,omitempty"`
	ActualDistanceTraveled float64                 `json:"actual_distance_traveled,omitempty"`
}

// StepCompletion is an immutable record of one finished instruction.
type StepCompletion struct {
	SessionID       string         `json:"session_id"`
	StepIndex       int            `json:"step_index"`
	StepInstruction string         `json:"step_instruction"`
	StepDistance    string         `json:"step_distance,omitempty"`
	StepDuration    string         `json:"step_duration,omitempty"`
	CurrentLocation geo.Coordinate `json:"current_location"`
	CompletionTime  time.Time      `json:"completion_time"`
	Accuracy        *float64       `json:"accuracy,omitempty"`
}

// ActiveStep records the instruction the walker is currently on.
type ActiveStep struct {
	SessionID       string          `json:"session_id"`
	StepIndex       int             `json:"step_index"`
	StepInstruction string          `json:"step_instruction"`
	StepDistance    string          `json:"step_distance,omitempty"`
	StepDuration    string          `json:"step_duration,omitempty"`
	Maneuver        string          `json:"maneuver,omitempty"`
	CurrentLocation *geo.Coordinate `json:"current_location,omitempty"`
	ActivatedAt     time.Time       `json:"activated_at"`
}

type StartInput struct {
	SessionID     string          `json:"session_id"`
	Origin        *geo.Coordinate `json:"origin,omitempty"`
	TotalSteps    int             `json:"total_steps"`
	TotalDistance string          `json:"total_distance,omitempty"`
	TotalDuration string          `json:"total_duration,omitempty"`
}

type StartResult struct {
	Session           Session `json:"session"`
	DestinationName   string  `json:"destination_name"`
	VoiceAnnouncement string  `json:"voice_announcement"`
}

type StepActiveInput struct {
	SessionID       string
	StepIndex       int
	StepInstruction string
	StepDistance    string
	StepDuration    string
	Maneuver        string
	CurrentLocation *geo.Coordinate
}

type StepActiveResult struct {
	Record            ActiveStep `json:"active_step"`
	StepsRemaining    int        `json:"steps_remaining"`
	DestinationName   string     `json:"destination_name"`
	VoiceAnnouncement string     `json:"voice_announcement"`
}

type StepCompletedInput struct {
	SessionID       string
	StepIndex       int
	StepInstruction string
	StepDistance    string
	StepDuration    string
	CurrentLocation *geo.Coordinate
	Accuracy        *float64
}

// Progress is the completion state reported after each finished step.
type Progress struct {
	CompletedSteps int     `json:"completed_steps"`
	TotalSteps     int     `json:"total_steps"`
	Percentage     float64 `json:"percentage"`
	StepsRemaining int     `json:"steps_remaining"`
}

type StepCompletedResult struct {
	Record            StepCompletion `json:"step_completion"`
	Progress          Progress       `json:"progress"`
	DestinationName   string         `json:"destination_name"`
	VoiceAnnouncement string         `json:"voice_announcement"`
}

type CompleteInput struct {
	SessionID             string
	FinalLocation         *geo.Coordinate
	TotalTime             string
	TotalDistanceTraveled float64
}

type CompleteResult struct {
	Session           Session        `json:"session"`
	Summary           SessionSummary `json:"summary"`
	DestinationName   string         `json:"destination_name"`
	VoiceAnnouncement string         `json:"voice_announcement"`
}

// SessionSummary is the aggregate view of one session's progress.
type SessionSummary struct {
	TotalSteps         int     `json:"total_steps"`
	CompletedSteps     int     `json:"completed_steps"`
	ProgressPercentage float64 `json:"progress_percentage"`
	Status             string  `json:"status"`
}

// StatusView composes a session with its step records and location stats.
type StatusView struct {
	Session        Session          `json:"session"`
	CompletedSteps []StepCompletion `json:"completed_steps_detail"`
	ActiveStep     *ActiveStep      `json:"active_step,omitempty"`
	Summary        SessionSummary   `json:"summary"`
	LocationStats  *location.Stats  `json:"location_stats,omitempty"`
}

// Counts summarizes sessions by status.
type Counts struct {
	Total     int `json:"total_sessions"`
	Active    int `json:"active_sessions"`
	Completed int `json:"completed_sessions"`
}
