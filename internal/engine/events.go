package engine

import "github.com/reefctl-io/reefctl/internal/appdef"

// EventType discriminates progress events emitted during a run.
type EventType string

const (
	// EventClassified fires once per application when its action is decided.
	EventClassified EventType = "classified"
	// EventProgress fires when a polled job reports a state, percent or
	// message different from the previous poll.
	EventProgress EventType = "progress"
	// EventLogs fires when a polled job reports a new logs excerpt.
	EventLogs EventType = "logs"
	// EventOutcome fires once per executed application at its terminal state.
	EventOutcome EventType = "outcome"
)

// Event is one progress update during a run. Which fields are meaningful
// depends on Type; App is always set.
type Event struct {
	Type    EventType
	App     string
	Action  appdef.Action
	Reason  string
	JobID   int64
	State   appdef.JobState
	Percent float64
	Message string
	Logs    string
	Err     error
}

// Callback receives run events as they happen, so progress is visible in
// real time rather than only in the final summary.
type Callback func(Event)
