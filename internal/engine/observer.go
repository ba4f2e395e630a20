package engine

import "time"

// EventType represents different lifecycle phases in command execution
type EventType string

const (
	EventLockAcquired EventType = "lock_acquired"
	EventLexStart     EventType = "lex_start"
	EventLexEnd       EventType = "lex_end"
	EventParseStart   EventType = "parse_start"
	EventParseEnd     EventType = "parse_end"
	EventExecStart    EventType = "exec_start"
	EventExecEnd      EventType = "exec_end"
	EventCommandEnd   EventType = "command_end"
	EventSaveStart    EventType = "save_start"
	EventSaveEnd      EventType = "save_end"
	EventReload       EventType = "reload"
)

// Event represents a lifecycle event in command execution
type Event struct {
	Type      EventType     // Type of event
	TxID      string        // Transaction ID for tracing
	Timestamp time.Time     // When the event occurred
	Command   string        // Command kind label ("create", "select", ... or "unknown")
	Duration  time.Duration // Lock wait, command, or save duration where relevant
	Err       error         // Failure for *_end and reload events
	Data      interface{}   // Phase-specific data (e.g., command text, token count, statement type)
}

// Observer interface for event subscribers.
// OnEvent is called with the engine guard held and must not call back into
// the engine.
type Observer interface {
	OnEvent(event Event)
}
