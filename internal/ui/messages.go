package ui

import (
	"github.com/dori/focuscycle/internal/engine"
	"github.com/dori/focuscycle/internal/model"
)

// Messages for inter-component communication

// EventMsg carries one event from the scheduler loop
type EventMsg struct {
	Event engine.Event
}

// StreamClosedMsg is sent once the loop's event stream has ended
type StreamClosedMsg struct{}

// SummaryLoadedMsg contains today's history totals
type SummaryLoadedMsg struct {
	Summary *model.Summary
	Err     error
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message to display
type StatusMsg struct {
	Message string
}
