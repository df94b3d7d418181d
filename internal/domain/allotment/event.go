package allotment

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a notification published to subscribers.
type EventType string

const (
	// EventYourTurn is sent to a leader when their group's turn starts.
	EventYourTurn EventType = "your_turn"
	// EventTurnEnded is sent to a leader when their turn timed out.
	EventTurnEnded EventType = "turn_ended"
	// EventSelectionSuccessful is sent to a leader after a committed selection.
	EventSelectionSuccessful EventType = "selection_successful"
	// EventAllotmentFinished is broadcast when the queue is exhausted.
	EventAllotmentFinished EventType = "allotment_finished"
	// EventAllotmentCancelled is broadcast when an admin cancels the run.
	EventAllotmentCancelled EventType = "allotment_cancelled"
)

// Event is a single notification. Recipient is empty for broadcasts.
type Event struct {
	ID        string
	Type      EventType
	Recipient string
	Message   string
	Group     *Group
	Deadline  time.Time
	Timestamp time.Time
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(eventType EventType, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Broadcast reports whether the event is addressed to every subscriber.
func (e Event) Broadcast() bool {
	return e.Recipient == ""
}
