package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Op is the kind of store mutation an event reports.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

func (o Op) IsValid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// ExpenseEvent is a lightweight notification of a committed store mutation.
// It carries only the ID and version; consumers fetch the expense itself.
type ExpenseEvent struct {
	ID        string    `json:"id"`
	Op        Op        `json:"op"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(op Op, id string, version int64) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		Op:        op,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and validates an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	if !msg.Op.IsValid() {
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
