package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"pocketbook/internal/core"
)

// ChangeKind names the mutation a change event describes.
type ChangeKind string

const (
	ChangeExpenseAdded   ChangeKind = "expense_added"
	ChangeExpenseUpdated ChangeKind = "expense_updated"
	ChangeExpenseDeleted ChangeKind = "expense_deleted"
	ChangeBudgetUpdated  ChangeKind = "budget_updated"
	ChangeMonthCleared   ChangeKind = "month_cleared"
)

// ChangeMessage is the event published after every document mutation. It
// carries enough for the mirror worker to act without re-reading the
// document: the full expense for adds/updates, ids only otherwise.
type ChangeMessage struct {
	Kind      ChangeKind    `json:"kind"`
	ExpenseID int64         `json:"expense_id,omitempty"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Category  core.Category `json:"category,omitempty"`
	Month     string        `json:"month,omitempty"`
	Revision  int64         `json:"revision"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewChangeMessage creates an event for the given mutation kind.
func NewChangeMessage(kind ChangeKind, revision int64) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a change event.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("change message without kind")
	}
	return &msg, nil
}
