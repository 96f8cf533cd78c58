package domain

import "time"

// Status is the lifecycle state of an order. Transitions are driven by the
// kitchen worker that owns the in-flight queue message for the order; the
// only backwards edge is the failure rollback to StatusInQueue.
type Status string

const (
	StatusReceived  Status = "Received"
	StatusInQueue   Status = "In Queue"
	StatusPreparing Status = "Preparing"
	StatusReady     Status = "Ready for Pickup"
	StatusCompleted Status = "Completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusInQueue, StatusPreparing, StatusReady, StatusCompleted:
		return true
	}
	return false
}

type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order is the persisted record, keyed uniquely by OrderID.
// LastError holds the most recent fulfillment failure and is never cleared
// by a successful attempt.
type Order struct {
	OrderID    string      `json:"orderId"`
	Items      []OrderItem `json:"items"`
	Status     Status      `json:"status"`
	LastError  *string     `json:"lastError"`
	RetryCount int         `json:"retryCount"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// OrderMessage is the wire format handed to the broker: a copy of the order's
// identity and items, not a reference to the stored record.
type OrderMessage struct {
	ID    string      `json:"id"`
	Items []OrderItem `json:"items"`
}
