// Package queue defines the rental-request events exchanged over
// RabbitMQ and the consumer that records them.
package queue

// RentalRequestQueue is the durable queue rental-request events go to.
const RentalRequestQueue = "rental_requests.events"

// Rental request event actions.
const (
	ActionSubmitted = "submitted"
	ActionAccepted  = "accepted"
	ActionRejected  = "rejected"
)

// RentalRequestEvent is published after a rental request is created or
// answered.  It carries enough for consumers to log or notify without
// querying the primary database.
type RentalRequestEvent struct {
	RequestID     uint64  `json:"request_id"`
	Action        string  `json:"action"`
	StudentID     uint64  `json:"student_id"`
	LandlordID    uint64  `json:"landlord_id"`
	PropertyID    uint64  `json:"property_id"`
	PropertyTitle string  `json:"property_title"`
	Status        string  `json:"status"`
	Reason        *string `json:"reason,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
