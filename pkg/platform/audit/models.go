package audit

import "time"

// Action names the operation an event records.
type Action string

const (
	ActionDomainLookup     Action = "domain.lookup"
	ActionNodeCreated      Action = "node.created"
	ActionNodeDeleted      Action = "node.deleted"
	ActionConnectionAdded  Action = "connection.created"
	ActionConnectionRemove Action = "connection.deleted"
	ActionUserCreated      Action = "user.created"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out to Kafka, logs, or tests.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Subject is the entity acted on: a normalized domain name for lookups,
	// a node or connection ID for graph mutations.
	Subject string `json:"subject"`
	// UserID is the graph owner scope, empty for anonymous domain lookups.
	UserID    string `json:"user_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Outcome is "ok" or "error"; Detail carries the error text when set.
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}
