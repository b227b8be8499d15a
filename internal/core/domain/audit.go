package domain

import "time"

// AuditEvent is handed to the audit sink after a financial operation commits.
type AuditEvent struct {
	Action     string            `json:"action"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityID"`
	Actor      string            `json:"actor"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
