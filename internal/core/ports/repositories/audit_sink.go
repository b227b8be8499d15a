package repositories

import (
	"context"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// AuditSink receives audit events after a financial operation has committed.
// Publishing is fire-and-forget: a failing sink never undoes a posting.
type AuditSink interface {
	Publish(ctx context.Context, event domain.AuditEvent) error
}
