// Package audit provides the sinks that receive ledger audit events after commit.
package audit

import (
	"context"
	"log/slog"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/middleware"
)

// LogSink writes audit events to the request logger.
type LogSink struct{}

var _ portsrepo.AuditSink = LogSink{}

func (LogSink) Publish(ctx context.Context, event domain.AuditEvent) error {
	attrs := make([]any, 0, len(event.Attributes)+4)
	attrs = append(attrs,
		slog.String("action", event.Action),
		slog.String("entity_type", event.EntityType),
		slog.String("entity_id", event.EntityID),
		slog.String("actor", event.Actor),
	)
	for k, v := range event.Attributes {
		attrs = append(attrs, slog.String(k, v))
	}
	middleware.GetLoggerFromCtx(ctx).Info("audit", attrs...)
	return nil
}
