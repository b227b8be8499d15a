package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	auditSink portsrepo.AuditSink
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// publishAudit hands an event to the audit sink after commit. Sink failures are logged
// and never returned: the financial operation has already succeeded.
func (s *BaseService) publishAudit(ctx context.Context, action, entityType, entityID, userID string, attrs map[string]string) {
	if s.auditSink == nil {
		return
	}
	event := domain.AuditEvent{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      userID,
		OccurredAt: time.Now().UTC(),
		Attributes: attrs,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.auditSink.Publish(pubCtx, event); err != nil {
		s.LogWarn(ctx, "Audit sink rejected event",
			slog.String("error", err.Error()),
			slog.String("action", action),
			slog.String("entity_id", entityID))
	}
}
