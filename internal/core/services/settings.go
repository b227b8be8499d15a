package services

import (
	"time"

	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
)

// LedgerSettings carries the knobs shared by the ledger services.
type LedgerSettings struct {
	CurrencyCode        string
	CurrencyScale       int32
	SequenceMaxRetries  int
	AccountNameFallback bool
	Now                 func() time.Time
}

// DefaultLedgerSettings returns the settings used when none are supplied.
func DefaultLedgerSettings() LedgerSettings {
	return LedgerSettings{
		CurrencyCode:        "PKR",
		CurrencyScale:       2,
		SequenceMaxRetries:  3,
		AccountNameFallback: true,
		Now:                 func() time.Time { return time.Now().UTC() },
	}
}

func (s LedgerSettings) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

// ContainerOption configures NewServiceContainer.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	settings  LedgerSettings
	auditSink portsrepo.AuditSink
}

// WithLedgerSettings overrides the default ledger settings.
func WithLedgerSettings(settings LedgerSettings) ContainerOption {
	return func(c *containerConfig) {
		c.settings = settings
	}
}

// WithAuditSink sets where audit events are published after commit.
func WithAuditSink(sink portsrepo.AuditSink) ContainerOption {
	return func(c *containerConfig) {
		c.auditSink = sink
	}
}
