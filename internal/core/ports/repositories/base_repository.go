package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically.
//
// WithinTx begins a transaction, stores it in the context handed to fn and commits when
// fn returns nil. Repositories called with that context join the transaction.
// A nested WithinTx runs as a savepoint of the outer transaction: its failure undoes only
// its own writes, and nothing is durable until the outermost call commits.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
