package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/models"
	"github.com/SscSPs/estate_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const installmentColumns = `installment_id, deal_id, sequence_no, amount, paid_amount, due_date, status,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxInstallmentRepository struct {
	BaseRepository
}

func newPgxInstallmentRepository(pool *pgxpool.Pool) *PgxInstallmentRepository {
	return &PgxInstallmentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.InstallmentRepositoryFacade = (*PgxInstallmentRepository)(nil)

// SaveInstallments inserts a payment plan in one batch.
func (r *PgxInstallmentRepository) SaveInstallments(ctx context.Context, installments []domain.DealInstallment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.atomically(ctx, func(q querier) error {
		batch := &pgx.Batch{}
		for _, inst := range installments {
			m := mapping.ToModelInstallment(inst)
			batch.Queue(`
				INSERT INTO deal_installments (`+installmentColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
			`, m.InstallmentID, m.DealID, m.SequenceNo, m.Amount, m.PaidAmount, m.DueDate, m.Status,
				m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
		}
		return mapError(q.SendBatch(ctx, batch).Close(), "insert installments")
	})
}

func (r *PgxInstallmentRepository) queryInstallments(ctx context.Context, query string, args ...any) ([]domain.DealInstallment, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query installments")
	}
	defer rows.Close()

	out := []domain.DealInstallment{}
	for rows.Next() {
		var m models.DealInstallment
		if err := rows.Scan(&m.InstallmentID, &m.DealID, &m.SequenceNo, &m.Amount, &m.PaidAmount, &m.DueDate, &m.Status,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		out = append(out, mapping.ToDomainInstallment(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate installments")
	}
	return out, nil
}

// ListInstallmentsByDeal returns the plan in sequence order.
func (r *PgxInstallmentRepository) ListInstallmentsByDeal(ctx context.Context, dealID string) ([]domain.DealInstallment, error) {
	return r.queryInstallments(ctx, `
		SELECT `+installmentColumns+` FROM deal_installments
		WHERE deal_id = $1
		ORDER BY sequence_no;
	`, dealID)
}

// FindOpenInstallmentsForUpdate locks the unsettled installments of a deal in FIFO order.
func (r *PgxInstallmentRepository) FindOpenInstallmentsForUpdate(ctx context.Context, dealID string) ([]domain.DealInstallment, error) {
	return r.queryInstallments(ctx, `
		SELECT `+installmentColumns+` FROM deal_installments
		WHERE deal_id = $1 AND status IN ('Pending', 'Partial')
		ORDER BY due_date, sequence_no
		FOR UPDATE;
	`, dealID)
}

// FindInstallmentsByIDsForUpdate locks the given installments in ID order.
func (r *PgxInstallmentRepository) FindInstallmentsByIDsForUpdate(ctx context.Context, installmentIDs []string) (map[string]domain.DealInstallment, error) {
	out := make(map[string]domain.DealInstallment, len(installmentIDs))
	if len(installmentIDs) == 0 {
		return out, nil
	}
	list, err := r.queryInstallments(ctx, `
		SELECT `+installmentColumns+` FROM deal_installments
		WHERE installment_id = ANY($1)
		ORDER BY installment_id
		FOR UPDATE;
	`, installmentIDs)
	if err != nil {
		return nil, err
	}
	for _, inst := range list {
		out[inst.InstallmentID] = inst
	}
	return out, nil
}

// UpdateInstallmentPaid writes the settled amount and status.
func (r *PgxInstallmentRepository) UpdateInstallmentPaid(ctx context.Context, installmentID string, paid decimal.Decimal, status domain.InstallmentStatus, at time.Time) error {
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE deal_installments
		SET paid_amount = $2, status = $3, last_updated_at = $4
		WHERE installment_id = $1;
	`, installmentID, paid, string(status), at)
	if err != nil {
		return mapError(err, "update installment "+installmentID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: installment %s", apperrors.ErrNotFound, installmentID)
	}
	return nil
}

// SaveAllocations appends to the allocation trail. The seq column keeps write order.
func (r *PgxInstallmentRepository) SaveAllocations(ctx context.Context, allocations []domain.ReceiptAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	return r.atomically(ctx, func(q querier) error {
		batch := &pgx.Batch{}
		for _, a := range allocations {
			m := mapping.ToModelAllocation(a)
			batch.Queue(`
				INSERT INTO receipt_allocations (allocation_id, payment_id, installment_id, amount, balance_before, balance_after, reversal_of_id, allocated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
			`, m.AllocationID, m.PaymentID, m.InstallmentID, m.Amount, m.BalanceBefore, m.BalanceAfter, m.ReversalOfID, m.AllocatedAt)
		}
		return mapError(q.SendBatch(ctx, batch).Close(), "insert allocations")
	})
}

// ListAllocationsByPayment returns a payment's allocations plus the reversal rows that
// point at them, in write order.
func (r *PgxInstallmentRepository) ListAllocationsByPayment(ctx context.Context, paymentID string) ([]domain.ReceiptAllocation, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT a.allocation_id, a.payment_id, a.installment_id, a.amount, a.balance_before, a.balance_after, a.reversal_of_id, a.allocated_at
		FROM receipt_allocations a
		WHERE a.payment_id = $1
		   OR a.reversal_of_id IN (SELECT allocation_id FROM receipt_allocations WHERE payment_id = $1)
		ORDER BY a.seq;
	`, paymentID)
	if err != nil {
		return nil, mapError(err, "list allocations of payment "+paymentID)
	}
	defer rows.Close()

	out := []domain.ReceiptAllocation{}
	for rows.Next() {
		var m models.ReceiptAllocation
		if err := rows.Scan(&m.AllocationID, &m.PaymentID, &m.InstallmentID, &m.Amount, &m.BalanceBefore, &m.BalanceAfter, &m.ReversalOfID, &m.AllocatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		out = append(out, mapping.ToDomainAllocation(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate allocations")
	}
	return out, nil
}
