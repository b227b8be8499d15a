package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/models"
	"github.com/SscSPs/estate_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const paymentColumns = `payment_id, payment_number, deal_id, amount, payment_type, payment_mode, installment_id,
	refund_of_id, reason, journal_entry_id, paid_at, deleted_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentRepository struct {
	BaseRepository
}

func newPgxPaymentRepository(pool *pgxpool.Pool) *PgxPaymentRepository {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

func scanPayment(row pgx.Row) (models.Payment, error) {
	var m models.Payment
	err := row.Scan(
		&m.PaymentID,
		&m.PaymentNumber,
		&m.DealID,
		&m.Amount,
		&m.PaymentType,
		&m.PaymentMode,
		&m.InstallmentID,
		&m.RefundOfID,
		&m.Reason,
		&m.JournalEntryID,
		&m.PaidAt,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SavePayment inserts a payment or refund.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`,
		m.PaymentID,
		m.PaymentNumber,
		m.DealID,
		m.Amount,
		m.PaymentType,
		m.PaymentMode,
		m.InstallmentID,
		m.RefundOfID,
		m.Reason,
		m.JournalEntryID,
		m.PaidAt,
		m.DeletedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return mapError(err, "save payment "+m.PaymentNumber)
}

// FindPaymentByID retrieves a payment by ID.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	m, err := scanPayment(r.db(ctx).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1;`, paymentID))
	if err != nil {
		return nil, mapError(err, "find payment "+paymentID)
	}
	p := mapping.ToDomainPayment(m)
	return &p, nil
}

// ListPaymentsByDeal returns the deal's payments and refunds in the order they were made.
func (r *PgxPaymentRepository) ListPaymentsByDeal(ctx context.Context, dealID string) ([]domain.Payment, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE deal_id = $1
		ORDER BY paid_at, created_at, payment_number;
	`, dealID)
	if err != nil {
		return nil, mapError(err, "list payments of deal "+dealID)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		m, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, mapping.ToDomainPayment(m))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate payments")
	}
	return payments, nil
}

// SumRefundsOf totals the live refunds pointing at a payment.
func (r *PgxPaymentRepository) SumRefundsOf(ctx context.Context, originalPaymentID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE refund_of_id = $1 AND deleted_at IS NULL;
	`, originalPaymentID).Scan(&total)
	if err != nil {
		return decimal.Zero, mapError(err, "sum refunds of "+originalPaymentID)
	}
	return total, nil
}

// TotalsByDeal aggregates live payments of a deal.
func (r *PgxPaymentRepository) TotalsByDeal(ctx context.Context, dealID string) (portsrepo.PaymentTotals, error) {
	var totals portsrepo.PaymentTotals
	err := r.db(ctx).QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN payment_type <> 'refund' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_type = 'refund' THEN amount ELSE 0 END), 0),
			COUNT(*)
		FROM payments
		WHERE deal_id = $1 AND deleted_at IS NULL;
	`, dealID).Scan(&totals.Received, &totals.Refunded, &totals.Count)
	if err != nil {
		return portsrepo.PaymentTotals{}, mapError(err, "total payments of deal "+dealID)
	}
	return totals, nil
}
