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
)

const dealColumns = `deal_id, deal_number, client_id, dealer_id, property_unit_id, title, amount, stage, status,
	paid_total, commission_dealer_id, commission_rate, commission_fixed, revenue_recognized, recognition_entry_id,
	recognition_cycle, auto_closed, deleted_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxDealRepository struct {
	BaseRepository
}

func newPgxDealRepository(pool *pgxpool.Pool) *PgxDealRepository {
	return &PgxDealRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DealRepositoryFacade = (*PgxDealRepository)(nil)

func scanDeal(row pgx.Row) (models.Deal, error) {
	var m models.Deal
	err := row.Scan(
		&m.DealID,
		&m.DealNumber,
		&m.ClientID,
		&m.DealerID,
		&m.PropertyUnitID,
		&m.Title,
		&m.Amount,
		&m.Stage,
		&m.Status,
		&m.PaidTotal,
		&m.CommissionDealerID,
		&m.CommissionRate,
		&m.CommissionFixed,
		&m.RevenueRecognized,
		&m.RecognitionEntryID,
		&m.RecognitionCycle,
		&m.AutoClosed,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveDeal inserts a new deal.
func (r *PgxDealRepository) SaveDeal(ctx context.Context, deal domain.Deal) error {
	m := mapping.ToModelDeal(deal)
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO deals (`+dealColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);
	`,
		m.DealID,
		m.DealNumber,
		m.ClientID,
		m.DealerID,
		m.PropertyUnitID,
		m.Title,
		m.Amount,
		m.Stage,
		m.Status,
		m.PaidTotal,
		m.CommissionDealerID,
		m.CommissionRate,
		m.CommissionFixed,
		m.RevenueRecognized,
		m.RecognitionEntryID,
		m.RecognitionCycle,
		m.AutoClosed,
		m.DeletedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return mapError(err, "save deal "+m.DealNumber)
}

func (r *PgxDealRepository) findDeal(ctx context.Context, query, dealID string) (*domain.Deal, error) {
	m, err := scanDeal(r.db(ctx).QueryRow(ctx, query, dealID))
	if err != nil {
		return nil, mapError(err, "find deal "+dealID)
	}
	d := mapping.ToDomainDeal(m)
	return &d, nil
}

// FindDealByID retrieves a deal, deleted or not.
func (r *PgxDealRepository) FindDealByID(ctx context.Context, dealID string) (*domain.Deal, error) {
	return r.findDeal(ctx, `SELECT `+dealColumns+` FROM deals WHERE deal_id = $1;`, dealID)
}

// FindDealByIDForUpdate retrieves a deal and locks its row.
func (r *PgxDealRepository) FindDealByIDForUpdate(ctx context.Context, dealID string) (*domain.Deal, error) {
	return r.findDeal(ctx, `SELECT `+dealColumns+` FROM deals WHERE deal_id = $1 FOR UPDATE;`, dealID)
}

// UpdateDealState writes the fields owned by the stage machine.
func (r *PgxDealRepository) UpdateDealState(ctx context.Context, deal domain.Deal) error {
	m := mapping.ToModelDeal(deal)
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE deals
		SET stage = $2, status = $3, paid_total = $4, revenue_recognized = $5, recognition_entry_id = $6,
			recognition_cycle = $7, auto_closed = $8, last_updated_at = $9, last_updated_by = $10
		WHERE deal_id = $1 AND deleted_at IS NULL;
	`,
		m.DealID,
		m.Stage,
		m.Status,
		m.PaidTotal,
		m.RevenueRecognized,
		m.RecognitionEntryID,
		m.RecognitionCycle,
		m.AutoClosed,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, "update deal "+m.DealID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, m.DealID)
	}
	return nil
}

// SoftDeleteDeal stamps deleted_at once. Deleting an already deleted deal is a no-op.
func (r *PgxDealRepository) SoftDeleteDeal(ctx context.Context, dealID string, at time.Time, userID string) error {
	_, err := r.db(ctx).Exec(ctx, `
		UPDATE deals
		SET deleted_at = $2, deleted_by = $3, last_updated_at = $2, last_updated_by = $3
		WHERE deal_id = $1 AND deleted_at IS NULL;
	`, dealID, at, userID)
	return mapError(err, "soft delete deal "+dealID)
}

// PgxUnitRepository keeps the sale status of property units.
type PgxUnitRepository struct {
	BaseRepository
}

func newPgxUnitRepository(pool *pgxpool.Pool) *PgxUnitRepository {
	return &PgxUnitRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PropertyUnitRepository = (*PgxUnitRepository)(nil)

// UpdateUnitStatus upserts the unit row; units are owned by the inventory module and may
// not have been seen here before.
func (r *PgxUnitRepository) UpdateUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus, at time.Time) error {
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO property_units (unit_id, status, last_updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (unit_id) DO UPDATE SET status = EXCLUDED.status, last_updated_at = EXCLUDED.last_updated_at;
	`, unitID, string(status), at)
	return mapError(err, "update unit "+unitID)
}
