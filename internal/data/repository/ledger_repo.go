package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"settlement-engine/internal/apperr"
	"settlement-engine/internal/data/entity"
	"settlement-engine/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type LedgerRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.LedgerEntry, error)
	FindByBookingID(ctx context.Context, bookingID string) (*entity.LedgerEntry, error)
	List(ctx context.Context, filter entity.LedgerFilter, limit, offset int) ([]*entity.LedgerEntry, error)
	Count(ctx context.Context, filter entity.LedgerFilter) (int64, error)
	FindAll(ctx context.Context, filter entity.LedgerFilter) ([]*entity.LedgerEntry, error)

	// UpdateStatus persists entry only if the stored row still has
	// expectedStatus and expectedVersion, and records transition in the
	// same transaction.
	UpdateStatus(ctx context.Context, entry *entity.LedgerEntry, expectedStatus entity.LedgerStatus, expectedVersion int, transition *entity.LedgerTransition) error
	ListTransitions(ctx context.Context, entryID uuid.UUID) ([]*entity.LedgerTransition, error)
}

type ledgerRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewLedgerRepository(db database.PgxIface, log *zap.Logger) LedgerRepository {
	return &ledgerRepository{
		db:  db,
		log: log.With(zap.String("repository", "ledger")),
	}
}

const ledgerColumns = `id, booking_id, operator_id, resource_type, gross_amount, commission_base, iva_amount,
		operator_payout, commission_rate, iva_rate, rate_config_id, status, paid_at, dispute_reason,
		version, created_at, updated_at`

func scanLedgerEntry(row scanner) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.BookingID,
		&e.OperatorID,
		&e.ResourceType,
		&e.GrossAmount,
		&e.CommissionBase,
		&e.IVAAmount,
		&e.OperatorPayout,
		&e.CommissionRate,
		&e.IVARate,
		&e.RateConfigID,
		&e.Status,
		&e.PaidAt,
		&e.DisputeReason,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ledgerWhere translates a filter into a WHERE clause with positional args.
func ledgerWhere(filter entity.LedgerFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.OperatorID != nil {
		add("operator_id = $%d", *filter.OperatorID)
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at < $%d", *filter.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *ledgerRepository) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	query := `
		INSERT INTO commission_ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (booking_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.BookingID,
		entry.OperatorID,
		string(entry.ResourceType),
		entry.GrossAmount,
		entry.CommissionBase,
		entry.IVAAmount,
		entry.OperatorPayout,
		entry.CommissionRate,
		entry.IVARate,
		entry.RateConfigID,
		string(entry.Status),
		entry.PaidAt,
		entry.DisputeReason,
		entry.Version,
		entry.CreatedAt,
		entry.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create ledger entry",
			zap.Error(err),
			zap.String("booking_id", entry.BookingID),
		)
		return fmt.Errorf("create ledger entry for booking %s: %w", entry.BookingID, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry for booking %s: %w", entry.BookingID, apperr.ErrAlreadyExists)
	}

	return nil
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM commission_ledger_entries WHERE id = $1`

	entry, err := scanLedgerEntry(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ledger entry by ID",
			zap.Error(err),
			zap.String("entry_id", id.String()),
		)
		return nil, fmt.Errorf("find ledger entry by ID %s: %w", id.String(), err)
	}

	return entry, nil
}

func (r *ledgerRepository) FindByBookingID(ctx context.Context, bookingID string) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM commission_ledger_entries WHERE booking_id = $1`

	entry, err := scanLedgerEntry(r.db.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ledger entry by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, fmt.Errorf("find ledger entry by booking ID %s: %w", bookingID, err)
	}

	return entry, nil
}

func (r *ledgerRepository) List(ctx context.Context, filter entity.LedgerFilter, limit, offset int) ([]*entity.LedgerEntry, error) {
	where, args := ledgerWhere(filter)
	args = append(args, limit, offset)

	query := `SELECT ` + ledgerColumns + ` FROM commission_ledger_entries` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.query(ctx, "list", query, args...)
}

func (r *ledgerRepository) FindAll(ctx context.Context, filter entity.LedgerFilter) ([]*entity.LedgerEntry, error) {
	where, args := ledgerWhere(filter)
	query := `SELECT ` + ledgerColumns + ` FROM commission_ledger_entries` + where + ` ORDER BY created_at DESC, id`

	return r.query(ctx, "find all", query, args...)
}

func (r *ledgerRepository) query(ctx context.Context, op, query string, args ...any) ([]*entity.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query ledger entries", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s ledger entries: %w", op, err)
	}
	defer rows.Close()

	var entries []*entity.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	return entries, nil
}

func (r *ledgerRepository) Count(ctx context.Context, filter entity.LedgerFilter) (int64, error) {
	where, args := ledgerWhere(filter)
	query := `SELECT COUNT(*) FROM commission_ledger_entries` + where

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count ledger entries", zap.Error(err))
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}

	return total, nil
}

func (r *ledgerRepository) UpdateStatus(
	ctx context.Context,
	entry *entity.LedgerEntry,
	expectedStatus entity.LedgerStatus,
	expectedVersion int,
	transition *entity.LedgerTransition,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin status update %s: %w", entry.ID.String(), err)
	}

	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Warn("Rollback failed", zap.Error(rbErr), zap.String("entry_id", entry.ID.String()))
		}
	}

	update := `
		UPDATE commission_ledger_entries
		SET status = $1, paid_at = $2, dispute_reason = $3, version = $4, updated_at = $5
		WHERE id = $6 AND status = $7 AND version = $8
	`

	tag, err := tx.Exec(ctx, update,
		string(entry.Status),
		entry.PaidAt,
		entry.DisputeReason,
		entry.Version,
		entry.UpdatedAt,
		entry.ID,
		string(expectedStatus),
		expectedVersion,
	)
	if err != nil {
		rollback()
		r.log.Error("Failed to update ledger status",
			zap.Error(err),
			zap.String("entry_id", entry.ID.String()),
		)
		return fmt.Errorf("update ledger entry status %s: %w", entry.ID.String(), err)
	}

	if tag.RowsAffected() == 0 {
		rollback()
		r.log.Warn("Ledger entry changed concurrently",
			zap.String("entry_id", entry.ID.String()),
			zap.String("expected_status", string(expectedStatus)),
			zap.Int("expected_version", expectedVersion),
		)
		return fmt.Errorf("update ledger entry %s: %w", entry.ID.String(), apperr.ErrPersistenceConflict)
	}

	insert := `
		INSERT INTO ledger_entry_transitions (id, entry_id, from_status, to_status, actor_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = tx.Exec(ctx, insert,
		transition.ID,
		transition.EntryID,
		string(transition.FromStatus),
		string(transition.ToStatus),
		transition.ActorID,
		transition.Reason,
		transition.CreatedAt,
	)
	if err != nil {
		rollback()
		r.log.Error("Failed to record ledger transition",
			zap.Error(err),
			zap.String("entry_id", entry.ID.String()),
		)
		return fmt.Errorf("record transition for %s: %w", entry.ID.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status update %s: %w", entry.ID.String(), err)
	}

	return nil
}

func (r *ledgerRepository) ListTransitions(ctx context.Context, entryID uuid.UUID) ([]*entity.LedgerTransition, error) {
	query := `
		SELECT id, entry_id, from_status, to_status, actor_id, reason, created_at
		FROM ledger_entry_transitions
		WHERE entry_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, entryID)
	if err != nil {
		r.log.Error("Failed to list transitions", zap.Error(err), zap.String("entry_id", entryID.String()))
		return nil, fmt.Errorf("list transitions for %s: %w", entryID.String(), err)
	}
	defer rows.Close()

	var transitions []*entity.LedgerTransition
	for rows.Next() {
		var t entity.LedgerTransition
		if err := rows.Scan(
			&t.ID,
			&t.EntryID,
			&t.FromStatus,
			&t.ToStatus,
			&t.ActorID,
			&t.Reason,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		transitions = append(transitions, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	return transitions, nil
}
