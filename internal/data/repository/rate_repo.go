package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"settlement-engine/internal/data/entity"
	"settlement-engine/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RateRepository interface {
	Create(ctx context.Context, rate *entity.RateConfig) error
	List(ctx context.Context) ([]*entity.RateConfig, error)
	// FindEffective returns the newest rate whose effective_from is not
	// after at, or nil when none is.
	FindEffective(ctx context.Context, at time.Time) (*entity.RateConfig, error)
}

type rateRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRateRepository(db database.PgxIface, log *zap.Logger) RateRepository {
	return &rateRepository{
		db:  db,
		log: log.With(zap.String("repository", "rate")),
	}
}

func (r *rateRepository) Create(ctx context.Context, rate *entity.RateConfig) error {
	query := `
		INSERT INTO rate_configs (id, commission_rate, iva_rate, effective_from, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		rate.ID,
		rate.CommissionRate,
		rate.IVARate,
		rate.EffectiveFrom,
		rate.CreatedBy,
		rate.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create rate config",
			zap.Error(err),
			zap.Time("effective_from", rate.EffectiveFrom),
		)
		return fmt.Errorf("create rate config: %w", err)
	}

	return nil
}

func (r *rateRepository) List(ctx context.Context) ([]*entity.RateConfig, error) {
	query := `
		SELECT id, commission_rate, iva_rate, effective_from, created_by, created_at
		FROM rate_configs
		ORDER BY effective_from DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list rate configs", zap.Error(err))
		return nil, fmt.Errorf("list rate configs: %w", err)
	}
	defer rows.Close()

	var rates []*entity.RateConfig
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rate config: %w", err)
		}
		rates = append(rates, rate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rate configs: %w", err)
	}

	return rates, nil
}

func (r *rateRepository) FindEffective(ctx context.Context, at time.Time) (*entity.RateConfig, error) {
	query := `
		SELECT id, commission_rate, iva_rate, effective_from, created_by, created_at
		FROM rate_configs
		WHERE effective_from <= $1
		ORDER BY effective_from DESC, created_at DESC
		LIMIT 1
	`

	rate, err := scanRate(r.db.QueryRow(ctx, query, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find effective rate", zap.Error(err), zap.Time("at", at))
		return nil, fmt.Errorf("find effective rate at %s: %w", at.Format(time.RFC3339), err)
	}

	return rate, nil
}

func scanRate(row scanner) (*entity.RateConfig, error) {
	var rate entity.RateConfig
	if err := row.Scan(
		&rate.ID,
		&rate.CommissionRate,
		&rate.IVARate,
		&rate.EffectiveFrom,
		&rate.CreatedBy,
		&rate.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rate, nil
}
