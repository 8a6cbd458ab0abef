package pgstore

import (
	"context"
	"errors"

	"slotlease/internal/domain/slot"
	"slotlease/internal/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type RateStore struct {
	pool *pgxpool.Pool
}

func NewRateStore(pool *pgxpool.Pool) *RateStore {
	return &RateStore{pool: pool}
}

func (s *RateStore) Find(ctx context.Context, coord slot.Coordinate) (decimal.Decimal, error) {
	var rateText string
	err := s.pool.QueryRow(ctx, `
		SELECT daily_rate::text FROM slot_rates
		WHERE product = $1 AND owner_id = $2 AND slot_index = $3`,
		coord.Product.String(), coord.OwnerID, coord.Index,
	).Scan(&rateText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, infra.NewRepoErr(infra.KindNotFound, "no rate configured for slot", err)
		}
		return decimal.Zero, infra.NewRepoErr(infra.KindDBFailure, "failed to query slot rate", err)
	}

	rate, err := decimal.NewFromString(rateText)
	if err != nil {
		return decimal.Zero, infra.NewRepoErr(infra.KindDBFailure, "failed to parse slot rate", err)
	}
	return rate, nil
}

func (s *RateStore) Upsert(ctx context.Context, coord slot.Coordinate, daily decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO slot_rates (product, owner_id, slot_index, daily_rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product, owner_id, slot_index)
		DO UPDATE SET daily_rate = EXCLUDED.daily_rate, updated_at = now()`,
		coord.Product.String(), coord.OwnerID, coord.Index, daily.String(),
	)
	if err != nil {
		return infra.NewRepoErr(infra.KindDBFailure, "failed to upsert slot rate", err)
	}
	return nil
}
