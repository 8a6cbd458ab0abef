package pgstore

import (
	"context"
	"errors"
	"time"

	"slotlease/internal/domain/lease"
	"slotlease/internal/domain/ledger"
	"slotlease/internal/domain/slot"
	"slotlease/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LeaseStore struct {
	pool *pgxpool.Pool
}

func NewLeaseStore(pool *pgxpool.Pool) *LeaseStore {
	return &LeaseStore{pool: pool}
}

const leaseColumns = `id, product, owner_id, slot_index, lessee_id,
	lower(during), upper(during), price::text, currency, regions, created_at`

// Commit inserts the lease. The schema's exclusion constraint on
// (product, owner_id, slot_index, during) decides races: the second of two
// overlapping inserts fails with an exclusion violation, surfaced as
// KindConflict.
func (s *LeaseStore) Commit(ctx context.Context, l *lease.Lease) error {
	coord := l.Coordinate()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leases (id, product, owner_id, slot_index, lessee_id, during, price, currency, regions)
		VALUES ($1, $2, $3, $4, $5, tstzrange($6, $7, '[)'), $8, $9, $10)`,
		l.ID(), coord.Product.String(), coord.OwnerID, coord.Index, l.LesseeID(),
		l.Window().Start(), l.Window().End(), l.Price().String(), l.Currency().String(), l.Regions(),
	)
	if err != nil {
		if pgErrCode(err) == pgErrCodeExclusionViolation {
			return infra.NewRepoErr(infra.KindConflict, "overlapping lease already committed", err)
		}
		return infra.NewRepoErr(infra.KindDBFailure, "failed to commit lease", err)
	}
	return nil
}

func (s *LeaseStore) Overlapping(ctx context.Context, coord slot.Coordinate, window lease.Window) ([]*lease.Lease, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE product = $1 AND owner_id = $2 AND slot_index = $3
		  AND during && tstzrange($4, $5, '[)')
		ORDER BY lower(during)`,
		coord.Product.String(), coord.OwnerID, coord.Index, window.Start(), window.End(),
	)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to query overlapping leases", err)
	}
	return scanLeases(rows)
}

func (s *LeaseStore) ActiveAt(ctx context.Context, coord slot.Coordinate, at time.Time) (*lease.Lease, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE product = $1 AND owner_id = $2 AND slot_index = $3
		  AND during @> $4::timestamptz`,
		coord.Product.String(), coord.OwnerID, coord.Index, at,
	)
	l, err := scanLease(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to query active lease", err)
	}
	return l, nil
}

func (s *LeaseStore) ActiveByProduct(ctx context.Context, product slot.ProductKind, ownerID uuid.UUID, at time.Time) ([]*lease.Lease, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE product = $1 AND owner_id = $2 AND during @> $3::timestamptz
		ORDER BY slot_index`,
		product.String(), ownerID, at,
	)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to query active leases", err)
	}
	return scanLeases(rows)
}

func (s *LeaseStore) History(ctx context.Context, coord slot.Coordinate) ([]*lease.Lease, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE product = $1 AND owner_id = $2 AND slot_index = $3
		ORDER BY lower(during)`,
		coord.Product.String(), coord.OwnerID, coord.Index,
	)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to query lease history", err)
	}
	return scanLeases(rows)
}

func (s *LeaseStore) FindByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+leaseColumns+`
		FROM leases
		WHERE id = $1`,
		id,
	)
	l, err := scanLease(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "lease not found", err)
		}
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to query lease", err)
	}
	return l, nil
}

func scanLease(row pgx.Row) (*lease.Lease, error) {
	var (
		id, ownerID, lesseeID uuid.UUID
		product, priceText    string
		index                 int
		start, end, createdAt time.Time
		currency              string
		regions               []string
	)
	if err := row.Scan(&id, &product, &ownerID, &index, &lesseeID,
		&start, &end, &priceText, &currency, &regions, &createdAt); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, err
	}
	window, err := lease.NewWindow(start, end)
	if err != nil {
		return nil, err
	}

	coord := slot.Coordinate{Product: slot.ProductKind(product), OwnerID: ownerID, Index: index}
	return lease.Reconstruct(id, coord, lesseeID, window, price, ledger.Currency(currency), regions, createdAt), nil
}

func scanLeases(rows pgx.Rows) ([]*lease.Lease, error) {
	defer rows.Close()

	var out []*lease.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to scan lease row", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "failed to read lease rows", err)
	}
	return out, nil
}
