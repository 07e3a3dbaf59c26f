// README: Fare preset store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetTier(ctx context.Context, name string) (Tier, error) {
	row := s.db.QueryRow(ctx, `
		SELECT name, base_fare, base_km, per_km_rate, currency
		FROM fare_presets
		WHERE name = $1`, name,
	)

	var t Tier
	err := row.Scan(&t.Name, &t.BaseFare, &t.BaseKm, &t.PerKmRate, &t.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tier{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	if err != nil {
		return Tier{}, fmt.Errorf("query fare preset %q: %w", name, err)
	}
	return t, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
