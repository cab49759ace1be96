package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ClockRepo stores the last-seen timestamp of one world in the world_clock
// table. It satisfies clock.Store.
type ClockRepo struct {
	db    *DB
	world string
}

func NewClockRepo(db *DB, world string) *ClockRepo {
	return &ClockRepo{db: db, world: world}
}

func (r *ClockRepo) Load(ctx context.Context) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ts int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT last_seen_ms FROM world_clock WHERE world = $1`, r.world,
	).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load world clock %s: %w", r.world, err)
	}
	return ts, true, nil
}

func (r *ClockRepo) Save(ctx context.Context, ts int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO world_clock (world, last_seen_ms, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (world) DO UPDATE SET last_seen_ms = EXCLUDED.last_seen_ms, updated_at = now()`,
		r.world, ts,
	)
	if err != nil {
		return fmt.Errorf("save world clock %s: %w", r.world, err)
	}
	return nil
}
