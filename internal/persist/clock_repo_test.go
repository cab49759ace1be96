package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/clock"
	"github.com/l1jgo/timeskip/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ clock.Store = (*ClockRepo)(nil)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TIMESKIP_TEST_DSN")
	if dsn == "" {
		t.Skip("TIMESKIP_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := NewDB(ctx, config.DatabaseConfig{
		DSN:             dsn,
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	_, err = RunMigrations(ctx, db.Pool)
	require.NoError(t, err)
	return db
}

func TestClockRepoRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewClockRepo(db, "test-"+uuid.NewString())

	_, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, 1000))
	require.NoError(t, repo.Save(ctx, 7_201_000))

	ts, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7_201_000), ts)
}
