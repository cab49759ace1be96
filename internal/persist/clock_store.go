package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/timeskip/internal/clock"
	"github.com/l1jgo/timeskip/internal/config"
	"go.uber.org/zap"
)

// OpenClockStore returns the timestamp backend selected by cfg.Clock.Backend.
// The postgres backend connects and migrates first. The returned close func is
// always safe to call; desc names where the timestamp lives.
func OpenClockStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store clock.Store, closeFn func(), desc string, err error) {
	if cfg.Clock.Backend != "postgres" {
		fs := clock.NewFileStore(clock.FilePath(cfg.Server.WorldDir, cfg.Server.Dimension, cfg.Clock.FileName))
		return fs, func() {}, "file " + fs.Path(), nil
	}

	db, err := NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, "", fmt.Errorf("database: %w", err)
	}
	version, err := RunMigrations(ctx, db.Pool)
	if err != nil {
		db.Close()
		return nil, nil, "", fmt.Errorf("migrations: %w", err)
	}
	log.Info("clock schema ready", zap.Int64("version", version))
	return NewClockRepo(db, cfg.Server.Name), db.Close, fmt.Sprintf("postgres world_clock[%s]", cfg.Server.Name), nil
}
