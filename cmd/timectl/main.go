// timectl inspects and edits the offline clock and world save of a timeskip
// server while it is stopped.
//
// Usage:
//
//	go run ./cmd/timectl <command> [-config path] [flags]
//
// Commands: gap, rewind, stamp, inspect
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/l1jgo/timeskip/internal/catchup"
	"github.com/l1jgo/timeskip/internal/clock"
	"github.com/l1jgo/timeskip/internal/config"
	"github.com/l1jgo/timeskip/internal/persist"
	"github.com/l1jgo/timeskip/internal/world"
	"go.uber.org/zap"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: timectl <command> [-config path] [flags]

Commands:
  gap      print the offline gap the next start would replay
  rewind   move the last-seen timestamp back (-by 2h)
  stamp    set the last-seen timestamp to now
  inspect  summarize the world save`)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cfgPath := fs.String("config", "config/server.toml", "server config file")
	by := fs.Duration("by", time.Hour, "rewind: how far back to move the timestamp")
	_ = fs.Parse(os.Args[2:])

	commands := map[string]func(context.Context, *config.Config) error{
		"gap":     showGap,
		"rewind":  func(ctx context.Context, cfg *config.Config) error { return rewind(ctx, cfg, *by) },
		"stamp":   func(ctx context.Context, cfg *config.Config) error { return rewind(ctx, cfg, 0) },
		"inspect": inspect,
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := fn(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR [%s]: %v\n", cmd, err)
		os.Exit(1)
	}
}

func openTracker(ctx context.Context, cfg *config.Config) (*clock.Tracker, clock.Store, func(), error) {
	store, closeFn, where, err := persist.OpenClockStore(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, nil, nil, err
	}
	fmt.Printf("clock: %s\n", where)
	tr := clock.NewTracker(store, cfg.MsPerTick(), zap.NewNop(), clock.WithTimeScale(cfg.Catchup.TimeScale))
	return tr, store, closeFn, nil
}

func showGap(ctx context.Context, cfg *config.Config) error {
	tr, _, closeFn, err := openTracker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	g := tr.Gap(ctx)
	fmt.Printf("gap: %s\n", g)
	if g.NeedsCatchup() {
		fmt.Printf("growth attempts per cell: %d (ceiling %d)\n",
			catchup.GrowthAttempts(g.ElapsedTicks, world.DefaultRandomTickRate, cfg.Catchup.GrowthCeiling),
			cfg.Catchup.GrowthCeiling)
	}
	return nil
}

// rewind stores now minus d as the last-seen time; d == 0 stamps now.
func rewind(ctx context.Context, cfg *config.Config, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("-by must not be negative, got %s", d)
	}
	tr, store, closeFn, err := openTracker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ts := tr.Now() - d.Milliseconds()
	if err := store.Save(ctx, ts); err != nil {
		return err
	}
	fmt.Printf("last seen set to %s\n", time.UnixMilli(ts).Format(time.RFC3339))
	return nil
}

func inspect(_ context.Context, cfg *config.Config) error {
	sf, found, err := world.ReadSave(cfg.Data.SavePath)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("no world save at %s\n", cfg.Data.SavePath)
		return nil
	}
	fmt.Printf("world save: %s\n", cfg.Data.SavePath)
	for _, d := range sf.Dimensions {
		cells, furnaces := 0, 0
		for _, r := range d.Regions {
			cells += len(r.Cells)
			furnaces += len(r.Furnaces)
		}
		fmt.Printf("  %-12s random_tick_rate=%d regions=%d cells=%d furnaces=%d\n",
			d.ID, d.RandomTickRate, len(d.Regions), cells, furnaces)
	}
	tagged := 0
	for _, a := range sf.Actors {
		for _, tag := range a.Tags {
			if tag == catchup.MarkerTag {
				tagged++
				break
			}
		}
	}
	fmt.Printf("  actors=%d seen_before=%d\n", len(sf.Actors), tagged)
	return nil
}
