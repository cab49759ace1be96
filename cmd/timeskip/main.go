package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/timeskip/internal/catchup"
	"github.com/l1jgo/timeskip/internal/clock"
	"github.com/l1jgo/timeskip/internal/config"
	"github.com/l1jgo/timeskip/internal/core/event"
	coresys "github.com/l1jgo/timeskip/internal/core/system"
	"github.com/l1jgo/timeskip/internal/data"
	"github.com/l1jgo/timeskip/internal/persist"
	"github.com/l1jgo/timeskip/internal/scripting"
	"github.com/l1jgo/timeskip/internal/system"
	"github.com/l1jgo/timeskip/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var errShutdown = errors.New("shutdown requested")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              timeskip  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       offline catch-up world server       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("TIMESKIP_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. Static data and scripts
	printSection("Data")
	crops, err := data.LoadCropTable(cfg.Data.CropsPath)
	if err != nil {
		return fmt.Errorf("crops: %w", err)
	}
	printStat("crops", crops.Count())
	smelting, err := data.LoadSmeltingTable(cfg.Data.SmeltingPath)
	if err != nil {
		return fmt.Errorf("smelting: %w", err)
	}
	printStat("smelting recipes", smelting.RecipeCount())
	printStat("fuels", smelting.FuelCount())

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua scripts loaded")
	fmt.Println()

	// 4. Clock store
	printSection("Clock")
	store, closeStore, where, err := persist.OpenClockStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("clock store: %w", err)
	}
	defer closeStore()
	printOK("timestamp in " + where)
	tracker := clock.NewTracker(store, cfg.MsPerTick(), log, clock.WithTimeScale(cfg.Catchup.TimeScale))
	fmt.Println()

	// 5. World state, restored from the save
	printSection("World")
	bus := event.NewBus()
	worldState := world.NewState(crops, smelting, luaEngine, bus)
	worldState.AddDimension(world.DimensionID(cfg.Server.Dimension), world.DefaultRandomTickRate)

	seed := cfg.Catchup.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	engine := catchup.NewEngine(worldState, catchup.EngineConfig{
		GrowthCeiling:  cfg.Catchup.GrowthCeiling,
		Seed:           seed,
		SlowReplayWarn: cfg.Catchup.SlowReplayWarn,
	}, log)
	coord := catchup.NewCoordinator(worldState, tracker, engine, catchup.Options{
		DrainPerTick:      cfg.Catchup.DrainPerTick,
		SaveIntervalTicks: cfg.Clock.SaveIntervalTicks,
	}, log)
	coord.Subscribe(bus)

	sf, found, err := world.ReadSave(cfg.Data.SavePath)
	if err != nil {
		return fmt.Errorf("world save: %w", err)
	}
	if err := worldState.Restore(sf); err != nil {
		return fmt.Errorf("restore world: %w", err)
	}
	if !found {
		printOK("no world save, starting empty")
	}
	printStat("resident regions", len(worldState.ResidentRegions()))
	printStat("actors", worldState.ActorCount())

	// 6. Offline catch-up of everything already resident
	rep := coord.Start(ctx)
	if rep.Gap.NeedsCatchup() {
		printStat("offline ticks", int(rep.Gap.ElapsedTicks))
		printStat("regions caught up", rep.Regions)
		printStat("actors caught up", rep.Actors)
	}
	fmt.Println()

	// 7. Create systems and register with runner
	persistSys := system.NewPersistenceSystem(worldState, cfg.Data.SavePath, log, cfg.Server.AutosaveTicks)
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewWorldTickSystem(worldState))
	runner.Register(system.NewCatchupSystem(coord))
	runner.Register(persistSys)

	// 8. Start game loop. The loop goroutine owns the world until Wait returns.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	printSection("Ready")
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.Tick.Rate))
	fmt.Println()

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		select {
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return errShutdown
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Tick.Rate)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runner.Tick(cfg.Tick.Rate)
			case <-gctx.Done():
				return nil
			}
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	coord.Stop(stopCtx)
	if err := persistSys.SaveNow(); err != nil {
		return fmt.Errorf("final world save: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
