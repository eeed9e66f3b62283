package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/bridge"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/files"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/grpc"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/logging"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/metrics"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/persistence"
	"github.com/andrescamacho/gatherbot-go/internal/adapters/simulated"
	"github.com/andrescamacho/gatherbot-go/internal/application/common"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering/commands"
	"github.com/andrescamacho/gatherbot-go/internal/application/gathering/queries"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/database"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/pidfile"
)

func main() {
	forceFlag := flag.Bool("force", false, "Kill any existing daemon and start a new one")
	configFlag := flag.String("config", "", "Config file (default: search ./config.yaml, ./configs, /etc/gatherbot)")
	flag.Parse()

	fmt.Println("gatherbot daemon v0.1.0")
	fmt.Println("=======================")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configFlag)

	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)

	if err := pf.Acquire(); err != nil {
		if !*forceFlag {
			log.Fatalf("Failed to acquire PID file lock: %v\nUse --force to kill the existing daemon", err)
		}
		fmt.Println("Force mode enabled - attempting to kill existing daemon...")
		if killErr := pf.KillExisting(); killErr != nil {
			log.Fatalf("Failed to kill existing daemon: %v", killErr)
		}
		fmt.Println("Existing daemon killed")
		if err := pf.Acquire(); err != nil {
			log.Fatalf("Failed to acquire PID file lock after killing existing daemon: %v", err)
		}
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// host bundles the four engine-facing ports plus the goroutine that keeps them fresh
type host struct {
	engine    domain.Engine
	inventory domain.Inventory
	monitor   domain.DependencyMonitor
	operator  domain.Operator
	run       func(ctx context.Context)
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected")

	// 2. Repositories
	sessionRepo := persistence.NewGormSessionRepository(db)
	sessionLogRepo := persistence.NewGormSessionLogRepository(db, nil)
	itemRepo := persistence.NewGormItemRepository(db)

	// 3. Logging
	logger, err := logging.NewSessionLogger(cfg.Logging, sessionLogRepo, nil)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	fmt.Printf("Logging at %s (%s, persist=%t)\n", cfg.Logging.Level, cfg.Logging.Output, cfg.Logging.Persist)

	// 4. Item catalog
	catalog, err := loadCatalog(ctx, itemRepo, cfg.Daemon.CatalogFile)
	if err != nil {
		return err
	}
	fmt.Printf("Item catalog loaded (%d items)\n", catalog.Len())

	// 5. Metrics
	var collector *metrics.GatheringCollector
	var requestMetrics *metrics.RequestMetrics
	var bridgeMetrics *metrics.BridgeMetricsCollector
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collector = metrics.NewGatheringCollector()
		if err := collector.Register(); err != nil {
			return fmt.Errorf("failed to register gathering metrics: %w", err)
		}
		requestMetrics = metrics.NewRequestMetrics()
		if err := requestMetrics.Register(); err != nil {
			return fmt.Errorf("failed to register request metrics: %w", err)
		}
		bridgeMetrics = metrics.NewBridgeMetricsCollector()
		if err := bridgeMetrics.Register(); err != nil {
			return fmt.Errorf("failed to register bridge metrics: %w", err)
		}
		if metricsServer, err = metrics.NewServer(cfg.Metrics); err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		fmt.Printf("Metrics enabled on %s%s\n", metricsServer.Addr(), cfg.Metrics.Path)
	}

	// 6. Host
	var recorder bridge.RequestRecorder
	if bridgeMetrics != nil {
		recorder = bridgeMetrics
	}
	h, err := newHost(cfg, catalog, logger, recorder)
	if err != nil {
		return err
	}

	// 7. Orchestrator and runner
	opts := []gathering.Option{gathering.WithLogger(logger)}
	if collector != nil {
		opts = append(opts, gathering.WithMetrics(collector))
	}
	orchestrator := gathering.NewOrchestrator(gathering.Dependencies{
		Engine:    h.engine,
		Inventory: h.inventory,
		Monitor:   h.monitor,
		Operator:  h.operator,
		Catalog:   catalog,
	}, cfg.Gathering.ToSettings(), opts...)
	runner := gathering.NewRunner(orchestrator, sessionRepo, logger, cfg.Daemon.FrameInterval)
	logger.SetSessionSource(func() string { return runner.Snapshot().SessionID })
	fmt.Printf("Orchestrator initialized (frame interval %s)\n", cfg.Daemon.FrameInterval)

	// 8. Mediator
	med := common.NewMediator()
	if requestMetrics != nil {
		med.RegisterMiddleware(metrics.PrometheusMiddleware(requestMetrics))
	}
	if err := registerHandlers(med, runner, sessionRepo); err != nil {
		return err
	}

	// 9. Control server
	var logs grpc.LogReader = logger
	if cfg.Logging.Persist {
		logs = sessionLogRepo
	}
	control := grpc.NewControlServer(med, logs)
	daemonServer, err := grpc.NewDaemonServer(cfg.Daemon.Address, control, logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon server: %w", err)
	}
	fmt.Printf("Starting daemon server on: %s\n", daemonServer.Addr())

	var wg sync.WaitGroup
	background := func(fn func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}
	background(h.run)
	background(func(ctx context.Context) {
		if err := runner.Run(ctx); err != nil {
			logger.Log("ERROR", "Gathering runner exited", map[string]interface{}{"error": err.Error()})
		}
	})
	if metricsServer != nil {
		background(func(ctx context.Context) {
			if err := metricsServer.Serve(ctx); err != nil {
				logger.Log("ERROR", "Metrics server failed", map[string]interface{}{"error": err.Error()})
			}
		})
	}

	fmt.Println("\n✓ Daemon is ready to accept connections")
	fmt.Println("Press Ctrl+C to stop")

	serveErr := daemonServer.Serve(ctx)
	stop()

	fmt.Println("\nShutting down...")
	if !waitTimeout(&wg, cfg.Daemon.ShutdownTimeout) {
		fmt.Printf("Warning: background workers still running after %s\n", cfg.Daemon.ShutdownTimeout)
	}
	if serveErr != nil {
		return fmt.Errorf("daemon server error: %w", serveErr)
	}

	fmt.Println("Daemon stopped")
	return nil
}

func newHost(cfg *config.Config, catalog *domain.StaticCatalog, logger common.Logger, recorder bridge.RequestRecorder) (*host, error) {
	switch cfg.Daemon.HostMode {
	case "simulated":
		world := simulated.NewWorld(catalog.Items(), simulated.DefaultOptions(), nil)
		fmt.Println("Host initialized (simulated world)")
		return &host{
			engine:    world,
			inventory: world,
			monitor:   world,
			operator:  world,
			run:       func(ctx context.Context) { world.Run(ctx, cfg.Daemon.FrameInterval) },
		}, nil
	case "bridge":
		client := bridge.NewClient(cfg.Bridge, nil)
		client.SetRecorder(recorder)
		h := bridge.NewHost(client, cfg.Bridge, logger, nil)
		fmt.Printf("Host initialized (bridge at %s)\n", cfg.Bridge.BaseURL)
		return &host{
			engine:    bridge.NewEngine(h),
			inventory: bridge.NewInventory(h, cfg.Gathering.IncludeAuxiliaryStorage),
			monitor:   bridge.NewDependencyMonitor(h),
			operator:  bridge.NewOperator(h),
			run: func(ctx context.Context) {
				if err := h.Run(ctx); err != nil {
					logger.Log("ERROR", "Host bridge stopped", map[string]interface{}{"error": err.Error()})
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported host mode: %s", cfg.Daemon.HostMode)
	}
}

// loadCatalog seeds the items table from path, when set, and reads the catalog back
func loadCatalog(ctx context.Context, repo *persistence.GormItemRepository, path string) (*domain.StaticCatalog, error) {
	if path != "" {
		items, err := files.LoadCatalog(path)
		if err != nil {
			return nil, err
		}
		if err := repo.Upsert(ctx, items); err != nil {
			return nil, fmt.Errorf("failed to seed item catalog: %w", err)
		}
		fmt.Printf("Seeded %d items from %s\n", len(items), path)
	}
	catalog, err := repo.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load item catalog: %w", err)
	}
	return catalog, nil
}

func registerHandlers(med common.Mediator, runner *gathering.Runner, sessions domain.SessionRepository) error {
	if err := common.RegisterHandler[*commands.StartGatheringCommand](med, commands.NewStartGatheringHandler(runner)); err != nil {
		return fmt.Errorf("failed to register StartGathering handler: %w", err)
	}
	if err := common.RegisterHandler[*commands.StopGatheringCommand](med, commands.NewStopGatheringHandler(runner)); err != nil {
		return fmt.Errorf("failed to register StopGathering handler: %w", err)
	}
	if err := common.RegisterHandler[*queries.GetGatheringStatusQuery](med, queries.NewGetGatheringStatusHandler(runner)); err != nil {
		return fmt.Errorf("failed to register GetGatheringStatus handler: %w", err)
	}
	if err := common.RegisterHandler[*queries.ListSessionsQuery](med, queries.NewListSessionsHandler(sessions)); err != nil {
		return fmt.Errorf("failed to register ListSessions handler: %w", err)
	}
	return nil
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
