package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mt5-bridge/src/config"
	"mt5-bridge/src/console"
	"mt5-bridge/src/gateway"
	"mt5-bridge/src/interfaces"
	"mt5-bridge/src/logger"
	"mt5-bridge/src/marshal"
	"mt5-bridge/src/metrics"
	"mt5-bridge/src/platform/sim"
	"mt5-bridge/src/server"
	"mt5-bridge/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 2. Request journal (optional persistence)
	var journal interfaces.IJournal

	switch cfg.Storage.DBType {
	case "postgres":
		journal, err = storage.NewPostgresJournal(cfg.MConfig, appLogger)
	case "sqlite":
		journal, err = storage.NewSQLiteJournal(cfg.MConfig, appLogger)
	case "", "none":
		journal = nil
	default:
		appLogger.Critical("Unknown storage db_type: %s", cfg.Storage.DBType)
	}

	if err != nil {
		appLogger.Critical("Failed to init journal: %v", err)
	}
	if journal != nil {
		if err := journal.Initialize(); err != nil {
			appLogger.Critical("Failed to migrate journal: %v", err)
		}
		defer journal.Close()
	}

	// 3. Trading platform handle
	var platform interfaces.ITradingPlatform
	if cfg.Platform.Simulated {
		appLogger.Info("Using simulated terminal (login %d)", cfg.Platform.Login)
		platform = sim.NewSimTerminal(cfg.Platform.Login)
	} else {
		// A live terminal handle needs the vendor IPC library, which only
		// exists on the terminal host.
		appLogger.Critical("No live terminal driver available on this build; set platform.simulated: true")
		return
	}

	// 4. Core wiring: materializer -> gateway -> server
	ms := metrics.NewMetricsState(cfg.RingCapacity)
	mat := marshal.NewMaterializer(appLogger)
	gw := gateway.NewProxyGateway(platform, mat, appLogger, ms, cfg.MConfig)
	srv := server.NewBridgeServer(cfg.MConfig, appLogger, gw, ms, journal)

	// 5. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// 6. Telemetry console
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Console.Enabled {
		go console.NewConsole(cfg.MConfig, ms, gw).Run(ctx)
	}

	// 7. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()

	// Release order: listener -> sessions -> native handle.
	grace := time.Duration(cfg.ShutdownGraceSeconds) * time.Second
	if err := srv.Stop(grace); err != nil {
		appLogger.Warning("Server shutdown: %v", err)
	}
	platform.Shutdown()

	appLogger.Info("Shutdown complete.")
}
