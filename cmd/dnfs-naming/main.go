package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cubbit/dnfs/internal/lockmanager"
	"github.com/cubbit/dnfs/internal/logger"
	"github.com/cubbit/dnfs/internal/naming"
	"github.com/cubbit/dnfs/pkg/config"
	"github.com/cubbit/dnfs/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "Path to naming server config file")
	roundRobinReplication := flag.Bool("round-robin-replication", false, "Use the round-robin replication policy instead of the no-op default")
	flag.Parse()

	cfg, err := config.LoadNaming(*configPath)
	if err != nil {
		log.Fatalf("failed to load naming config: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var policy naming.ReplicationPolicy = naming.NoopPolicy{}
	if *roundRobinReplication {
		policy = naming.RoundRobinPolicy{}
	}

	svc := naming.NewService(naming.NewRPCCaller(), policy)

	if cfg.MetricsAddr != "" {
		metrics.InitRegistry()
		namingMetrics := metrics.NewNamingMetrics()
		svc.SetMetrics(namingMetrics)
		if observer, ok := namingMetrics.(lockmanager.AdmissionObserver); ok {
			svc.Locks().SetObserver(observer)
		}

		metricsServer := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server stopped: %v", err)
			}
		}()
	}

	if cfg.DebugAddr != "" {
		debugServer := naming.NewDebugServer(cfg.DebugAddr, svc)
		go func() {
			if err := debugServer.Start(ctx); err != nil {
				logger.Error("debug status server stopped: %v", err)
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- naming.Serve(ctx, svc, cfg.ServiceAddr, cfg.RegistrationAddr)
	}()

	logger.Info("naming server running: service=%s registration=%s", cfg.ServiceAddr, cfg.RegistrationAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("naming server shutdown error: %v", err)
			os.Exit(1)
		}
	case err := <-serverDone:
		if err != nil {
			logger.Error("naming server error: %v", err)
			os.Exit(1)
		}
	}

	logger.Info("naming server stopped")
}
