package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cubbit/dnfs/internal/logger"
	"github.com/cubbit/dnfs/internal/rpctypes"
	"github.com/cubbit/dnfs/internal/storageserver"
	"github.com/cubbit/dnfs/pkg/config"
	"github.com/cubbit/dnfs/pkg/metrics"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "", "Path to storage server config file")
	flag.Parse()

	cfg, err := config.LoadStorage(*configPath)
	if err != nil {
		log.Fatalf("failed to load storage config: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		metrics.InitRegistry()
		metricsServer := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server stopped: %v", err)
			}
		}()
	}

	srv, err := storageserver.New(cfg.Root, storageserver.NewRPCPeerReader())
	if err != nil {
		log.Fatalf("failed to initialize storage server: %v", err)
	}

	storageEndpoint := rpctypes.StorageEndpoint{ID: uuid.New(), Addr: cfg.StorageAddr}
	commandEndpoint := rpctypes.CommandEndpoint{ID: uuid.New(), Addr: cfg.CommandAddr}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- storageserver.Serve(ctx, srv, cfg.StorageAddr, cfg.CommandAddr)
	}()

	if err := srv.RegisterWithNaming(cfg.NamingRegistrationAddr, storageEndpoint, commandEndpoint); err != nil {
		logger.Error("registration with naming server failed: %v", err)
	} else {
		logger.Info("registered with naming server at %s", cfg.NamingRegistrationAddr)
	}

	logger.Info("storage server running: storage=%s command=%s root=%s", cfg.StorageAddr, cfg.CommandAddr, cfg.Root)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
		cancel()
		if err := <-serverDone; err != nil {
			logger.Error("storage server shutdown error: %v", err)
			os.Exit(1)
		}
	case err := <-serverDone:
		if err != nil {
			logger.Error("storage server error: %v", err)
			os.Exit(1)
		}
	}

	logger.Info("storage server stopped")
}
