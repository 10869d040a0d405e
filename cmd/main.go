package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bmarinov/storagegrid-provisioner/internal/provision"
	"github.com/bmarinov/storagegrid-provisioner/internal/server"
	"github.com/bmarinov/storagegrid-provisioner/internal/storagegrid"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("loading config", "err", err)
		os.Exit(1)
	}

	service := buildService(cfg, logger)
	httpServer := &http.Server{
		Addr:    cfg.listenAddr,
		Handler: server.New(service, cfg.s3Endpoint, logger).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

func buildService(cfg *serviceConfig, logger *slog.Logger) provision.Service {
	if cfg.storageGridURL == "" {
		logger.Warn("storagegrid.url not configured, integration disabled")
		return provision.Disabled{}
	}

	httpClient := &http.Client{Timeout: cfg.requestTimeout}
	if cfg.insecureTLS {
		// Some StorageGrid installations run on internal CAs.
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client := storagegrid.NewClient(cfg.storageGridURL, httpClient, logger)
	opts := provision.Options{
		S3Endpoint:      cfg.s3Endpoint,
		BucketRegion:    cfg.bucketRegion,
		RandomPassword:  cfg.randomPassword,
		DefaultPassword: cfg.defaultPassword,
	}

	return provision.NewStorageGridService(provision.ClientAPIs(client), opts, logger)
}
