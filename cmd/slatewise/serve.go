package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rohankatakam/slatewise/internal/api"
	"github.com/rohankatakam/slatewise/internal/audit"
	"github.com/rohankatakam/slatewise/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	result := cfg.Validate(config.ValidationContextServe)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if result.HasErrors() {
		return cfg.Require(config.ValidationContextServe)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := buildServices(ctx, cfg, registry)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestsPerMin: cfg.Server.RequestsPerMin,
		Metrics:        registry,
	}
	if cfg.Server.AuditLog != "" {
		opts.Audit = audit.NewLog(cfg.Server.AuditLog)
	}
	if svc.cache != nil {
		opts.Checks = map[string]api.HealthChecker{"redis": svc.cache.HealthCheck}
	}

	var researcher api.Researcher
	if svc.gatherer != nil {
		researcher = svc.gatherer
	}

	logger.WithFields(logrus.Fields{
		"storage":  cfg.Storage.Type,
		"provider": svc.llm.GetProvider(),
		"cache":    svc.cache != nil,
	}).Info("Starting slatewise API")

	return api.NewServer(svc.store, svc.engine, researcher, opts, logger).Run(ctx, cfg.Server.Addr)
}
