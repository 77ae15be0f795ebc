package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hausware/deebot/internal/authstore"
	"github.com/hausware/deebot/internal/config"
	"github.com/hausware/deebot/internal/core"
	"github.com/hausware/deebot/internal/server"
	"github.com/hausware/deebot/plugins/deebot"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	statePath := flag.String("state", "/var/lib/deebotd/auth/deebot.json", "path to login state file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	deebotCfg := cfg.Deebot
	if deebotCfg != nil && deebotCfg.MQTTUsername == "" {
		state, err := resolveLoginState(cfg, *statePath, logger)
		if err != nil {
			logger.Fatal("resolve login state", zap.Error(err))
		}
		deebotCfg.MQTTUsername = state.BrokerUsername()
		deebotCfg.MQTTPassword = state.BrokerPassword()
	}

	deebotPlugin, enabled := deebot.NewPlugin(deebotCfg, logger)
	var compiled []core.Plugin
	if enabled {
		compiled = append(compiled, deebotPlugin)
	}

	active := core.FilterPlugins(compiled, config.EnabledPlugins(cfg), false)
	if err := core.ValidateEnabledPlugins(compiled, config.EnabledPlugins(cfg), false); err != nil {
		logger.Fatal("validate enabled plugins", zap.Error(err))
	}
	if err := core.ValidatePlugins(active); err != nil {
		logger.Fatal("validate plugins", zap.Error(err))
	}
	for _, plugin := range active {
		if plugin.Health() == core.HealthError {
			logger.Fatal("plugin failed to start",
				zap.String("plugin", plugin.ID()),
				zap.String("message", plugin.HealthMessage()))
		}
	}

	metricsRegistry := core.MetricsRegistry(active)
	metricsRegistry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "deebotd_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))

	if err := core.WriteDashboards(cfg.Core.DashboardDir, active); err != nil {
		logger.Warn("write dashboards", zap.Error(err))
	}

	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/health", server.HealthHandler)
	httpMux.Handle("/metrics", server.MetricsHandler(metricsRegistry))
	httpMux.Handle("/dashboards/", server.DashboardsHandler(core.DashboardsMap(active)))
	server.RegisterRegistry(httpMux, core.NewRegistry(active))
	for _, plugin := range active {
		if registrant, ok := plugin.(core.HTTPRegistrant); ok {
			registrant.RegisterHTTP(httpMux)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if session := deebotPlugin.Session(); session != nil {
		if err := session.Connect(ctx); err != nil {
			logger.Fatal("connect device session", zap.Error(err))
		}
		defer func() { _ = session.Disconnect() }()
		session.On(deebot.SignalKeepaliveFailed, func(payload any) {
			logger.Warn("device keepalive failed", zap.Any("error", payload))
		})
	}

	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, httpMux)
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	logger.Info("deebotd started", zap.String("http_addr", cfg.Core.HTTPAddr))

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		_ = httpServer.Server.Shutdown(context.Background())
	case err := <-errCh:
		logger.Fatal("http serve", zap.Error(err))
	}
}

func resolveLoginState(cfg *config.Config, statePath string, logger *zap.Logger) (authstore.LoginState, error) {
	var blobStore authstore.BlobStore
	if cfg.Auth != nil {
		s3, err := authstore.NewS3Store(cfg.Auth)
		if err != nil {
			return authstore.LoginState{}, err
		}
		blobStore = s3
	}

	manager, err := authstore.NewManager(statePath, blobStore, logger)
	if err != nil {
		return authstore.LoginState{}, err
	}
	return manager.Resolve(context.Background(), "primary")
}
