package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dhawalhost/googlesignin/internal/authflow"
	"github.com/dhawalhost/googlesignin/internal/config"
	"github.com/dhawalhost/googlesignin/internal/httpapi"
	"github.com/dhawalhost/googlesignin/internal/popup"
	"github.com/dhawalhost/googlesignin/pkg/logger"
	"github.com/dhawalhost/googlesignin/pkg/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync(zl)

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, zl)
	case "login":
		err = runLogin(ctx, cfg, zl)
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		zl.Error("Command failed", zap.String("command", cmd), zap.Error(err))
		logger.Sync(zl)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: authflow <command>

Commands:
  serve   Run the sign-in HTTP API (default)
  login   Run one sign-in attempt and print the user as JSON
`)
}

func newController(cfg *config.Config, zl *zap.Logger, metrics *observability.Metrics) *authflow.Controller {
	authCfg := authflow.AuthConfig{
		ClientID:    cfg.Google.ClientID,
		RedirectURI: cfg.RedirectURI(),
		Scope:       cfg.Google.Scope,
	}
	return authflow.NewController(authCfg, popup.NewBrowser(cfg.Flow.PopupBrowser, zl), authflow.Options{
		DevMode:         cfg.IsDevelopment(),
		DemoDelay:       cfg.Flow.DemoDelay,
		PollInterval:    cfg.Flow.PollInterval,
		FallbackTimeout: cfg.Flow.FallbackTimeout,
		Logger:          zl.Named("authflow"),
		Metrics:         metrics,
	})
}

func runServe(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRatio:    cfg.Tracing.SampleRatio,
	}, zl)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			zl.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	controller := newController(cfg, zl, metrics)
	forwarder := authflow.NewForwarder(authflow.ForwarderConfig{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Logger:  zl.Named("callback"),
		Metrics: metrics,
	})

	zl.Info("Google sign-in configured",
		zap.Bool("demo_mode", controller.DemoMode()),
		zap.String("redirect_uri", cfg.RedirectURI()),
		zap.String("backend", cfg.Backend.URL),
	)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		ServiceName:    cfg.App.Name,
		Handler:        httpapi.NewHandler(controller, forwarder, zl.Named("http")),
		Logger:         zl,
		Metrics:        metrics,
		Gatherer:       prometheus.DefaultGatherer,
		AllowedOrigins: []string{cfg.App.SiteURL},
		RateLimit:      rate.Limit(cfg.RateLimit.RPS),
		RateBurst:      cfg.RateLimit.Burst,
	})

	server := &httpapi.Server{Engine: router, Addr: cfg.App.Addr, Logger: zl}
	return server.Run(ctx)
}

func runLogin(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	user, err := newController(cfg, zl, nil).Login(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(user)
}
