package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pcdash/internal/config"
	"pcdash/internal/controllers"
	"pcdash/internal/display"
	"pcdash/internal/logger"
	"pcdash/internal/middleware"
	"pcdash/internal/models"
	"pcdash/internal/routes"
	"pcdash/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (default: ./configs/config.yaml or ./config.yaml)")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintln(os.Stderr, "pcdash:", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	loader := config.NewLoader(configFile)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Flush(log)

	log.Info("pcdash starting",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Duration("sample_interval", cfg.SampleInterval),
		zap.String("config_file", loader.ConfigFileUsed()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := services.NewWebSocketHub(logger.Component(log, "websocket"))
	alerts := services.NewAlertEvaluator(
		models.AllMetrics,
		cfg.ThresholdDefaults(),
		cfg.AlertCooldown,
		services.MultiNotifier{
			services.LogNotifier{Log: logger.Component(log, "alerts")},
			services.HubNotifier{Hub: hub},
		},
		logger.Component(log, "alerts"),
	)

	src := services.NewSystemSource(cfg.SysfsRoot)
	dash := services.NewDashboard(ctx, src, src, alerts, services.DashboardOptions{
		Capacity:        cfg.Capacity,
		SampleInterval:  cfg.SampleInterval,
		DefaultLookback: cfg.DefaultLookback,
	}, logger.Component(log, "dashboard"))
	dash.AttachHub(hub)

	if cfg.Console {
		console := display.Console{Out: os.Stdout}
		dash.AddTask("console", func(context.Context) {
			if err := console.Draw(dash.Status(), dash.Views()); err != nil {
				log.Debug("console draw failed", zap.Error(err))
			}
		})
	}

	if loader.Watch(func(updated *config.Config, err error) {
		if err != nil {
			log.Warn("config reload rejected", zap.Error(err))
			return
		}
		alerts.ApplyDefaults(updated.ThresholdDefaults())
		log.Info("config reloaded, thresholds applied")
	}) {
		log.Info("watching config file", zap.String("path", loader.ConfigFileUsed()))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(ctx, cfg, dash, alerts, hub, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Websocket fan-out
	g.Go(func() error {
		hub.Run(gCtx)
		return nil
	})

	// 2. Sampling, alerts and broadcast
	g.Go(func() error {
		dash.Start(gCtx)
		<-gCtx.Done()
		dash.Stop()
		return nil
	})

	// 3. HTTP
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("pcdash stopped with error", zap.Error(err))
		return err
	}
	log.Info("pcdash stopped gracefully")
	return nil
}

func newRouter(ctx context.Context, cfg *config.Config, dash *services.Dashboard, alerts *services.AlertEvaluator, hub *services.WebSocketHub, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	}

	httpLog := logger.Component(log, "http")

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(httpLog))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.IPWhitelistMiddleware(middleware.NewIPWhitelist(cfg.AllowedIPs), httpLog))
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst), httpLog))

	routes.RegisterMonitorRoutes(r, controllers.NewMetricsController(dash))
	routes.RegisterAlertRoutes(r, controllers.NewAlertsController(alerts))
	routes.RegisterWebSocketRoutes(r, controllers.NewWebSocketController(ctx, hub, dash, cfg.AllowedOrigins, logger.Component(log, "websocket")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"interface":  dash.Interface(),
			"clients":    hub.ClientCount(),
			"view_cache": dash.CacheStats(),
		})
	})

	return r
}
