// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jeepney/internal/config"
	httptransport "jeepney/internal/http"
	"jeepney/internal/http/handlers"
	"jeepney/internal/http/live"
	"jeepney/internal/infra"
	"jeepney/internal/maps"
	"jeepney/internal/modules/location"
	"jeepney/internal/modules/pricing"
	"jeepney/internal/modules/trip"
	"jeepney/internal/types"
)

const serviceName = "jeep-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := infra.NewLogger(cfg.IsDevelopment(), cfg.LogLevel, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("jeep-api stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	health := map[string]handlers.Checker{}

	var app *firebase.App
	if cfg.Auth.Provider == config.AuthFirebase || cfg.Registry.Backend == config.RegistryFirebase {
		a, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.DatabaseURL, cfg.Firebase.CredentialsFile)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrConfiguration, err)
		}
		app = a
	}

	verifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		return err
	}

	registry, err := newRegistry(ctx, cfg, app, health)
	if err != nil {
		return err
	}

	var presets pricing.PresetSource
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := pricing.NewStore(pool)
		health["postgres"] = store.Ping
		presets = store
	}

	tier, err := loadTier(ctx, cfg, presets)
	if err != nil {
		return err
	}
	log.Info("fare tier loaded",
		zap.String("preset", tier.Name),
		zap.Float64("base_fare", tier.BaseFare),
		zap.Float64("base_km", tier.BaseKm),
		zap.Float64("per_km_rate", tier.PerKmRate),
	)

	routes, err := newRouteProvider(cfg)
	if err != nil {
		return err
	}

	hub := live.NewHub(registry.GetAll, log.Named("ws"))
	defer hub.Close()
	notifiers := []location.Notifier{hub}

	if cfg.AMQP.URL != "" {
		conn, err := infra.NewAMQP(cfg.AMQP.URL)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()
		publisher, err := location.NewAMQPPublisher(conn, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer func() { _ = publisher.Close() }()
		notifiers = append(notifiers, publisher)
		log.Info("publishing location events", zap.String("exchange", cfg.AMQP.Exchange))
	}

	locationSvc := location.NewService(registry, log.Named("location"), notifiers...)
	tripSvc := trip.NewService(routes, pricing.NewService(tier), locationSvc, trip.Config{
		RoutingTimeout: cfg.Routing.Timeout,
		ETARadiusKm:    cfg.ETA.RadiusKm,
		ETAMaxJeeps:    cfg.ETA.MaxJeeps,
	}, log.Named("trip"))

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := httptransport.NewServer(httptransport.ServerDeps{
		Verifier: verifier,
		Location: locationSvc,
		Trip:     tripSvc,
		Hub:      hub,
		Health:   health,
		Logger:   log.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("routing", cfg.Routing.Provider),
			zap.String("auth", cfg.Auth.Provider),
			zap.String("registry", cfg.Registry.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down jeep-api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	log.Info("jeep-api stopped")
	return nil
}

func newVerifier(ctx context.Context, cfg config.Config, app *firebase.App) (infra.TokenVerifier, error) {
	if cfg.Auth.Provider == config.AuthJWT {
		return infra.NewJWTVerifier(cfg.Auth.JWTSecret), nil
	}
	v, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}
	return v, nil
}

func newRegistry(ctx context.Context, cfg config.Config, app *firebase.App, health map[string]handlers.Checker) (location.Registry, error) {
	switch cfg.Registry.Backend {
	case config.RegistryRedis:
		rdb, err := infra.NewRedis(ctx, cfg.Registry.RedisAddr)
		if err != nil {
			return nil, err
		}
		store := location.NewRedisStore(rdb)
		health["redis"] = store.Ping
		return store, nil
	case config.RegistryFirebase:
		client, err := app.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: firebase database: %v", types.ErrConfiguration, err)
		}
		return location.NewFirebaseStore(client), nil
	default:
		return location.NewMemoryStore(), nil
	}
}

// loadTier resolves the configured preset once at startup and applies the
// per-field overrides.
func loadTier(ctx context.Context, cfg config.Config, presets pricing.PresetSource) (pricing.Tier, error) {
	tier, err := pricing.ResolveTier(ctx, presets, cfg.Fare.Preset)
	if err != nil {
		return pricing.Tier{}, fmt.Errorf("%w: fare preset: %v", types.ErrConfiguration, err)
	}
	tier = cfg.Fare.Apply(tier)
	if err := tier.Validate(); err != nil {
		return pricing.Tier{}, fmt.Errorf("%w: fare tier: %v", types.ErrConfiguration, err)
	}
	return tier, nil
}

func newRouteProvider(cfg config.Config) (maps.Provider, error) {
	if cfg.Routing.Provider == config.RoutingGoogle {
		svc, err := maps.NewRouteService(cfg.Routing.GoogleMapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
		}
		return svc, nil
	}
	client := &http.Client{Timeout: cfg.Routing.Timeout}
	return maps.NewORSService(cfg.Routing.ORSAPIKey, cfg.Routing.ORSBaseURL, cfg.Routing.ORSProfile, client), nil
}
