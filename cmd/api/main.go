package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/urbango/ride-engine/internal/api/handlers"
	"github.com/urbango/ride-engine/internal/api/routes"
	"github.com/urbango/ride-engine/internal/config"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geocoder"
	"github.com/urbango/ride-engine/internal/service/booking"
	"github.com/urbango/ride-engine/internal/service/pricing"
	"github.com/urbango/ride-engine/internal/service/tracking"
	"github.com/urbango/ride-engine/internal/store"
	"github.com/urbango/ride-engine/pkg/cache"
	"github.com/urbango/ride-engine/pkg/database"
	"github.com/urbango/ride-engine/pkg/logger"
	"github.com/urbango/ride-engine/pkg/monitoring"
	"github.com/urbango/ride-engine/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting UrbanGo Ride Engine",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp = &monitoring.NewRelicApp{}
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized",
			logger.String("app_name", cfg.NewRelic.AppName))
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Ride history backend: in-memory unless a durable one is configured
	history := buildHistoryStore(cfg, appLogger)

	// Geocoder: Google Maps when an API key is present, otherwise every
	// lookup degrades to empty suggestions / coordinate labels
	var geo geocoder.Geocoder = geocoder.Unavailable{}
	if cfg.Geocoder.APIKey != "" {
		gm, err := geocoder.NewGoogleMaps(cfg.Geocoder.APIKey, cfg.Geocoder.Region)
		if err != nil {
			appLogger.Fatal("Failed to create geocoder", logger.Err(err))
		}
		geo = gm
		appLogger.Info("Geocoder configured", logger.String("region", cfg.Geocoder.Region))
	} else {
		appLogger.Warn("GEOCODER_API_KEY not set, location lookups will degrade to fallbacks")
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run()

	// Core services
	pricingSvc := pricing.NewService(pricingConfig(cfg))
	tracker := tracking.NewManager(trackingSchedule(cfg), appLogger)
	bookingSvc := booking.NewService(pricingSvc, tracker, history, appLogger)
	defer bookingSvc.Shutdown()

	// Fan tracking updates out to websocket subscribers
	bookingSvc.SetNotifier(func(ev tracking.Event, snapshot *ride.Ride) {
		msg := websocket.Message{Type: string(ev.Type)}
		switch ev.Type {
		case tracking.EventStatusChanged:
			msg.Data = map[string]interface{}{
				"status": ev.Status,
				"ride":   snapshot,
			}
		case tracking.EventDriverMoved:
			msg.Data = map[string]interface{}{
				"location": ev.Location,
			}
		}
		wsHub.BroadcastToRide(ev.RideID.String(), msg)
	})

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(bookingSvc, geo, appLogger, wsHub, nrApp)

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	var nrApplication *newrelic.Application
	if nrApp.IsEnabled() {
		nrApplication = nrApp.Application
	}
	routes.SetupRoutes(router, h, nrApplication)

	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

// buildHistoryStore selects the configured ride history backend.
func buildHistoryStore(cfg *config.Config, appLogger *logger.Logger) store.HistoryStore {
	switch cfg.History.Backend {
	case "redis":
		client, err := cache.NewRedisClient(cache.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		appLogger.Info("Ride history backed by Redis")
		return store.NewRedisStore(client, cfg.History.MaxEntries, cfg.History.TTL)

	case "postgres":
		db, err := database.NewPostgresDB(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
			MaxIdle:  cfg.Database.MaxIdle,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
		}
		appLogger.Info("Ride history backed by PostgreSQL")
		return store.NewPostgresStore(db)

	default:
		return store.NewMemoryStore(cfg.History.MaxEntries)
	}
}

func pricingConfig(cfg *config.Config) pricing.Config {
	return pricing.Config{
		BaseFare: map[ride.VehicleClass]float64{
			ride.VehicleBike: cfg.Pricing.BaseFare.Bike,
			ride.VehicleCar:  cfg.Pricing.BaseFare.Car,
			ride.VehicleXL:   cfg.Pricing.BaseFare.XL,
		},
		PerKMRate: map[ride.VehicleClass]float64{
			ride.VehicleBike: cfg.Pricing.PerKMRate.Bike,
			ride.VehicleCar:  cfg.Pricing.PerKMRate.Car,
			ride.VehicleXL:   cfg.Pricing.PerKMRate.XL,
		},
		Currency:       cfg.Pricing.Currency,
		MinutesPerKm:   cfg.Pricing.MinutesPerKm,
		MinDurationMin: cfg.Pricing.MinDurationMin,
	}
}

func trackingSchedule(cfg *config.Config) tracking.Schedule {
	return tracking.Schedule{
		AssignAfter:   cfg.Tracking.AssignAfter,
		AcceptAfter:   cfg.Tracking.AcceptAfter,
		StartAfter:    cfg.Tracking.StartAfter,
		CompleteAfter: cfg.Tracking.CompleteAfter,
		MoveInterval:  cfg.Tracking.MoveInterval,
		JitterDegrees: cfg.Tracking.JitterDegrees,
	}
}
