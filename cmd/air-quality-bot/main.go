package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/air-quality-bot/internal/api/http"
	"github.com/i474232898/air-quality-bot/internal/config"
	"github.com/i474232898/air-quality-bot/internal/scheduler"
	"github.com/i474232898/air-quality-bot/internal/store"
	"github.com/i474232898/air-quality-bot/internal/weather"
	"github.com/i474232898/air-quality-bot/internal/weather/providers"
)

func main() {
	// Load configuration (also reads .env).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	tz, err := cfg.Location()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Server default locations, read once and rewritten on every update.
	locations := store.OpenLocationStore(cfg.LocationsFile)

	// In-memory history of refreshed readings with configured retention.
	readings := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	owm := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.Endpoints())

	service := weather.NewService(owm, owm, locations, readings, weather.Options{
		DefaultLocation:    cfg.DefaultLocation(),
		DefaultDisplayName: cfg.DefaultDisplayName,
		TimeZone:           tz,
		APIKeyConfigured:   cfg.OpenWeatherAPIKey != "",
	})

	// Scheduler that periodically refreshes air quality for stored server locations.
	sched := scheduler.New(cfg.RefreshInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "air-quality-bot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Provider calls may take up to HTTPTimeout before the response is written.
		WriteTimeout: cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "air-quality-bot",
		})
	})

	httpapi.RegisterRoutes(app, service, cfg.AdminToken)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
