package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jvillarreal-dev/booking-core/internal/api"
	"github.com/jvillarreal-dev/booking-core/internal/availability"
	"github.com/jvillarreal-dev/booking-core/internal/booking"
	"github.com/jvillarreal-dev/booking-core/internal/config"
	"github.com/jvillarreal-dev/booking-core/internal/policy"
	"github.com/jvillarreal-dev/booking-core/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Settings     *config.Settings
	HoldTTL      time.Duration
	Logger       *zap.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router *gin.Engine
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Policy Engine
	policies, err := policy.BuildPolicies(cfg.Settings.PolicyRegistry())
	if err != nil {
		return nil, fmt.Errorf("build policies failed: %w", err)
	}
	engine := policy.NewEngine(policies)
	gate := policy.NewGate(engine, log.Named("policy"))

	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, resService, gate, cfg.HoldTTL, nil, log.Named("booking"))

	// Availability Module (schedules come from the settings file)
	availabilityService := availability.NewService(cfg.Settings, bookingRepo, nil, log.Named("availability"))

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		ResourceService:     resService,
		BookingService:      bookingService,
		AvailabilityService: availabilityService,
	})

	return &Container{Router: router}, nil
}
