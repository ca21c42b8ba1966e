package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jvillarreal-dev/booking-core/internal/availability"
	availabilityHttp "github.com/jvillarreal-dev/booking-core/internal/availability/http"
	"github.com/jvillarreal-dev/booking-core/internal/booking"
	bookingHttp "github.com/jvillarreal-dev/booking-core/internal/booking/http"
	"github.com/jvillarreal-dev/booking-core/internal/resource"
	resourceHttp "github.com/jvillarreal-dev/booking-core/internal/resource/http"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	ResourceService     resource.Service
	BookingService      booking.Service
	AvailabilityService availability.Service
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Recovery) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		resourceHttp.RegisterRoutes(v1, resourceHandler)
		bookingHttp.RegisterRoutes(v1, bookingHandler)
		availabilityHttp.RegisterRoutes(v1, availabilityHandler)
	}

	return r
}
