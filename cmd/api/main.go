package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/brightstay/hotel-bookings/internal/http/handlers"
	httpmw "github.com/brightstay/hotel-bookings/internal/http/middleware"
	"github.com/brightstay/hotel-bookings/internal/mailer"
	"github.com/brightstay/hotel-bookings/internal/payments"
	"github.com/brightstay/hotel-bookings/internal/pricing"
	"github.com/brightstay/hotel-bookings/internal/repo/postgres"
	redisrepo "github.com/brightstay/hotel-bookings/internal/repo/redis"
	"github.com/brightstay/hotel-bookings/internal/service"
	"github.com/brightstay/hotel-bookings/pkg/config"
	"github.com/brightstay/hotel-bookings/pkg/database"
	"github.com/brightstay/hotel-bookings/pkg/events"
	"github.com/brightstay/hotel-bookings/pkg/logger"
	mw "github.com/brightstay/hotel-bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to Redis
	store, err := redisrepo.NewStore(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Initialize repositories
	bookingRepo := postgres.NewBookingRepository(pool)
	roomTypeRepo := postgres.NewRoomTypeRepository(pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(pool)

	// Payment provider and mailer
	provider := payments.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Booking.Currency)

	var mail mailer.Mailer
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Initialize services
	engine := pricing.NewEngine()
	bookingService := service.NewBookingService(
		bookingRepo, roomTypeRepo, idempotencyRepo,
		provider, engine, eventBus, mail, store, cfg,
	)

	// Initialize handlers
	h := handlers.New(bookingService, cfg.Auth.JWTSecret)

	// Rate limiters for the unauthenticated write paths
	bookingLimiter := httpmw.NewRateLimiter(pool, httpmw.RateLimitConfig{
		Requests: 10,
		Window:   time.Minute,
		KeyFunc:  httpmw.BookingRateLimitKeyFunc,
	})
	quoteLimiter := httpmw.NewRateLimiter(pool, httpmw.RateLimitConfig{
		Requests: 120,
		Window:   time.Minute,
		KeyFunc:  httpmw.QuoteRateLimitKeyFunc,
	})

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("bookings-api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)

	r.Route("/v1", func(r chi.Router) {
		r.With(quoteLimiter.Middleware()).Post("/pricing/quote", h.Quote)

		r.Route("/bookings", func(r chi.Router) {
			r.With(bookingLimiter.Middleware(), mw.Idempotency(store)).Post("/", h.CreateBooking)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireManageToken)
				r.Get("/", h.ListBookings)
				r.Get("/{id}", h.GetBooking)
				r.Delete("/{id}", h.CancelBooking)
			})
		})

		r.Get("/payments/sessions/{sessionID}", h.PaymentSessionStatus)
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down bookings API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Bookings API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting bookings API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Bookings API error", "error", err)
		os.Exit(1)
	}
}
