package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/config"
	"github.com/iliyamo/venue-booking/internal/database"
	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/metrics"
	"github.com/iliyamo/venue-booking/internal/middleware"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
	"github.com/iliyamo/venue-booking/internal/router"
	"github.com/iliyamo/venue-booking/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()
	mqCfg := config.LoadAMQPConfig()
	metricsCfg := config.LoadMetricsConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis backs rate limiting and caching only; run without both when
	// it is unreachable.
	var rdb *redis.Client
	if rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		log.Printf("redis disabled: %v", err)
	} else {
		defer rdb.Close()
	}

	// Requests only enqueue events; one worker talks to the broker.
	var events service.EventPublisher = queue.NopPublisher{}
	var workers sync.WaitGroup
	if mqCfg.Enabled {
		pub := queue.NewPublisher(mqCfg.URL, mqCfg.Exchange, mqCfg.DialTimeout)
		defer pub.Close()
		async := queue.NewAsyncPublisher(pub, mqCfg.PublishBuffer, mqCfg.DialTimeout)
		workers.Add(1)
		go func() {
			defer workers.Done()
			async.Run(ctx)
		}()
		events = async
	}

	if metricsCfg.Enabled {
		metrics.Register()
	}

	venueRepo := repository.NewVenueRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	policy := access.NewPolicy(access.ParseListingMode(cfg.Venues.PublicListing))

	venues := service.NewVenueService(venueRepo, bookingRepo, policy, events, service.VenueOptions{
		AutoApprove:       cfg.Venues.AutoApprove,
		StrictSlotRemoval: cfg.Venues.StrictSlotRemoval,
	}, service.NewLogger("venues", cfg.LogLevel))
	bookings := service.NewBookingService(bookingRepo, venueRepo, policy, events, service.NewLogger("bookings", cfg.LogLevel))
	favorites := service.NewFavoriteService(repository.NewFavoriteRepo(db), venueRepo, policy)

	if mqCfg.Enabled {
		for _, c := range []*queue.Consumer{
			{
				Name:     "booking-log",
				URL:      mqCfg.URL,
				Exchange: mqCfg.Exchange,
				Queue:    mqCfg.BookingQueue,
				Bindings: []string{"booking.#"},
				Prefetch: mqCfg.Prefetch,
				Handle:   queue.NewBookingLog(mqCfg.LogPath).Handle,

				DialTimeout: mqCfg.DialTimeout,
				MaxRetries:  mqCfg.MaxRetries,
				RetryDelay:  mqCfg.RetryDelay,
			},
			{
				Name:     "payments",
				URL:      mqCfg.URL,
				Exchange: mqCfg.Exchange,
				Queue:    mqCfg.PaymentQueue,
				Bindings: []string{queue.PaymentCompleted},
				Prefetch: mqCfg.Prefetch,
				Handle:   queue.PaymentHandler{Bookings: bookings, Permanent: service.IsPermanent}.Handle,

				DialTimeout: mqCfg.DialTimeout,
				MaxRetries:  mqCfg.MaxRetries,
				RetryDelay:  mqCfg.RetryDelay,
			},
		} {
			workers.Add(1)
			go func(c *queue.Consumer) {
				defer workers.Done()
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("consumer %s stopped: %v", c.Name, err)
				}
			}(c)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("%s %s -> %d (%s): %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Printf("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	if metricsCfg.Enabled {
		e.Use(middleware.Metrics())
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, db, metricsCfg)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterVenues(e, handler.NewVenueHandler(venues), cfg.JWTSecret, cache)
	router.RegisterBookings(e, handler.NewBookingHandler(bookings), cfg.JWTSecret)
	router.RegisterFavorites(e, handler.NewFavoriteHandler(favorites), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	workers.Wait()
}
