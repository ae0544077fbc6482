package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bookable/bookingd/internal/booking"
	"github.com/bookable/bookingd/internal/consumer"
	"github.com/bookable/bookingd/internal/handlers"
	"github.com/bookable/bookingd/internal/inbox"
	"github.com/bookable/bookingd/internal/outbox"
	"github.com/bookable/bookingd/internal/storage"
	"github.com/bookable/bookingd/libs/config"
	"github.com/bookable/bookingd/libs/db"
	"github.com/bookable/bookingd/libs/httpx"
	"github.com/bookable/bookingd/libs/kafkax"
	otelx "github.com/bookable/bookingd/libs/otel"
	"github.com/bookable/bookingd/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "bookingd")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, int32(config.Int("DB_MAX_CONNS", 10)))
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	store := storage.NewStore(pool)
	txRunner := storage.NewTxRunner(pool)
	granularity := config.PositiveInt("SLOT_GRANULARITY_MINUTES", 15)
	svc := booking.New(store, txRunner, granularity, logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	if strings.TrimSpace(kafkaBrokers) != "" {
		inboxRepo := inbox.NewRepository(pool)
		orderConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: kafkaBrokers,
			GroupID: config.String("KAFKA_GROUP_ID", "bookingd"),
			Topic:   config.String("KAFKA_ORDER_CANCELED_TOPIC", consumer.TopicOrderCanceled),
		}, consumer.OrderCanceledHandler(svc, logger))
		go orderConsumer.Run(ctx)
	}

	bookingHandler := handlers.NewBookingHandler(svc, logger)
	adminHandler := handlers.NewAdminHandler(svc, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if strings.TrimSpace(kafkaBrokers) != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	// Rate limiting prefers redis so the limit holds across instances; a single
	// instance without redis falls back to the in-process limiter.
	rateLimit := config.PositiveInt("RATE_LIMIT_PER_MINUTE", 120)
	var rateLimitMiddleware httpx.Middleware
	if redisAddr := strings.TrimSpace(config.String("REDIS_ADDR", "")); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		rateLimitMiddleware = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	} else {
		rateLimitMiddleware = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	mux := runtime.NewBaseMux(readyChecks...)
	mux.HandleFunc("/api/v1/availability", bookingHandler.Availability)
	mux.HandleFunc("/api/v1/book", bookingHandler.Book)
	mux.HandleFunc("/api/v1/appointments", bookingHandler.Appointments)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/reschedule", bookingHandler.Reschedule)
	mux.HandleFunc("/api/v1/calendars", adminHandler.CreateCalendar)
	mux.HandleFunc("/api/v1/timeperiods", timeperiodsMux(adminHandler))
	mux.HandleFunc("/api/v1/timeperiods/delete", adminHandler.DeleteTimeperiod)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		rateLimitMiddleware,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitCSV(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, service)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// timeperiodsMux splits one route between the create and list handlers by
// method; the mux itself keys only on path.
func timeperiodsMux(h *handlers.AdminHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListTimeperiods(w, r)
		case http.MethodPost:
			h.CreateTimeperiod(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
