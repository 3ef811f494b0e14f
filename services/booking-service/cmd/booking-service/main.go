package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/getatme/platform/libs/config"
	"github.com/getatme/platform/libs/db"
	"github.com/getatme/platform/libs/httpx"
	"github.com/getatme/platform/libs/kafkax"
	otelx "github.com/getatme/platform/libs/otel"
	"github.com/getatme/platform/libs/runtime"
	"github.com/getatme/platform/services/booking-service/internal/consumer"
	"github.com/getatme/platform/services/booking-service/internal/handlers"
	"github.com/getatme/platform/services/booking-service/internal/inbox"
	"github.com/getatme/platform/services/booking-service/internal/outbox"
	"github.com/getatme/platform/services/booking-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8082")
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

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	availRepo := storage.NewAvailabilityRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool)
	entRepo := storage.NewEntitlementsRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		consumerCfg := consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "booking-service"),
			Topic:   topic,
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
			// Activation and cancellation events carry the full flag set
			// for the owner's new tier; both are plain upserts here.
			var payload struct {
				OwnerID        string `json:"owner_id"`
				Tier           string `json:"tier"`
				BookingEnabled bool   `json:"booking_enabled"`
				MaxLinks       int    `json:"max_links"`
			}
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if payload.OwnerID == "" || payload.Tier == "" {
				logger.Error("missing required event fields", "topic", msg.Topic)
				return nil
			}

			tx, err := pool.Begin(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback(ctx) }()

			if err := entRepo.Upsert(ctx, tx, storage.OwnerEntitlements{
				OwnerID:        payload.OwnerID,
				Tier:           payload.Tier,
				BookingEnabled: payload.BookingEnabled,
				MaxLinks:       payload.MaxLinks,
			}); err != nil {
				return err
			}
			return tx.Commit(ctx)
		})
		go eventConsumer.Run(ctx)
	}

	startConsumer(config.String("KAFKA_PLAN_ACTIVATED_TOPIC", "billing.plan.activated.v1"))
	startConsumer(config.String("KAFKA_PLAN_CANCELED_TOPIC", "billing.plan.canceled.v1"))

	bookingHandler := handlers.NewBookingHandler(
		availRepo,
		apptRepo,
		entRepo,
		outboxRepo,
		logger,
		config.String("ICS_ORGANIZER_EMAIL", "bookings@getat.me"),
	)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/booking/availability", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bookingHandler.GetAvailability(w, r)
		case http.MethodPut:
			bookingHandler.UpdateAvailability(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/public/booking/days", bookingHandler.Days)
	mux.HandleFunc("/api/v1/public/booking/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/public/booking/book", bookingHandler.Book)
	mux.HandleFunc("/api/v1/booking/appointments", bookingHandler.List)
	mux.HandleFunc("/api/v1/booking/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/booking/appointments/reschedule", bookingHandler.Reschedule)
	mux.HandleFunc("/api/v1/booking/appointments/confirm", bookingHandler.Confirm)
	mux.HandleFunc("/api/v1/booking/appointments/ics", bookingHandler.Calendar)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
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
