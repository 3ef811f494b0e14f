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
	"github.com/getatme/platform/services/profile-service/internal/consumer"
	"github.com/getatme/platform/services/profile-service/internal/handlers"
	"github.com/getatme/platform/services/profile-service/internal/inbox"
	"github.com/getatme/platform/services/profile-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "profile-service")
	port, err := config.Port("PORT", "8081")
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

	repo := storage.NewRepository(pool)

	inboxRepo := inbox.NewRepository(pool)
	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		consumerCfg := consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "profile-service"),
			Topic:   topic,
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, func(ctx context.Context, msg kafka.Message) error {
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

			if err := repo.UpsertEntitlements(ctx, tx, storage.OwnerEntitlements{
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

	profileHandler := handlers.New(repo, logger, config.String("IDENTITY_WEBHOOK_SECRET", ""))

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/profile", profileHandler.Profile)
	mux.HandleFunc("/api/v1/profile/handle", profileHandler.ClaimHandle)
	mux.HandleFunc("/api/v1/profile/links", profileHandler.Links)
	mux.HandleFunc("/api/v1/profile/links/reorder", profileHandler.ReorderLinks)
	mux.HandleFunc("/api/v1/profile/posts", profileHandler.Posts)
	mux.HandleFunc("/api/v1/public/page", profileHandler.PublicPage)
	mux.HandleFunc("/api/v1/profile/webhooks/identity", profileHandler.IdentityWebhook)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "profile")
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
