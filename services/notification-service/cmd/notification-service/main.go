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
	"github.com/getatme/platform/services/notification-service/internal/consumer"
	"github.com/getatme/platform/services/notification-service/internal/email"
	"github.com/getatme/platform/services/notification-service/internal/inbox"
	"github.com/getatme/platform/services/notification-service/internal/storage"
	"github.com/getatme/platform/services/notification-service/internal/templates"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type appointmentPayload struct {
	AppointmentID string `json:"appointment_id"`
	OwnerID       string `json:"owner_id"`
	VisitorName   string `json:"visitor_name"`
	VisitorEmail  string `json:"visitor_email"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Reason        string `json:"reason"`
}

func main() {
	config.LoadDotenv()
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8084")
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

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@getat.me")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	handleAppointmentEvent := func(ctx context.Context, msg kafka.Message) error {
		var payload appointmentPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid appointment payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.AppointmentID == "" || payload.OwnerID == "" {
			logger.Error("missing appointment fields", "topic", msg.Topic)
			return nil
		}
		if payload.VisitorEmail == "" {
			logger.Info("no visitor email, skipping", "appointment_id", payload.AppointmentID)
			return nil
		}

		subject, body, err := templates.Render(msg.Topic, templates.AppointmentData{
			VisitorName: payload.VisitorName,
			Date:        payload.Date,
			SlotTime:    payload.Time,
			Reason:      payload.Reason,
		})
		if err != nil {
			logger.Error("template render failed", "err", err, "topic", msg.Topic)
			return nil
		}

		status := "sent"
		failureReason := ""
		if err := emailSender.Send(payload.VisitorEmail, subject, body); err != nil {
			// A broken mailbox must not wedge the consumer group; the
			// failure is recorded and the offset still commits.
			status = "failed"
			failureReason = err.Error()
			logger.Error("email send failed", "err", err, "recipient", payload.VisitorEmail)
		}

		if err := notificationsRepo.Insert(ctx, storage.Notification{
			AppointmentID: payload.AppointmentID,
			OwnerID:       payload.OwnerID,
			EventType:     msg.Topic,
			Recipient:     payload.VisitorEmail,
			Payload:       map[string]any{"date": payload.Date, "time": payload.Time, "reason": payload.Reason},
			Status:        status,
			FailureReason: failureReason,
		}); err != nil {
			logger.Error("failed to persist notification", "err", err)
			return err
		}

		logger.Info("appointment event processed",
			"appointment_id", payload.AppointmentID, "topic", msg.Topic, "status", status)
		return nil
	}

	startConsumer := func(topic string) {
		if strings.TrimSpace(topic) == "" {
			return
		}
		consumerCfg := consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   topic,
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumerCfg, handleAppointmentEvent)
		go eventConsumer.Run(ctx)
	}

	startConsumer(config.String("KAFKA_BOOKED_TOPIC", "booking.appointment.booked.v1"))
	startConsumer(config.String("KAFKA_CANCELLED_TOPIC", "booking.appointment.cancelled.v1"))
	startConsumer(config.String("KAFKA_RESCHEDULE_TOPIC", "booking.appointment.reschedule_requested.v1"))

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
