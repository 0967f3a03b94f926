package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"policy-assistant/internal/assistant"
	"policy-assistant/internal/chat"
	"policy-assistant/internal/config"
	"policy-assistant/internal/handler"
	"policy-assistant/internal/logger"
	"policy-assistant/internal/metrics"
	"policy-assistant/internal/notify"
	"policy-assistant/internal/storage"
	"policy-assistant/internal/store"
	"policy-assistant/internal/tracing"
)

var configPath = flag.String("config", "", "Path to a YAML config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	m := metrics.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}
	defer shutdownTracing()

	slot, closeSlot, err := openSlot(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open storage")
	}
	defer closeSlot()

	var publisher notify.Publisher
	if len(cfg.Notify.Brokers) > 0 {
		kp := notify.NewKafkaPublisher(cfg.Notify.Brokers, cfg.Notify.Topic, m)
		defer kp.Close()
		publisher = kp
	} else {
		publisher = notify.NewLogPublisher(log.Component("notify"), m)
	}

	st := store.New(slot,
		store.WithKey(cfg.Storage.Key),
		store.WithLogger(log.Component("store")),
		store.WithMetrics(m),
		store.WithPublisher(publisher),
	)
	st.Load(ctx)

	if cfg.Notify.ReminderInterval > 0 {
		reminder := notify.NewReminder(st, publisher, log.Component("notify"), cfg.Urgency.NominalTermDays)
		go reminder.Run(ctx, cfg.Notify.ReminderInterval)
	}

	remote, err := assistant.New(cfg.Assistant.Provider, assistant.Options{
		BaseURL: cfg.Assistant.BaseURL,
		APIKey:  cfg.Assistant.APIKey,
		Timeout: cfg.Assistant.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create assistant client")
	}
	if cfg.Assistant.APIKey == "" {
		log.Warn().Msg("No API key configured, chat will answer with a fixed notice")
	}

	session := chat.NewSession(remote, st, chat.Config{
		Provider:    cfg.Assistant.Provider,
		Model:       cfg.Assistant.Model,
		Temperature: cfg.Assistant.Temperature,
		APIKey:      cfg.Assistant.APIKey,
	}, chat.WithLogger(log.Component("chat")), chat.WithMetrics(m))

	var limiter *rate.Limiter
	if cfg.Chat.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Chat.RateLimit), cfg.Chat.Burst)
	}

	h := handler.New(st, session, handler.Options{
		Logger:      log.Component("http"),
		Metrics:     m,
		ChatLimiter: limiter,
		TermDays:    cfg.Urgency.NominalTermDays,
	})

	server := &fasthttp.Server{
		Handler:      h.Handle,
		Name:         "policy-assistant",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Assistant.Timeout + 10*time.Second,
	}

	go func() {
		<-ctx.Done()
		log.LogServerShutdown()
		if err := server.ShutdownWithContext(context.Background()); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.LogServerStart(cfg.Server.Port, cfg.Storage.Driver)
	if err := server.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// openSlot returns the durable slot for the configured driver and its closer.
func openSlot(cfg *config.Config) (storage.Slot, func(), error) {
	noop := func() {}

	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemorySlot(), noop, nil
	case "file", "":
		return storage.NewFileSlot(cfg.Storage.Path), noop, nil
	case "redis":
		s := storage.NewRedisSlot(cfg.Storage.RedisAddr)
		return s, func() { s.Close() }, nil
	case "postgres":
		s, err := storage.OpenPostgres(cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "sqlite":
		s, err := storage.OpenSQLite(cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}
