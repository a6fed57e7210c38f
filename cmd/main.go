package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"

	"pairchat/auth"
	"pairchat/bus"
	"pairchat/contract"
	"pairchat/gateway"
	"pairchat/internal"
	"pairchat/moderation"
	"pairchat/presence"
	"pairchat/repositories"
	"pairchat/runtime/workers"
	"pairchat/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the gateway lifecycle, and centralizes
// error reporting. This pattern is preferred over calling os.Exit or panic directly
// because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the server and background workers.
func run() error {
	// 1. Configuration & Logger
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	maskingRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	roomStore, err := repositories.NewRoomStore(db)
	if err != nil {
		return err
	}
	defer roomStore.Close()

	messageLog, err := repositories.NewMessageLog(db, log, config.LimitMessages)
	if err != nil {
		return err
	}
	defer messageLog.Close()

	// 3. Fan-out bus: NATS when a broker is configured, in-process otherwise.
	var fanout contract.IBus
	var brokerHealth workers.BrokerHealth
	if config.NatsURL != "" {
		nc, err := bus.Connect(config.NatsURL, "pairchat-gateway",
			config.NatsMaxReconnects, config.NatsReconnectWait)
		if err != nil {
			return err
		}
		defer nc.Close()
		log.Info("Connected to NATS", "url", nc.ConnectedUrl())
		fanout = bus.NewNatsBus(nc, log, config.ConnectionBufferSize)
		brokerHealth = nc
	} else {
		log.Warn("No NATS_URL configured, running with the in-process bus")
		fanout = bus.NewMemoryBus(log, config.ConnectionBufferSize)
	}

	// 4. Moderation & Services
	filter, err := moderation.NewEmbeddedFilter(maskingRune)
	if err != nil {
		return fmt.Errorf("moderation filter: %w", err)
	}

	chatService := services.NewChatService(log, messageLog, fanout, filter,
		config.IncludeDisplayName, config.PublishRetries, config.PublishBackoff)

	verifier := auth.NewVerifier(config.JWTSecret, config.JWTIssuer)
	registry := presence.NewRegistry()

	dispatcher := gateway.NewDispatcher(log, verifier, roomStore, chatService,
		registry, fanout, gateway.DispatcherConfig{
			Addr:        fmt.Sprintf("%s:%d", config.Host, config.Port),
			MaxSessions: config.MaxSessions,
			AuthTimeout: config.AuthTimeout,
			Session: gateway.SessionConfig{
				WriteTimeout:     config.WriteTimeout,
				PingInterval:     config.PingInterval,
				ReadLimit:        config.ReadLimit,
				MaxContentLength: config.MaxContentLength,
			},
		})

	// 5. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(dispatcher)
	sup.Add(workers.NewTelemetryWorker(log, dispatcher, config.MetricInterval))
	if brokerHealth != nil {
		sup.Add(workers.NewBusWatcher(log, brokerHealth, dispatcher,
			config.BusCheckInterval, config.BusRecoveryWindow))
	}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting gateway", "host", config.Host, "port", config.Port,
		"at", time.Now().UTC())
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
