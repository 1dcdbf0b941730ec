package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/config"
	"github.com/BrandonDHaskell/smartlock/internal/db"
	"github.com/BrandonDHaskell/smartlock/internal/grpcapi"
	"github.com/BrandonDHaskell/smartlock/internal/httpapi"
	"github.com/BrandonDHaskell/smartlock/internal/logger"
	"github.com/BrandonDHaskell/smartlock/internal/metrics"
	"github.com/BrandonDHaskell/smartlock/internal/mqtt"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store/sqlite"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
	"github.com/BrandonDHaskell/smartlock/internal/token"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Error().Err(err).Msg("invalid configuration")
		return err
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env}, log)
	if err != nil {
		log.Error().Err(err).Msg("open database")
		return err
	}
	defer conn.Close()

	writer := db.NewWorker(conn, 0)
	defer writer.Close()

	if created, err := db.SeedDevice(ctx, conn, cfg.DeviceID); err != nil {
		log.Error().Err(err).Msg("seed device")
		return err
	} else if created {
		log.Info().Str("device_id", cfg.DeviceID).Msg("device record created")
	}

	// Stores
	deviceStore := sqlite.NewDeviceStore(conn, writer)
	userStore := sqlite.NewUserStore(conn, writer)
	eventStore := sqlite.NewAccessEventStore(conn, writer)
	notificationStore := sqlite.NewNotificationStore(conn, writer)

	// Socket hub
	registry := hub.NewRegistry(log)
	router := hub.NewRouter(registry, log)
	correlator := hub.NewCorrelator()

	// Observers
	m := metrics.New(metrics.Sources{Registry: registry, Correlator: correlator})
	notifications := service.NewNotificationService(notificationStore, 0, log)
	notifications.Start(ctx)
	defer notifications.Stop()
	observers := []service.Observer{m, notifications}

	var publisher *mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		publisher, err = mqtt.Connect(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			DeviceID:    cfg.DeviceID,
			QoS:         cfg.MQTT.QoS,
		}, log)
		if err != nil {
			// Publishing is optional; the lock keeps working without it.
			log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("mqtt disabled")
		} else {
			defer publisher.Close()
			observers = append(observers, publisher)
		}
	}

	recorder := service.NewAccessRecorder(eventStore, cfg.DeviceID, log, observers...)
	lock := service.NewLockSynchronizer(
		service.SynchronizerConfig{DeviceID: cfg.DeviceID, MobilePrincipalID: cfg.MobilePrincipalID},
		deviceStore, userStore, recorder, router, log, observers...,
	)
	if err := lock.Load(ctx); err != nil {
		log.Error().Err(err).Msg("load lock state")
		return err
	}
	m.TrackLock(lock)

	// Services
	tokens := token.NewJWT(cfg.Auth.Secret, cfg.Auth.TTL)
	users := service.NewUserService(userStore, router, tokens, cfg.DeviceID, log)
	enrollment := service.NewEnrollmentService(userStore, router, correlator, cfg.EnrollTimeout, log)
	door := service.NewDoorService(deviceStore, lock, router, log)
	devices := service.NewDeviceService(deviceStore, lock, registry)
	dashboard := service.NewDashboardService(deviceStore, userStore, eventStore, cfg.DeviceID, log)
	dispatcher := service.NewDispatcher(registry, router, correlator, lock, log)

	registry.OnPresenceChange(func(present bool) {
		router.Broadcast(hub.ClassWeb, types.HardwareStatusFrame(present))
	})
	registry.OnPresenceChange(notifications.PresenceChanged)
	if publisher != nil {
		registry.OnPresenceChange(publisher.PresenceChanged)
	}

	pruner := service.NewAccessLogPruner(eventStore, service.PrunerConfig{
		RetentionDays: cfg.AccessLogRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, log)
	pruner.Start(ctx)
	defer pruner.Stop()

	// gRPC health
	var grpcSrv *grpcapi.Server
	if cfg.GRPCAddr != "" {
		grpcSrv = grpcapi.NewServer(cfg.GRPCAddr, log)
		registry.OnPresenceChange(grpcSrv.SetHardwarePresent)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				log.Error().Err(err).Msg("grpc server error")
				stop()
			}
		}()
	}

	// HTTP
	deps := httpapi.Dependencies{
		Logger:     log,
		Addr:       cfg.HTTPAddr,
		Users:      users,
		Enrollment: enrollment,
		Door:       door,
		Devices:    devices,
		Dashboard:  dashboard,
		Registry:   registry,
		Dispatcher: dispatcher,
		Metrics:    m,

		Notifications: notifications,

		Socket: httpapi.SocketConfig{
			Path:                 cfg.WS.Path,
			PingInterval:         cfg.WS.PingInterval,
			PongTimeout:          cfg.WS.PongTimeout,
			MaxMessageBytes:      cfg.WS.MaxMessageBytes,
			SendQueue:            cfg.WS.SendQueue,
			RejectUnknownClients: cfg.RejectUnknownClients,
		},
	}
	if cfg.Auth.Required {
		deps.Tokens = tokens
	}
	srv := httpapi.NewServer(deps)

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("device_id", cfg.DeviceID).Msg("listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if grpcSrv != nil {
		_ = grpcSrv.Stop(shutdownCtx)
	}
	return nil
}
