package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/logger"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/metrics"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/session"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/transport"
	"github.com/02loveslollipop/ble-gateway-viewer/services/dashboard/config"
	httpserver "github.com/02loveslollipop/ble-gateway-viewer/services/dashboard/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	if err := logger.Init(logger.ConfigFromEnv()); err != nil {
		logger.Fatal().Err(err).Msg("logger error")
	}
	log := logger.WithComponent("dashboard")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collator, err := devices.NewCollator(cfg.Collation)
	if err != nil {
		log.Fatal().Err(err).Str("collation", cfg.Collation).Msg("invalid collation locale")
	}

	m := metrics.New()
	sess := session.New(session.Options{
		Opener:       openerFor(cfg),
		Format:       cfg.Format,
		Collator:     collator,
		StartCommand: cfg.StartCommand,
		StopCommand:  cfg.StopCommand,
		ReadBuffer:   cfg.ReadBuffer,
		Metrics:      m,
		Logger:       logger.WithComponent("session"),
	})

	if cfg.AutoConnect {
		if _, err := sess.Connect(ctx); err != nil {
			log.Error().Err(err).Msg("auto-connect failed, waiting for a manual connect")
		}
	}
	defer func() {
		if err := sess.Disconnect(); err != nil && !errors.Is(err, session.ErrNotConnected) {
			log.Warn().Err(err).Msg("disconnect on shutdown failed")
		}
	}()

	srv := httpserver.New(cfg, sess, m, logger.WithComponent("http"))
	log.Info().Str("addr", cfg.ListenAddr()).Str("format", cfg.Format.String()).Msg("dashboard API listening")

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
	}
}

// openerFor picks the replay file when configured, else the serial port.
// A nil opener leaves the dashboard running without a gateway.
func openerFor(cfg config.Config) transport.Opener {
	switch {
	case cfg.ReplayFile != "":
		return &transport.ReplayOpener{
			Path:      cfg.ReplayFile,
			Interval:  cfg.ReplayInterval,
			ChunkSize: cfg.ReplayChunk,
			Loop:      cfg.ReplayLoop,
			Logger:    logger.WithComponent("replay"),
		}
	case cfg.SerialPort != "":
		return transport.NewSerialOpener(cfg.SerialPort, cfg.BaudRate)
	default:
		return nil
	}
}
