package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/02loveslollipop/ble-gateway-viewer/internal/devices"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/logger"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/session"
	"github.com/02loveslollipop/ble-gateway-viewer/internal/transport"
	"github.com/02loveslollipop/ble-gateway-viewer/services/monitor/internal/config"
	"github.com/02loveslollipop/ble-gateway-viewer/services/monitor/internal/report"
)

func main() {
	if err := logger.Init(logger.ConfigFromEnv()); err != nil {
		logger.Fatal().Err(err).Msg("logger error")
	}
	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("monitor failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.WithComponent("monitor")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if cfg.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	var opener transport.Opener = transport.NewSerialOpener(cfg.SerialPort, cfg.BaudRate)
	if cfg.ReplayFile != "" {
		opener = &transport.ReplayOpener{Path: cfg.ReplayFile, Logger: logger.WithComponent("replay")}
	}

	sess := session.New(session.Options{
		Opener:       opener,
		Format:       cfg.Format,
		StartCommand: cfg.StartCommand,
		StopCommand:  cfg.StopCommand,
		Logger:       logger.WithComponent("session"),
	})

	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	if _, err := sess.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sess.Disconnect(); err != nil && !errors.Is(err, session.ErrNotConnected) {
			log.Warn().Err(err).Msg("disconnect failed")
		}
	}()

	log.Info().
		Str("transport", opener.Describe()).
		Str("format", cfg.Format.String()).
		Dur("interval", cfg.Interval).
		Msg("monitoring gateway")

	return watch(ctx, sess, events, cfg, log)
}

// watch logs a report every interval until ctx ends or the gateway is lost.
func watch(ctx context.Context, sess *session.Session, events <-chan session.Event, cfg config.Config, log zerolog.Logger) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var prev []devices.Record
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("devices", len(prev)).Msg("monitor stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case session.EventNotice:
				// The table is already cleared; report what the last tick saw.
				log.Warn().
					Int("devices", len(prev)).
					Strs("last_seen", report.MACs(prev)).
					Msg("gateway connection lost")
				if cfg.ReplayFile != "" {
					log.Info().Msg("replay capture exhausted")
					return nil
				}
				// The session does not reconnect by itself.
				return errors.New(sess.State().Notice)
			case session.EventResponse:
				if resp, ok := sess.Response(); ok {
					log.Info().Str("kind", string(resp.Kind)).Str("message", resp.Message).Msg("gateway response")
				}
			}

		case <-ticker.C:
			curr := sess.Snapshot()
			// A torn-down table is empty; the pending notice reports the loss.
			if !sess.State().Connected {
				continue
			}
			logReport(log, report.Diff(prev, curr, cfg.Top, cfg.MinDelta))
			prev = curr
		}
	}
}

func logReport(log zerolog.Logger, r report.Report) {
	event := log.Info()
	if r.Empty() {
		event = log.Debug()
	}

	strongest := zerolog.Arr()
	for _, rec := range r.Strongest {
		strongest.Dict(zerolog.Dict().Str("mac", rec.MAC).Str("name", rec.Name).Int("rssi", rec.Measurement))
	}

	event.
		Int("total", r.Total).
		Strs("appeared", report.MACs(r.Appeared)).
		Strs("lost", report.MACs(r.Lost)).
		Int("changed", len(r.Changed)).
		Array("strongest", strongest).
		Msg("device report")
}
