package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/nexus-receiver/internal/config"
	"github.com/sweeney/nexus-receiver/internal/gpio"
	"github.com/sweeney/nexus-receiver/internal/logic"
	"github.com/sweeney/nexus-receiver/internal/mqtt"
	"github.com/sweeney/nexus-receiver/internal/nexus"
	"github.com/sweeney/nexus-receiver/internal/status"
	"github.com/sweeney/nexus-receiver/internal/web"
)

// readingSource is the consumer side of the decoder.
type readingSource interface {
	TryTake() (nexus.Reading, bool)
	Stats() nexus.Stats
}

func newWatcher(cfg config.Config) (gpio.Watcher, error) {
	if !cfg.Simulate.Enabled {
		return gpio.NewRealWatcher(cfg.GPIO.Chip, cfg.GPIO.Pin)
	}
	readings := make([]nexus.Reading, len(cfg.Simulate.Sensors))
	for i, s := range cfg.Simulate.Sensors {
		readings[i] = s.Reading()
	}
	return gpio.NewSimWatcher(nexus.NewMonotonicClock(), cfg.Simulate.Period.Std(), readings...), nil
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:       cfg.Poll.Std().Milliseconds(),
		HeartbeatMs:  cfg.Heartbeat.Std().Milliseconds(),
		StaleAfterMs: cfg.StaleAfter.Std().Milliseconds(),
		DedupMs:      cfg.Dedup.Std().Milliseconds(),
		Broker:       cfg.MQTT.Broker,
		Topic:        cfg.MQTT.Topic,
		HTTPAddr:     cfg.HTTP.Addr,
		Chip:         cfg.GPIO.Chip,
		Pin:          cfg.GPIO.Pin,
		Simulate:     cfg.Simulate.Enabled,
	}
}

func runDaemon(configPath string, cfg config.Config) error {
	decoder := nexus.NewDecoder()

	watcher, err := newWatcher(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer watcher.Close()

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:         cfg.MQTT.Broker,
		ClientIDPrefix: cfg.MQTT.ClientID,
		BaseTopic:      cfg.MQTT.Topic,
		Logger:         slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	startTime := time.Now()
	tracker := status.NewTracker(startTime, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		slog.Error("failed to publish startup event", "err", err)
	} else {
		slog.Info("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		store := config.NewStore(configPath, cfg)
		srv := web.New(cfg.HTTP.Addr, tracker, store, slog.Default())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		slog.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	// Edges start flowing into the decoder from here on.
	if err := watcher.Watch(decoder.Feed); err != nil {
		return fmt.Errorf("watch gpio: %w", err)
	}

	slog.Info("started",
		"input", inputName(cfg),
		"poll", cfg.Poll.Std(),
		"broker", cfg.MQTT.Broker,
		"topic", cfg.MQTT.Topic,
		"heartbeat", cfg.Heartbeat.Std(),
		"stale_after", cfg.StaleAfter.Std(),
	)

	ticker := time.NewTicker(cfg.Poll.Std())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	monitor := logic.NewMonitor(cfg.Dedup.Std(), cfg.StaleAfter.Std(), startTime)
	return runLoop(decoder, monitor, publisher, publisher, tracker, cfg.Heartbeat.Std(), time.Now, ticker.C, sigCh)
}

func inputName(cfg config.Config) string {
	if cfg.Simulate.Enabled {
		return fmt.Sprintf("simulated (%d sensors)", len(cfg.Simulate.Sensors))
	}
	return fmt.Sprintf("%s line %d", cfg.GPIO.Chip, cfg.GPIO.Pin)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

func runLoop(source readingSource, monitor *logic.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	refresh := func() {
		if tracker == nil {
			return
		}
		tracker.Update(monitor.Sensors(), monitor.Counts(), source.Stats())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	publish := func(events []logic.Event) {
		for _, event := range events {
			if event.Type == logic.EventStale {
				slog.Warn("sensor stale", "sensor", event.Sensor.String())
			} else {
				slog.Info("reading", "sensor", event.Sensor.String(),
					"temperature_c", event.Reading.Celsius(),
					"humidity", event.Reading.Humidity,
					"battery_ok", event.Reading.BatteryOK)
			}
			if err := publisher.Publish(event); err != nil {
				// Don't crash on publish failure
				slog.Error("publish error", "err", err)
			}
		}
	}

	for {
		select {
		case s := <-sig:
			name := signalName(s)
			slog.Info("shutting down", "signal", name)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    name,
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", name)
			}
			if err := publisher.PublishSystem(event); err != nil {
				slog.Error("failed to publish shutdown event", "err", err)
			} else {
				slog.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()

			if r, ok := source.TryTake(); ok {
				if !r.ValidChannel() {
					slog.Debug("dropping reading on reserved channel", "reading", r.String())
				}
				publish(monitor.Process(r, t))
			}
			publish(monitor.Expire(t))

			if hb := monitor.CheckHeartbeat(t, heartbeat); hb != nil {
				slog.Info("heartbeat",
					"uptime", hb.Uptime,
					"sensors", hb.Sensors,
					"readings", hb.Counts.Readings,
					"duplicates", hb.Counts.Duplicates,
				)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					refresh()
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					slog.Error("heartbeat publish error", "err", err)
				}
			}

			// Update status tracker for HTTP consumers
			refresh()
		}
	}
}
