// Command greenhouse-controller reads greenhouse sensors, drives the
// irrigation, fertiliser, lighting and ventilation relays, and publishes
// telemetry and actuator events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/greenhouse-controller/internal/config"
	"github.com/sweeney/greenhouse-controller/internal/hal"
	"github.com/sweeney/greenhouse-controller/internal/logic"
	"github.com/sweeney/greenhouse-controller/internal/metrics"
	"github.com/sweeney/greenhouse-controller/internal/mqtt"
	"github.com/sweeney/greenhouse-controller/internal/status"
	"github.com/sweeney/greenhouse-controller/internal/web"
)

func main() {
	poll := flag.Duration("poll", 5*time.Second, "Sensor polling interval")
	publish := flag.Duration("publish", 30*time.Second, "Telemetry publish interval (0 to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	i2cBus := flag.String("i2c-bus", "", "I2C bus name (empty for default)")
	pinPump := flag.Int("pin-pump", hal.DefaultPinPump, "BCM pin number for the pump relay")
	pinFert := flag.Int("pin-fertiliser", hal.DefaultPinFert, "BCM pin number for the fertiliser relay")
	pinLight := flag.Int("pin-light", hal.DefaultPinLight, "BCM pin number for the light relay")
	pinFan := flag.Int("pin-fan", hal.DefaultPinFan, "BCM pin number for the fan relay")
	printState := flag.Bool("print-state", false, "Read sensors once, print the snapshot and exit")

	flag.Parse()

	pins := hal.RelayPins{Pump: *pinPump, Fertiliser: *pinFert, Light: *pinLight, Fan: *pinFan}
	if err := run(*poll, *publish, *heartbeat, *broker, *httpAddr, *i2cBus, pins, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll, publish, heartbeat time.Duration, broker, httpAddr, i2cBus string, pins hal.RelayPins, printState bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cal := cfg.Calibration()
	thresholds := cfg.Thresholds()

	readerOpts := hal.DefaultReaderOpts()
	readerOpts.I2CBus = i2cBus
	reader, err := hal.NewRealReader(readerOpts)
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if printState {
		raw, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read sensors: %w", err)
		}
		snap, ok := logic.BuildSnapshot(raw, cal, time.Now())
		fmt.Printf("temp: %.1f°C, humidity: %.1f%%, soil: %d%%, pH: %.2f, light: %d, rain: %d (raining=%v, valid=%v)\n",
			snap.Temperature, snap.Humidity, snap.SoilMoisture, snap.Acidity,
			snap.LightLevel, snap.RainLevel, snap.IsRaining, ok)
		return nil
	}

	writer, err := hal.NewRealWriter(pins)
	if err != nil {
		return fmt.Errorf("init relays: %w", err)
	}
	defer writer.Close()

	// Overrides arrive on paho's goroutine; hand them to the loop so all
	// actuator writes stay serialized.
	commands := make(chan mqtt.Command, 16)
	client, err := mqtt.NewRealClient(broker, func(cmd mqtt.Command) {
		select {
		case commands <- cmd:
		default:
			log.Printf("command queue full, dropping %s override", cmd.Actuator)
		}
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      poll.Milliseconds(),
		PublishMs:   publish.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := client.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v publish=%v broker=%s heartbeat=%v", poll, publish, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, writer, client, client, tracker, m, cal, thresholds, publish, heartbeat, time.Now, ticker.C, sigCh, commands)
}

func runLoop(reader hal.SensorReader, writer hal.ActuatorWriter, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, m *metrics.Metrics, cal logic.Calibration, thresholds logic.Thresholds, publish, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, commands <-chan mqtt.Command) error {
	startTime := now()
	engine := logic.NewEngine(thresholds, startTime)

	var state logic.ActuatorState
	var lastSnap logic.Snapshot
	var lastTelemetry time.Time

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd := <-commands:
			t := now()
			if state.Get(cmd.Actuator) == cmd.On {
				log.Printf("override: %s already %s", cmd.Actuator, onOff(cmd.On))
				continue
			}
			next := state
			next.Set(cmd.Actuator, cmd.On)
			if err := writer.Apply(next); err != nil {
				log.Printf("override: apply error: %v", err)
				continue
			}
			state = next

			tr := logic.Transition{Time: t, Actuator: cmd.Actuator, On: cmd.On, Reason: "manual", State: state}
			engine.RecordManual(tr)
			log.Printf("override: %s -> %s", tr.Actuator, onOff(tr.On))
			if err := publisher.PublishTransition(tr); err != nil {
				log.Printf("publish error: %v", err)
			}
			m.ObserveTransition(tr, "manual")
			m.ObserveState(state)
			if tracker != nil {
				tracker.Update(lastSnap, state, engine.Evaluated(), engine.CountsSnapshot())
			}

		case <-tick:
			t := now()
			raw, err := reader.Read()
			if err != nil {
				log.Printf("sensor read error: %v", err)
				m.ObserveCycle()
				continue
			}

			snap, ok := logic.BuildSnapshot(raw, cal, t)
			if !ok {
				log.Printf("invalid snapshot, skipping cycle: temp=%.1f humidity=%.1f soil_raw=%d", raw.Temperature, raw.Humidity, raw.Soil)
				if tracker != nil {
					tracker.RecordInvalid()
				}
				m.ObserveInvalid()
				continue
			}

			next, transitions, _ := engine.Evaluate(state, snap)
			if err := writer.Apply(next); err != nil {
				// Relay write failed: keep the previous state so the next
				// cycle re-decides and retries the transition.
				log.Printf("relay apply error: %v", err)
				m.ObserveCycle()
				continue
			}
			state = next
			lastSnap = snap

			for _, tr := range transitions {
				log.Printf("transition: %s -> %s (%s)", tr.Actuator, onOff(tr.On), tr.Reason)
				if err := publisher.PublishTransition(tr); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
				m.ObserveTransition(tr, "policy")
			}

			m.ObserveCycle()
			m.ObserveSnapshot(snap)
			m.ObserveState(state)

			if tracker != nil {
				tracker.Update(snap, state, engine.Evaluated(), engine.CountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if publish > 0 && (lastTelemetry.IsZero() || t.Sub(lastTelemetry) >= publish) {
				if err := publisher.PublishTelemetry(snap); err != nil {
					log.Printf("telemetry publish error: %v", err)
				}
				lastTelemetry = t
			}

			if hbData := engine.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v pump_on=%d pump_off=%d fan_on=%d fan_off=%d",
					hbData.Uptime, hbData.Counts.PumpOn, hbData.Counts.PumpOff, hbData.Counts.FanOn, hbData.Counts.FanOff)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
					Heartbeat: &mqtt.HeartbeatInfo{
						UptimeSeconds: int64(hbData.Uptime.Truncate(time.Second).Seconds()),
						Counts:        hbData.Counts,
					},
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
