// Command midi-bridge bridges GPIO inputs and relay outputs to USB and serial MIDI.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sweeney/midi-bridge/internal/bridge"
	"github.com/sweeney/midi-bridge/internal/diag"
	"github.com/sweeney/midi-bridge/internal/gpio"
	"github.com/sweeney/midi-bridge/internal/logic"
	"github.com/sweeney/midi-bridge/internal/mqtt"
	"github.com/sweeney/midi-bridge/internal/status"
	"github.com/sweeney/midi-bridge/internal/transport"
	"github.com/sweeney/midi-bridge/internal/web"
)

type options struct {
	chip        string
	poll        time.Duration
	midiChannel uint
	velocity    uint
	usbIn       string
	usbOut      string
	serialDev   string
	diagDev     string
	debug       bool
	broker      string
	heartbeat   time.Duration
	httpAddr    string
	printState  bool
}

func main() {
	cfg := logic.DefaultConfig()
	var opts options

	flag.StringVar(&opts.chip, "chip", gpio.DefaultChip, "GPIO character device")
	flag.DurationVar(&opts.poll, "poll", time.Millisecond, "Idle delay between loop iterations")
	flag.DurationVar(&cfg.Debounce, "debounce", logic.DefaultDebounce, "Debounce interval")
	flag.UintVar(&opts.midiChannel, "midi-channel", logic.DefaultMIDIChannel, "MIDI channel (1..16)")
	flag.UintVar(&opts.velocity, "velocity", logic.DefaultOnVelocity, "Note On velocity (1..127)")
	flag.BoolVar(&cfg.StrictChannel, "strict-channel", false, "Ignore inbound notes on other MIDI channels")
	flag.BoolVar(&cfg.InputsActiveLow, "active-low-inputs", false, "Inputs are active when pulled LOW")
	flag.IntVar(&cfg.ModePin, "mode-pin", logic.DefaultModePin, "Mode-select pin (HIGH = program change)")
	flag.IntVar(&cfg.StatusPin, "status-pin", logic.DefaultStatusPin, "Readiness indicator pin")
	flag.StringVar(&opts.usbIn, "usb-in", "", "USB MIDI input port name substring (requires -usb-out; both empty disables USB)")
	flag.StringVar(&opts.usbOut, "usb-out", "", "USB MIDI output port name substring (requires -usb-in; both empty disables USB)")
	flag.StringVar(&opts.serialDev, "serial", "", "Serial MIDI device at 31250 baud (empty disables)")
	flag.StringVar(&opts.diagDev, "diag", "", "Diagnostic serial device at 57600 baud (empty = stderr)")
	flag.BoolVar(&opts.debug, "debug", false, "Debug-level diagnostics")
	flag.StringVar(&opts.broker, "broker", "", "MQTT broker for telemetry (empty disables)")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.httpAddr, "http", "", "HTTP status address (empty to disable)")
	flag.BoolVar(&opts.printState, "print-state", false, "Print current pin levels and exit")

	flag.Parse()

	log, closeLog, err := diag.New(opts.diagDev, opts.debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, opts, log); err != nil {
		log.Errorw("fatal", "err", err)
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}

func run(cfg logic.Config, opts options, log *zap.SugaredLogger) (err error) {
	if err := cfg.SetMIDI(opts.midiChannel, opts.velocity); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Initialize GPIO
	port, err := gpio.NewRealPort(opts.chip, bridge.Layout(cfg))
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() { err = multierr.Append(err, port.Close()) }()

	// Print state mode
	if opts.printState {
		return printState(os.Stdout, cfg, port)
	}

	transports, err := openTransports(opts, log)
	defer func() {
		for _, t := range transports {
			err = multierr.Append(err, t.Close())
		}
		midi.CloseDriver()
	}()
	if err != nil {
		return err
	}
	if len(transports) == 0 {
		log.Warnw("no midi transport configured")
	}

	// Initialize MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if opts.broker != "" {
		p, perr := mqtt.NewRealPublisher(opts.broker, log)
		if perr != nil {
			return fmt.Errorf("init mqtt: %w", perr)
		}
		// Broker round trips happen on the async worker, never on the loop.
		async := mqtt.NewAsync(p, mqtt.DefaultAsyncQueueSize, log)
		defer func() { err = multierr.Append(err, async.Close()) }()
		publisher, mqttStatus = async, async
	}

	names := make([]string, len(transports))
	for i, t := range transports {
		names[i] = t.Name()
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:        opts.poll.Milliseconds(),
		DebounceMs:    cfg.Debounce.Milliseconds(),
		HeartbeatMs:   opts.heartbeat.Milliseconds(),
		MIDIChannel:   cfg.MIDIChannel,
		OnVelocity:    cfg.OnVelocity,
		StrictChannel: cfg.StrictChannel,
		Transports:    names,
		Broker:        opts.broker,
		HTTPAddr:      opts.httpAddr,
		Channels:      cfg.Channels,
	})

	d := bridge.New(cfg, port, transports, time.Now(), log)
	if err := d.Start(); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	tracker.SetReady(true)

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Warnw("failed to publish startup event", "err", err)
		}
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warnw("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", opts.httpAddr)
	}

	log.Infow("started", "poll", opts.poll, "debounce", cfg.Debounce, "broker", opts.broker, "heartbeat", opts.heartbeat)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, publisher, mqttStatus, tracker, opts.heartbeat, log, time.Now, ticker.C, sigCh)
}

// openTransports opens USB first, then serial. On error the transports
// opened so far are returned so the caller can close them.
func openTransports(opts options, log *zap.SugaredLogger) ([]transport.Transport, error) {
	var ts []transport.Transport
	if opts.usbIn != "" || opts.usbOut != "" {
		u, err := transport.OpenUSB(opts.usbIn, opts.usbOut, transport.DefaultQueueSize, log)
		if err != nil {
			return ts, fmt.Errorf("init usb midi: %w", err)
		}
		ts = append(ts, u)
	}
	if opts.serialDev != "" {
		s, err := transport.OpenSerial(opts.serialDev, transport.DefaultQueueSize, log)
		if err != nil {
			return ts, fmt.Errorf("init serial midi: %w", err)
		}
		ts = append(ts, s)
	}
	return ts, nil
}

func runLoop(d *bridge.Dispatcher, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, log *zap.SugaredLogger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Infow("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			if err := d.Stop(); err != nil {
				log.Warnw("failed to release outputs", "err", err)
			}

			if tracker != nil {
				tracker.SetReady(false)
				refresh(tracker, d, mqttStatus)
			}
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnw("failed to publish shutdown event", "err", err)
			}
			return nil

		case <-tick:
			t := now()
			events := d.Step(t)

			if publisher != nil {
				for _, event := range events {
					if err := publisher.Publish(event); err != nil {
						log.Warnw("publish error", "err", err)
					}
				}
			}

			if tracker != nil {
				refresh(tracker, d, mqttStatus)
			}

			hb := d.CheckHeartbeat(t, heartbeat)
			if hb == nil {
				continue
			}
			log.Infow("heartbeat", "uptime", hb.Uptime, "activated", hb.Counts.Activated, "deactivated", hb.Counts.Deactivated,
				"sent", hb.Counts.Sent, "received", hb.Counts.Received, "ignored", hb.Counts.Ignored)
			if publisher == nil {
				continue
			}
			hbEvent := mqtt.SystemEvent{
				Timestamp: hb.Timestamp,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Warnw("heartbeat publish error", "err", err)
			}
		}
	}
}

// refresh copies dispatcher state into the tracker for HTTP consumers.
func refresh(tracker *status.Tracker, d *bridge.Dispatcher, mqttStatus mqtt.ConnectionStatus) {
	tracker.Update(d.Mode(), d.Inputs(), d.Outputs(), d.Counts())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// printState reads every input and the mode pin once.
func printState(w io.Writer, cfg logic.Config, port gpio.Port) error {
	for i, ch := range cfg.Channels {
		level, err := port.Read(ch.InputPin)
		if err != nil {
			return fmt.Errorf("read input %d: %w", i, err)
		}
		fmt.Fprintf(w, "IN%d (pin %d): %s\n", i, ch.InputPin, levelString(level))
	}
	level, err := port.Read(cfg.ModePin)
	if err != nil {
		return fmt.Errorf("read mode pin: %w", err)
	}
	fmt.Fprintf(w, "MODE (pin %d): %s %s\n", cfg.ModePin, levelString(level), logic.ModeFromPin(level))
	return nil
}

func levelString(level bool) string {
	if level {
		return "HIGH"
	}
	return "LOW"
}
