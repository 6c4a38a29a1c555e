// Package bridge runs one iteration of the GPIO<->MIDI main loop at a time.
package bridge

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sweeney/midi-bridge/internal/gpio"
	"github.com/sweeney/midi-bridge/internal/logic"
	"github.com/sweeney/midi-bridge/internal/transport"
)

// Dispatcher owns all bridge state. It is not safe for concurrent use; the
// main loop is its only caller.
type Dispatcher struct {
	cfg        logic.Config
	port       gpio.Port
	transports []transport.Transport
	debouncer  *logic.Debouncer
	stats      *logic.Stats
	log        *zap.SugaredLogger

	mode    logic.Mode
	outputs [logic.NumChannels]bool
}

// New creates a Dispatcher. Outbound messages go to transports in the order
// given; inbound queues are drained in the same order.
func New(cfg logic.Config, port gpio.Port, transports []transport.Transport, startTime time.Time, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		port:       port,
		transports: transports,
		debouncer:  logic.NewDebouncer(cfg.Debounce, cfg.ActiveInputLevel()),
		stats:      logic.NewStats(startTime),
		log:        log,
		mode:       logic.ModeFromPin(logic.High),
	}
}

// Start drives every output inactive and raises the status pin.
func (d *Dispatcher) Start() error {
	for i, ch := range d.cfg.Channels {
		if err := d.port.Write(ch.OutputPin, d.cfg.OutputLevel(false)); err != nil {
			return fmt.Errorf("init output %d: %w", i, err)
		}
		d.outputs[i] = false
	}
	if err := d.port.Write(d.cfg.StatusPin, logic.High); err != nil {
		return fmt.Errorf("set status pin: %w", err)
	}

	names := make([]string, len(d.transports))
	for i, t := range d.transports {
		names[i] = t.Name()
	}
	d.log.Infow("bridge ready", "transports", names, "midi_channel", d.cfg.MIDIChannel, "debounce", d.cfg.Debounce)
	return nil
}

// Stop releases every output and lowers the status pin.
func (d *Dispatcher) Stop() error {
	var err error
	for i, ch := range d.cfg.Channels {
		if werr := d.port.Write(ch.OutputPin, d.cfg.OutputLevel(false)); werr != nil {
			err = multierr.Append(err, fmt.Errorf("release output %d: %w", i, werr))
		}
		d.outputs[i] = false
	}
	if werr := d.port.Write(d.cfg.StatusPin, logic.Low); werr != nil {
		err = multierr.Append(err, fmt.Errorf("clear status pin: %w", werr))
	}
	return err
}

// Step runs one loop iteration: drain inbound, sample mode, poll inputs in
// index order. It returns the events produced, in the order they happened.
func (d *Dispatcher) Step(now time.Time) []logic.Event {
	var events []logic.Event

	for _, t := range d.transports {
		for _, msg := range t.Poll() {
			events = append(events, d.handleInbound(now, t.Name(), msg))
		}
	}

	d.mode = d.readMode()

	for i, ch := range d.cfg.Channels {
		raw, err := d.port.Read(ch.InputPin)
		if err != nil {
			d.log.Warnw("input read failed", "channel", i, "pin", ch.InputPin, "err", err)
			continue
		}

		edge, ok := d.debouncer.Process(i, raw, now)
		if !ok {
			continue
		}

		msg, ok := logic.MapInput(d.cfg, i, edge, d.mode)
		if !ok {
			d.stats.RecordEdge(edge)
			d.log.Debugw("edge without message", "channel", i, "edge", edge, "mode", d.mode)
			continue
		}

		d.fanOut(msg)
		e := logic.Event{
			Timestamp: now,
			Type:      logic.EventSent,
			Index:     i,
			Mode:      d.mode,
			Edge:      edge,
			Message:   msg,
		}
		d.stats.Record(e)
		events = append(events, e)
	}

	return events
}

func (d *Dispatcher) readMode() logic.Mode {
	level, err := d.port.Read(d.cfg.ModePin)
	if err != nil {
		// Fall back to what the pull-up would read.
		d.log.Warnw("mode pin read failed", "pin", d.cfg.ModePin, "err", err)
		level = logic.High
	}
	return logic.ModeFromPin(level)
}

// fanOut sends msg on every transport. A failing transport does not stop
// the others.
func (d *Dispatcher) fanOut(msg logic.Message) {
	for _, t := range d.transports {
		if err := transport.Send(t, msg); err != nil {
			d.log.Warnw("midi send failed", "transport", t.Name(), "msg", msg.String(), "err", err)
			continue
		}
		d.log.Infow("midi out", "transport", t.Name(), "msg", msg.String())
	}
}

func (d *Dispatcher) handleInbound(now time.Time, from string, msg logic.Message) logic.Event {
	e := logic.Event{
		Timestamp: now,
		Index:     -1,
		Mode:      d.mode,
		Message:   msg,
	}

	cmd, ok := logic.MapOutput(d.cfg, msg)
	if !ok {
		e.Type = logic.EventIgnored
		d.stats.Record(e)
		d.log.Debugw("midi in ignored", "transport", from, "msg", msg.String())
		return e
	}

	if err := d.port.Write(cmd.Pin, cmd.Level); err != nil {
		d.log.Warnw("output write failed", "channel", cmd.Index, "pin", cmd.Pin, "err", err)
	}
	d.outputs[cmd.Index] = cmd.Active

	e.Type = logic.EventReceived
	e.Index = cmd.Index
	e.Active = cmd.Active
	d.stats.Record(e)
	d.log.Infow("midi in", "transport", from, "msg", msg.String(), "pin", cmd.Pin, "active", cmd.Active)
	return e
}

// Mode returns the mode sampled on the last Step.
func (d *Dispatcher) Mode() logic.Mode {
	return d.mode
}

// Inputs returns the debounced logical state of every input.
func (d *Dispatcher) Inputs() [logic.NumChannels]bool {
	var in [logic.NumChannels]bool
	for i := range in {
		in[i] = d.debouncer.Active(i)
	}
	return in
}

// Outputs returns the logical state of every output.
func (d *Dispatcher) Outputs() [logic.NumChannels]bool {
	return d.outputs
}

// Counts returns event counters since startup.
func (d *Dispatcher) Counts() logic.EventCounts {
	return d.stats.Counts()
}

// CheckHeartbeat reports heartbeat data when interval has elapsed.
func (d *Dispatcher) CheckHeartbeat(now time.Time, interval time.Duration) *logic.HeartbeatData {
	return d.stats.CheckHeartbeat(now, interval)
}

// Layout returns the GPIO lines the bridge needs for cfg.
func Layout(cfg logic.Config) gpio.Layout {
	l := gpio.Layout{
		InputsPullUp:   cfg.InputsActiveLow,
		ModePin:        cfg.ModePin,
		OutputsInitial: cfg.OutputLevel(false),
		StatusPin:      cfg.StatusPin,
	}
	for _, ch := range cfg.Channels {
		l.Inputs = append(l.Inputs, ch.InputPin)
		l.Outputs = append(l.Outputs, ch.OutputPin)
	}
	return l
}
