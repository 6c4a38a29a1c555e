package transport

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// USB is a class-compliant USB MIDI device reached through the registered
// gomidi driver. The driver must be imported by the binary.
type USB struct {
	wire
	inPort  drivers.In
	outPort drivers.Out
	stop    func()
}

// OpenUSB opens the first input and output ports whose names contain
// inName and outName. Both names are required; an empty name would match
// whichever port the driver lists first.
func OpenUSB(inName, outName string, queueSize int, log *zap.SugaredLogger) (*USB, error) {
	if inName == "" || outName == "" {
		return nil, fmt.Errorf("usb midi needs both an in and an out port name (in=%q out=%q)", inName, outName)
	}
	in, err := midi.FindInPort(inName)
	if err != nil {
		return nil, fmt.Errorf("find usb midi in port %q: %w", inName, err)
	}
	out, err := midi.FindOutPort(outName)
	if err != nil {
		return nil, fmt.Errorf("find usb midi out port %q: %w", outName, err)
	}
	return newUSB(in, out, queueSize, log)
}

func newUSB(in drivers.In, out drivers.Out, queueSize int, log *zap.SugaredLogger) (*USB, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open usb midi out %s: %w", out, err)
	}

	u := &USB{inPort: in, outPort: out}
	u.wire = wire{
		name: "usb",
		in:   newInbox("usb", queueSize, log),
		write: func(raw []byte) error {
			return send(midi.Message(raw))
		},
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		if m, ok := decode(msg); ok {
			u.in.push(m)
		}
	}, midi.HandleError(func(lerr error) {
		log.Warnw("usb midi listener error", "port", in.String(), "err", lerr)
	}))
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("listen usb midi in %s: %w", in, err)
	}
	u.stop = stop

	log.Infow("usb midi connected", "in", in.String(), "out", out.String())
	return u, nil
}

// Close stops listening and closes both ports. Later calls do nothing.
func (u *USB) Close() error {
	if u.stop == nil {
		return nil
	}
	u.stop()
	u.stop = nil
	return multierr.Combine(u.inPort.Close(), u.outPort.Close())
}
