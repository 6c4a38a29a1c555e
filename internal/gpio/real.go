//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// RealPort drives pins through the Linux GPIO character device.
type RealPort struct {
	chip    *gpiocdev.Chip
	inputs  map[int]*gpiocdev.Line
	outputs map[int]*gpiocdev.Line
}

// NewRealPort requests every line in layout on the named chip.
func NewRealPort(chipName string, layout Layout) (*RealPort, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPort{
		chip:    chip,
		inputs:  make(map[int]*gpiocdev.Line),
		outputs: make(map[int]*gpiocdev.Line),
	}

	bias := gpiocdev.WithPullDown
	if layout.InputsPullUp {
		bias = gpiocdev.WithPullUp
	}
	for _, pin := range layout.Inputs {
		if err := p.requestInput(pin, bias); err != nil {
			p.Close()
			return nil, err
		}
	}
	if err := p.requestInput(layout.ModePin, gpiocdev.WithPullUp); err != nil {
		p.Close()
		return nil, err
	}

	initial := 0
	if layout.OutputsInitial {
		initial = 1
	}
	for _, pin := range layout.Outputs {
		if err := p.requestOutput(pin, initial); err != nil {
			p.Close()
			return nil, err
		}
	}
	if err := p.requestOutput(layout.StatusPin, 0); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func (p *RealPort) requestInput(pin int, bias gpiocdev.LineReqOption) error {
	line, err := p.chip.RequestLine(pin, gpiocdev.AsInput, bias)
	if err != nil {
		return fmt.Errorf("request input pin %d: %w", pin, err)
	}
	p.inputs[pin] = line
	return nil
}

func (p *RealPort) requestOutput(pin, initial int) error {
	line, err := p.chip.RequestLine(pin, gpiocdev.AsOutput(initial))
	if err != nil {
		return fmt.Errorf("request output pin %d: %w", pin, err)
	}
	p.outputs[pin] = line
	return nil
}

// Read returns the raw level of an input pin.
func (p *RealPort) Read(pin int) (bool, error) {
	line, ok := p.inputs[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not requested as input", pin)
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

// Write drives an output pin.
func (p *RealPort) Write(pin int, level bool) error {
	line, ok := p.outputs[pin]
	if !ok {
		return fmt.Errorf("pin %d not requested as output", pin)
	}
	v := 0
	if level {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Close releases GPIO resources.
// Output lines are reconfigured as biased inputs before release so relays
// are not left energised by a floating driver.
func (p *RealPort) Close() error {
	var err error

	for pin, line := range p.outputs {
		if rerr := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("reconfigure pin %d: %w", pin, rerr))
		}
		if cerr := line.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close pin %d: %w", pin, cerr))
		}
	}
	for pin, line := range p.inputs {
		if cerr := line.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close pin %d: %w", pin, cerr))
		}
	}
	p.outputs = nil
	p.inputs = nil

	if p.chip != nil {
		if cerr := p.chip.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close chip: %w", cerr))
		}
		p.chip = nil
	}
	return err
}
