package gpio

import "fmt"

// FakePort is a test double that returns scripted pin levels and records writes.
type FakePort struct {
	// scripts holds per-pin levels; each Read consumes the next one and the
	// last level repeats once exhausted.
	scripts map[int][]bool
	index   map[int]int

	// levels holds the current level of every known pin.
	levels map[int]bool

	inputs  map[int]bool
	outputs map[int]bool

	// Writes records every Write in order.
	Writes []Write

	// ReadErrors, if set for a pin, is returned by Read for that pin.
	ReadErrors map[int]error

	// WriteError, if set, is returned by every Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// Write is one recorded output write.
type Write struct {
	Pin   int
	Level bool
}

// NewFakePort creates a FakePort with lines requested as in layout.
// Unscripted inputs read their bias level, as real hardware with nothing
// wired would.
func NewFakePort(layout Layout) *FakePort {
	f := &FakePort{
		scripts:    make(map[int][]bool),
		index:      make(map[int]int),
		levels:     make(map[int]bool),
		inputs:     make(map[int]bool),
		outputs:    make(map[int]bool),
		ReadErrors: make(map[int]error),
	}
	for _, pin := range layout.Inputs {
		f.inputs[pin] = true
		f.levels[pin] = layout.InputsPullUp
	}
	f.inputs[layout.ModePin] = true
	f.levels[layout.ModePin] = true
	for _, pin := range layout.Outputs {
		f.outputs[pin] = true
		f.levels[pin] = layout.OutputsInitial
	}
	f.outputs[layout.StatusPin] = true
	f.levels[layout.StatusPin] = false
	return f
}

// Set fixes an input pin at level.
func (f *FakePort) Set(pin int, level bool) {
	delete(f.scripts, pin)
	f.levels[pin] = level
}

// Script makes successive Reads of pin return levels in order.
func (f *FakePort) Script(pin int, levels ...bool) {
	f.scripts[pin] = levels
	f.index[pin] = 0
}

// Read returns the next scripted level for pin, or its fixed level.
func (f *FakePort) Read(pin int) (bool, error) {
	if err := f.ReadErrors[pin]; err != nil {
		return false, err
	}
	if !f.inputs[pin] {
		return false, fmt.Errorf("pin %d not requested as input", pin)
	}

	if script := f.scripts[pin]; len(script) > 0 {
		i := f.index[pin]
		level := script[i]
		if i < len(script)-1 {
			f.index[pin] = i + 1
		}
		f.levels[pin] = level
		return level, nil
	}
	return f.levels[pin], nil
}

// Write records the write and updates the pin level.
func (f *FakePort) Write(pin int, level bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if !f.outputs[pin] {
		return fmt.Errorf("pin %d not requested as output", pin)
	}
	f.Writes = append(f.Writes, Write{Pin: pin, Level: level})
	f.levels[pin] = level
	return nil
}

// Level returns the current level of any known pin.
func (f *FakePort) Level(pin int) bool {
	return f.levels[pin]
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// ResetWrites clears recorded writes.
func (f *FakePort) ResetWrites() {
	f.Writes = nil
}
