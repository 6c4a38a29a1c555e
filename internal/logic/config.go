package logic

import (
	"errors"
	"fmt"
	"time"
)

// Defaults taken from the reference firmware.
const (
	DefaultDebounce    = 10 * time.Millisecond
	DefaultMIDIChannel = 1
	DefaultOnVelocity  = 110
	DefaultModePin     = 7
	DefaultStatusPin   = 13
)

// Config is the static bridge configuration.
type Config struct {
	Channels    [NumChannels]Channel
	Debounce    time.Duration
	MIDIChannel uint8 // 1..16, used for outbound messages and the strict filter
	OnVelocity  uint8

	// StrictChannel drops inbound notes not on MIDIChannel. Off by default:
	// the reference firmware accepts every channel.
	StrictChannel bool

	// InputsActiveLow treats a LOW input as active. Default is active-high.
	InputsActiveLow bool
	// OutputsActiveHigh drives outputs HIGH when active. Default is the
	// active-low relay convention.
	OutputsActiveHigh bool

	ModePin   int
	StatusPin int
}

// DefaultConfig returns the reference firmware configuration.
func DefaultConfig() Config {
	return Config{
		Channels:    DefaultChannels,
		Debounce:    DefaultDebounce,
		MIDIChannel: DefaultMIDIChannel,
		OnVelocity:  DefaultOnVelocity,
		ModePin:     DefaultModePin,
		StatusPin:   DefaultStatusPin,
	}
}

// Validate checks ranges and the unique-note invariant.
func (c Config) Validate() error {
	if c.MIDIChannel < 1 || c.MIDIChannel > 16 {
		return fmt.Errorf("midi channel %d out of range 1..16", c.MIDIChannel)
	}
	if c.OnVelocity < 1 || c.OnVelocity > 127 {
		return fmt.Errorf("on velocity %d out of range 1..127", c.OnVelocity)
	}
	if c.Debounce <= 0 {
		return errors.New("debounce must be positive")
	}
	seen := make(map[uint8]int, NumChannels)
	for i, ch := range c.Channels {
		if ch.Note > 127 {
			return fmt.Errorf("channel %d: note %d out of range", i, ch.Note)
		}
		if ch.Program > 127 {
			return fmt.Errorf("channel %d: program %d out of range", i, ch.Program)
		}
		if j, ok := seen[ch.Note]; ok {
			return fmt.Errorf("channel %d: note %d already used by channel %d", i, ch.Note, j)
		}
		seen[ch.Note] = i
	}
	return nil
}

// SetMIDI assigns the outbound MIDI channel and Note On velocity from
// unconverted values, rejecting anything that does not fit before it is
// narrowed to a byte.
func (c *Config) SetMIDI(channel, velocity uint) error {
	if channel < 1 || channel > 16 {
		return fmt.Errorf("midi channel %d out of range 1..16", channel)
	}
	if velocity < 1 || velocity > 127 {
		return fmt.Errorf("on velocity %d out of range 1..127", velocity)
	}
	c.MIDIChannel = uint8(channel)
	c.OnVelocity = uint8(velocity)
	return nil
}

// ActiveInputLevel is the raw level that means "activated".
func (c Config) ActiveInputLevel() bool {
	return !c.InputsActiveLow
}

// OutputLevel converts a logical output state to a pin level.
func (c Config) OutputLevel(active bool) bool {
	if c.OutputsActiveHigh {
		return active
	}
	return !active
}
