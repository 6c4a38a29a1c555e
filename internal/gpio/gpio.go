// Package gpio provides digital pin access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Port reads and writes digital pins by line offset.
type Port interface {
	// Read returns the raw level of a requested input pin (true = HIGH).
	Read(pin int) (bool, error)

	// Write drives a requested output pin.
	Write(pin int, level bool) error

	// Close releases GPIO resources.
	Close() error
}

// Layout describes which lines the bridge requests and how.
type Layout struct {
	Inputs []int
	// InputsPullUp biases inputs HIGH (active-low wiring); otherwise they
	// are pulled down.
	InputsPullUp bool

	// ModePin is always pulled up, so an unwired pin reads HIGH.
	ModePin int

	Outputs []int
	// OutputsInitial is the level outputs take when requested (inactive).
	OutputsInitial bool

	// StatusPin starts LOW and is set HIGH once the bridge is ready.
	StatusPin int
}

// DefaultChip is the GPIO character device used when none is given.
const DefaultChip = "gpiochip0"
