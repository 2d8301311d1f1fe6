package gesture

import "time"

// Default thresholds.
const (
	// DefaultMinSwipeDistance is the minimum horizontal travel in pixels.
	DefaultMinSwipeDistance = 50.0

	// DefaultMaxSwipeTime is the longest a swipe may take.
	DefaultMaxSwipeTime = 500 * time.Millisecond

	// DefaultMinSwipeSpeed is the minimum average speed in px/ms.
	DefaultMinSwipeSpeed = 0.2
)

// Tuning factors applied on top of the configured thresholds.
const (
	// horizontalBias is how much the horizontal travel must dominate the
	// vertical travel during a move before native scrolling is suppressed.
	horizontalBias = 1.5

	// deliberateFactor multiplies MinSwipeSpeed to get the speed above which a
	// swipe overrides a scroll conflict.
	deliberateFactor = 1.5
)

// Config configures a Recognizer. Zero fields take their defaults.
type Config struct {
	// OnSwipeLeft is called when the finger moves right-to-left.
	// A nil callback means the direction never fires.
	OnSwipeLeft func()

	// OnSwipeRight is called when the finger moves left-to-right.
	OnSwipeRight func()

	// MinSwipeDistance is the minimum horizontal travel in pixels.
	// Default: 50. Negative values are treated as 0.
	MinSwipeDistance float64

	// PreventDefaultOnSwipe makes the recognizer ask the host to cancel
	// native handling for clearly horizontal gestures.
	// Default: false.
	PreventDefaultOnSwipe bool

	// MaxSwipeTime is the maximum gesture duration.
	// Default: 500ms. A negative value disables the time gate.
	MaxSwipeTime time.Duration

	// MinSwipeSpeed is the minimum average speed in px/ms.
	// Default: 0.2. Negative values are treated as 0.
	MinSwipeSpeed float64

	// ScrollConflict reports whether a touch target sits inside a container
	// that is currently mid-scroll. Nil means no target ever conflicts.
	ScrollConflict ScrollConflict
}

// DefaultConfig returns a Config with default thresholds and no callbacks.
func DefaultConfig() Config {
	return Config{
		MinSwipeDistance: DefaultMinSwipeDistance,
		MaxSwipeTime:     DefaultMaxSwipeTime,
		MinSwipeSpeed:    DefaultMinSwipeSpeed,
	}
}

// withDefaults returns a copy of c with unset thresholds filled in.
func (c Config) withDefaults() Config {
	switch {
	case c.MinSwipeDistance == 0:
		c.MinSwipeDistance = DefaultMinSwipeDistance
	case c.MinSwipeDistance < 0:
		c.MinSwipeDistance = 0
	}
	if c.MaxSwipeTime == 0 {
		c.MaxSwipeTime = DefaultMaxSwipeTime
	}
	switch {
	case c.MinSwipeSpeed == 0:
		c.MinSwipeSpeed = DefaultMinSwipeSpeed
	case c.MinSwipeSpeed < 0:
		c.MinSwipeSpeed = 0
	}
	return c
}
