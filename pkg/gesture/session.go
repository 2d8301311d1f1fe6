package gesture

import (
	"math"
	"time"
)

// Point is a single contact position in the host's coordinate space.
type Point struct {
	X float64
	Y float64
}

// Target is an opaque reference to the node under the initial touch.
// The recognizer never inspects it; it is only handed to ScrollConflict.
type Target any

// Session is the transient state of one touch sequence.
type Session struct {
	StartX, StartY float64
	LastX, LastY   float64

	// StartTime is the clock reading at touch-start, as a monotonic offset.
	StartTime time.Duration

	// Target is the node under the initial touch. Not owned by the session.
	Target Target

	// Active is true between a touch-start and the matching touch-end.
	Active bool
}

func (s *Session) begin(p Point, target Target, t time.Duration) {
	*s = Session{
		StartX:    p.X,
		StartY:    p.Y,
		LastX:     p.X,
		LastY:     p.Y,
		StartTime: t,
		Target:    target,
		Active:    true,
	}
}

func (s *Session) reset() {
	*s = Session{}
}

// Direction is the outcome direction of a gesture.
type Direction uint8

const (
	None  Direction = iota // No swipe
	Left                   // Finger moved right-to-left ("next")
	Right                  // Finger moved left-to-right ("previous")
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Reason explains a TouchEnd decision. For rejected gestures it names the
// first gate that failed.
type Reason uint8

const (
	ReasonNoSession Reason = iota
	ReasonSwipe
	ReasonNotHorizontal
	ReasonTooShort
	ReasonTooLong
	ReasonTooSlow
	ReasonScrollConflict
)

// String returns the reason as a short snake_case label.
func (r Reason) String() string {
	switch r {
	case ReasonNoSession:
		return "no_session"
	case ReasonSwipe:
		return "swipe"
	case ReasonNotHorizontal:
		return "not_horizontal"
	case ReasonTooShort:
		return "too_short"
	case ReasonTooLong:
		return "too_long"
	case ReasonTooSlow:
		return "too_slow"
	case ReasonScrollConflict:
		return "scroll_conflict"
	default:
		return "unknown"
	}
}

// Signal is returned from TouchMove.
type Signal struct {
	// PreventDefault asks the host to cancel native scrolling for this gesture.
	PreventDefault bool
}

// Decision holds the measurements TouchEnd based its verdict on.
type Decision struct {
	XDiff   float64
	YDiff   float64
	Elapsed time.Duration

	// Speed is |XDiff| per millisecond. It is +Inf when Elapsed is zero and
	// negative when the gesture ended before it started.
	Speed float64

	Reason Reason
}

// Result is returned from TouchEnd.
type Result struct {
	Direction Direction

	// PreventDefault asks the host to cancel the end event's default action.
	// Only set when a swipe fired and PreventDefaultOnSwipe is enabled.
	PreventDefault bool

	Decision
}

// Fired reports whether the gesture was classified as a swipe.
func (r Result) Fired() bool {
	return r.Direction != None
}

// speed returns |dx| per millisecond over elapsed.
// A negative elapsed yields a negative speed.
func speed(dx float64, elapsed time.Duration) float64 {
	if elapsed == 0 {
		return math.Inf(1)
	}
	ms := float64(elapsed) / float64(time.Millisecond)
	return math.Abs(dx) / ms
}
