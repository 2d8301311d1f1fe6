package gesture

import (
	"math"
	"time"
)

// Recognizer classifies touch sequences as swipes.
type Recognizer struct {
	cfg     Config
	session Session
}

// New creates a Recognizer. Unset thresholds in cfg take their defaults.
func New(cfg Config) *Recognizer {
	return &Recognizer{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration, defaults applied.
func (r *Recognizer) Config() Config {
	return r.cfg
}

// Session returns a copy of the current session state.
func (r *Recognizer) Session() Session {
	return r.session
}

// TouchStart begins a new session at p. Any stale session is overwritten.
func (r *Recognizer) TouchStart(p Point, target Target, t time.Duration) {
	r.session.begin(p, target, t)
}

// TouchMove tracks the single active contact. Samples with zero or more than
// one contact point leave the session untouched.
func (r *Recognizer) TouchMove(points []Point, t time.Duration) Signal {
	if !r.session.Active || len(points) != 1 {
		return Signal{}
	}

	s := &r.session
	s.LastX, s.LastY = points[0].X, points[0].Y

	xDiff := math.Abs(s.StartX - s.LastX)
	yDiff := math.Abs(s.StartY - s.LastY)

	if r.cfg.PreventDefaultOnSwipe &&
		finite(xDiff) && finite(yDiff) &&
		xDiff > horizontalBias*yDiff &&
		xDiff > r.cfg.MinSwipeDistance/2 {
		return Signal{PreventDefault: true}
	}
	return Signal{}
}

// TouchEnd evaluates the session against the swipe gates, invokes at most one
// callback, and resets the session. A TouchEnd without an active session
// returns a zero Result with ReasonNoSession.
func (r *Recognizer) TouchEnd(p Point, t time.Duration) Result {
	if !r.session.Active {
		return Result{}
	}
	defer r.session.reset()

	res := Result{Decision: r.decide(p, t)}
	if res.Reason != ReasonSwipe {
		return res
	}

	var cb func()
	switch {
	case res.XDiff > 0:
		res.Direction = Left
		cb = r.cfg.OnSwipeLeft
	case res.XDiff < 0:
		res.Direction = Right
		cb = r.cfg.OnSwipeRight
	}
	if res.Direction == None {
		return res
	}

	res.PreventDefault = r.cfg.PreventDefaultOnSwipe
	if cb != nil {
		cb()
	}
	return res
}

// TouchCancel drops the current session without evaluating it.
func (r *Recognizer) TouchCancel() {
	r.session.reset()
}

func (r *Recognizer) decide(p Point, t time.Duration) Decision {
	s := &r.session
	d := Decision{
		XDiff:   s.StartX - p.X,
		YDiff:   s.StartY - p.Y,
		Elapsed: t - s.StartTime,
	}
	d.Speed = speed(d.XDiff, d.Elapsed)

	absX := math.Abs(d.XDiff)
	switch {
	case !finite(d.XDiff) || !finite(d.YDiff):
		d.Reason = ReasonNotHorizontal
	case absX <= math.Abs(d.YDiff):
		d.Reason = ReasonNotHorizontal
	case absX < r.cfg.MinSwipeDistance:
		d.Reason = ReasonTooShort
	case r.cfg.MaxSwipeTime > 0 && d.Elapsed > r.cfg.MaxSwipeTime:
		d.Reason = ReasonTooLong
	case d.Elapsed < 0 || d.Speed < r.cfg.MinSwipeSpeed:
		d.Reason = ReasonTooSlow
	case !r.deliberate(d.Speed) && r.conflicts(s.Target):
		d.Reason = ReasonScrollConflict
	default:
		d.Reason = ReasonSwipe
	}
	return d
}

func (r *Recognizer) deliberate(speed float64) bool {
	return speed > r.cfg.MinSwipeSpeed*deliberateFactor
}

func (r *Recognizer) conflicts(target Target) bool {
	if r.cfg.ScrollConflict == nil || target == nil {
		return false
	}
	return r.cfg.ScrollConflict.Conflicts(target)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
