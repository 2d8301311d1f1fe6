package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/vango-dev/gesture/pkg/gesture"
)

// Recorder accumulates the samples of the gesture in progress. It mirrors the
// recognizer's session: a start discards any unfinished gesture, and samples
// arriving with no gesture in progress are ignored.
//
// A Recorder is not safe for concurrent use; it belongs to the goroutine that
// feeds the recognizer.
type Recorder struct {
	sessionID  string
	surface    string
	thresholds Thresholds

	cur   *Trace
	start time.Duration
}

// NewRecorder creates a recorder for one session.
func NewRecorder(sessionID, surface string, cfg gesture.Config) *Recorder {
	return &Recorder{
		sessionID:  sessionID,
		surface:    surface,
		thresholds: ThresholdsFrom(cfg),
	}
}

// Active reports whether a gesture is being recorded.
func (r *Recorder) Active() bool {
	return r.cur != nil
}

// Start begins a new trace at time t.
func (r *Recorder) Start(t time.Duration, p gesture.Point, chain gesture.Chain) {
	r.start = t
	r.cur = &Trace{
		ID:         uuid.NewString(),
		SessionID:  r.sessionID,
		Surface:    r.surface,
		RecordedAt: time.Now().UTC(),
		Thresholds: r.thresholds,
	}
	r.add(KindStart, t, []gesture.Point{p}, chain)
}

// Move records a touch-move with every active contact.
func (r *Recorder) Move(t time.Duration, points []gesture.Point) {
	r.add(KindMove, t, points, nil)
}

// End records the final contact position. Call Finish afterwards.
func (r *Recorder) End(t time.Duration, p gesture.Point) {
	r.add(KindEnd, t, []gesture.Point{p}, nil)
}

// Cancel records a touch-cancel and returns the abandoned trace with an
// empty verdict, or nil when nothing was being recorded.
func (r *Recorder) Cancel(t time.Duration) *Trace {
	if r.cur == nil {
		return nil
	}
	r.add(KindCancel, t, nil, nil)
	tr := r.cur
	tr.Outcome = OutcomeFrom(gesture.Result{})
	r.cur = nil
	return tr
}

// Finish attaches the recognizer's verdict and returns the completed trace.
// It returns nil when nothing was being recorded.
func (r *Recorder) Finish(res gesture.Result) *Trace {
	if r.cur == nil {
		return nil
	}
	tr := r.cur
	tr.Outcome = OutcomeFrom(res)
	r.cur = nil
	return tr
}

func (r *Recorder) add(kind SampleKind, t time.Duration, points []gesture.Point, chain gesture.Chain) {
	if r.cur == nil {
		return
	}
	s := Sample{
		Kind: kind,
		T:    float64(t-r.start) / float64(time.Millisecond),
	}
	for _, p := range points {
		s.Points = append(s.Points, Point{X: p.X, Y: p.Y})
	}
	for _, m := range chain {
		s.ScrollChain = append(s.ScrollChain, ScrollNode{
			ScrollTop:    m.ScrollTop,
			ScrollHeight: m.ScrollHeight,
			ClientHeight: m.ClientHeight,
			OverflowY:    m.OverflowY,
			Momentum:     m.Momentum,
		})
	}
	r.cur.Samples = append(r.cur.Samples, s)
}
