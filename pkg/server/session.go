package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vango-dev/gesture/pkg/gesture"
	"github.com/vango-dev/gesture/pkg/lifecycle"
	"github.com/vango-dev/gesture/pkg/protocol"
	"github.com/vango-dev/gesture/pkg/record"
	"github.com/vango-dev/gesture/pkg/touch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// sessionDeps are the server-level collaborators every session shares.
type sessionDeps struct {
	metrics   *Metrics
	tracer    trace.Tracer
	sink      record.Sink
	saver     lifecycle.Saver
	repainter lifecycle.Repainter
	onSwipe   func(*Session, gesture.Direction)
}

// Session is one connected touch surface.
type Session struct {
	ID        string
	Surface   string
	CreatedAt time.Time

	conn   *websocket.Conn
	config *SessionConfig
	deps   *sessionDeps

	// Owned by ReadLoop.
	recognizer *gesture.Recognizer
	recorder   *record.Recorder

	// Page lifecycle. The browser's document and window are mirrored here so
	// visibility events reach the same listeners they would in the page.
	document   *lifecycle.EventTarget
	window     *lifecycle.EventTarget
	unbind     func()
	hideSaver  *touch.Debouncer
	lastHidden atomic.Bool

	mu         sync.Mutex // Serializes writes to conn
	sendSeq    atomic.Uint64
	lastActive atomic.Int64
	swipes     atomic.Uint64

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	onClose   func(*Session)

	logger *slog.Logger
}

func newSession(conn *websocket.Conn, surface string, config *SessionConfig, deps *sessionDeps, logger *slog.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		Surface:   surface,
		CreatedAt: time.Now(),
		conn:      conn,
		config:    config,
		deps:      deps,
		document:  lifecycle.NewEventTarget(),
		window:    lifecycle.NewEventTarget(),
		done:      make(chan struct{}),
		logger:    logger.With("session_id", id),
	}
	s.lastActive.Store(time.Now().UnixNano())

	cfg := config.Gesture
	cfg.OnSwipeLeft = func() { s.swiped(gesture.Left) }
	cfg.OnSwipeRight = func() { s.swiped(gesture.Right) }
	if cfg.ScrollConflict == nil {
		cfg.ScrollConflict = gesture.AncestorWalk{}
	}
	s.recognizer = gesture.New(cfg)

	if deps.sink != nil {
		s.recorder = record.NewRecorder(id, surface, s.recognizer.Config())
	}

	s.bindLifecycle()
	return s
}

// bindLifecycle wires visibility events to the configured saver and
// repainter.
func (s *Session) bindLifecycle() {
	var saver lifecycle.Saver
	if s.deps.saver != nil {
		s.hideSaver = touch.NewDebouncer(func() {
			if err := s.deps.saver.Save(true); err != nil {
				s.logger.Error("forced save failed", "error", err)
			}
		}, s.config.HideDebounce, true)
		saver = debouncedSaver{s.hideSaver}
	}
	s.unbind = lifecycle.Bind(s.document, s.window, saver, s.deps.repainter, s.logger)
}

// debouncedSaver runs the wrapped save at most once per debounce window.
type debouncedSaver struct {
	d *touch.Debouncer
}

func (ds debouncedSaver) Save(bool) error {
	ds.d.Call()
	return nil
}

// swiped runs inside TouchEnd, after the verdict.
func (s *Session) swiped(dir gesture.Direction) {
	s.swipes.Add(1)
	if s.deps.onSwipe != nil {
		s.deps.onSwipe(s, dir)
	}
}

// Recognizer returns the session's recognizer. It must only be used from
// the read loop, or before Start.
func (s *Session) Recognizer() *gesture.Recognizer {
	return s.recognizer
}

// Document returns the session's document event target.
func (s *Session) Document() *lifecycle.EventTarget {
	return s.document
}

// Window returns the session's window event target.
func (s *Session) Window() *lifecycle.EventTarget {
	return s.window
}

// Hidden reports the page visibility last reported by the client.
func (s *Session) Hidden() bool {
	return s.lastHidden.Load()
}

// Swipes returns the number of swipes recognized in this session.
func (s *Session) Swipes() uint64 {
	return s.swipes.Load()
}

// LastActive returns the time of the last message from the client.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// UpdateLastActive records client activity.
func (s *Session) UpdateLastActive() {
	s.lastActive.Store(time.Now().UnixNano())
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed once the session is closed and unregistered.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close closes the connection and releases lifecycle listeners. It is safe
// to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()

		if s.unbind != nil {
			s.unbind()
		}
		if s.hideSaver != nil {
			s.hideSaver.Cancel()
		}
		if s.onClose != nil {
			s.onClose(s)
		}
		close(s.done)
	})
}

// touchPoint picks the contact a touch event is about: the first changed
// contact for end events, the first active contact otherwise.
func touchPoint(e *protocol.Event) (gesture.Point, bool) {
	data := e.Touch()
	lists := [][]protocol.TouchPoint{data.Touches, data.ChangedTouches}
	if e.Type == protocol.EventTouchEnd {
		lists[0], lists[1] = lists[1], lists[0]
	}
	for _, l := range lists {
		if len(l) > 0 {
			return gesture.Point{X: l[0].X, Y: l[0].Y}, true
		}
	}
	return gesture.Point{}, false
}

// toChain converts the client's scroll measurements to a recognizer target.
func toChain(nodes []protocol.ScrollNode) gesture.Chain {
	chain := make(gesture.Chain, len(nodes))
	for i, n := range nodes {
		chain[i] = gesture.ScrollMetrics{
			ScrollTop:    float64(n.ScrollTop),
			ScrollHeight: float64(n.ScrollHeight),
			ClientHeight: float64(n.ClientHeight),
			OverflowY:    n.OverflowY,
			Momentum:     n.Momentum,
		}
	}
	return chain
}

// eventTime converts the client's microsecond timestamp.
func eventTime(e *protocol.Event) time.Duration {
	return time.Duration(e.Timestamp) * time.Microsecond
}

// handleEvent applies one client event. It runs on the read loop.
func (s *Session) handleEvent(e *protocol.Event) error {
	s.deps.metrics.event(e.Type.String())
	t := eventTime(e)

	switch e.Type {
	case protocol.EventTouchStart:
		p, ok := touchPoint(e)
		if !ok {
			return ErrNoTouchPoint
		}
		chain := toChain(e.Touch().ScrollChain)
		s.recognizer.TouchStart(p, chain, t)
		if s.recorder != nil {
			s.recorder.Start(t, p, chain)
		}

	case protocol.EventTouchMove:
		touches := e.Touch().Touches
		points := make([]gesture.Point, len(touches))
		for i, tp := range touches {
			points[i] = gesture.Point{X: tp.X, Y: tp.Y}
		}
		if s.recorder != nil {
			s.recorder.Move(t, points)
		}
		if sig := s.recognizer.TouchMove(points, t); sig.PreventDefault {
			return s.sendGesture(protocol.GesturePreventDefault, e.Seq, true)
		}

	case protocol.EventTouchEnd:
		p, ok := touchPoint(e)
		if !ok {
			s.recognizer.TouchCancel()
			if s.recorder != nil {
				s.store(s.recorder.Cancel(t))
			}
			return ErrNoTouchPoint
		}
		return s.evaluate(p, t, e.Seq)

	case protocol.EventTouchCancel:
		s.recognizer.TouchCancel()
		if s.recorder != nil {
			s.store(s.recorder.Cancel(t))
		}

	case protocol.EventVisibilityChange, protocol.EventPageHide, protocol.EventPageShow:
		s.dispatchLifecycle(e)
	}
	return nil
}

// evaluate finishes the gesture and reports the verdict to the client.
func (s *Session) evaluate(p gesture.Point, t time.Duration, eventSeq uint64) error {
	_, span := s.deps.tracer.Start(context.Background(), "gesture.evaluate",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("gesture.surface", s.Surface),
		))
	defer span.End()

	if s.recorder != nil {
		s.recorder.End(t, p)
	}
	res := s.recognizer.TouchEnd(p, t)

	span.SetAttributes(
		attribute.Float64("gesture.x_diff", res.XDiff),
		attribute.Float64("gesture.y_diff", res.YDiff),
		attribute.Float64("gesture.speed", res.Speed),
		attribute.Int64("gesture.elapsed_ms", res.Elapsed.Milliseconds()),
		attribute.String("gesture.reason", res.Reason.String()),
		attribute.String("gesture.direction", res.Direction.String()),
	)
	span.SetStatus(codes.Ok, "")

	if s.recorder != nil {
		s.store(s.recorder.Finish(res))
	}

	if !res.Fired() {
		if res.Reason != gesture.ReasonNoSession {
			s.deps.metrics.rejection(res.Reason.String())
		}
		return nil
	}

	s.deps.metrics.swipe(res.Direction.String(), res.Elapsed.Seconds())
	kind := protocol.GestureSwipeLeft
	if res.Direction == gesture.Right {
		kind = protocol.GestureSwipeRight
	}
	return s.sendGesture(kind, eventSeq, res.PreventDefault)
}

// store hands a finished trace to the sink. Sinks that do I/O should be
// wrapped in record.AsyncSink.
func (s *Session) store(tr *record.Trace) {
	if tr == nil || s.deps.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	if err := s.deps.sink.Put(ctx, tr); err != nil {
		s.deps.metrics.traceDropped()
		s.logger.Warn("trace not stored", "trace_id", tr.ID, "error", err)
	}
}

func (s *Session) dispatchLifecycle(e *protocol.Event) {
	var hidden bool
	if data, ok := e.Payload.(*protocol.VisibilityEventData); ok && data != nil {
		hidden = data.Hidden
	}
	s.lastHidden.Store(hidden)

	ev := lifecycle.Event{Hidden: hidden}
	switch e.Type {
	case protocol.EventVisibilityChange:
		s.document.Dispatch(lifecycle.EventVisibilityChange, ev)
	case protocol.EventPageHide:
		s.window.Dispatch(lifecycle.EventPageHide, ev)
	case protocol.EventPageShow:
		s.window.Dispatch(lifecycle.EventPageShow, ev)
	}
	s.logger.Debug("lifecycle event", "type", e.Type, "hidden", hidden)
}
