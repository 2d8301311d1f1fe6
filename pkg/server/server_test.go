package server

import (
	"context"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vango-dev/gesture/pkg/gesture"
	"github.com/vango-dev/gesture/pkg/protocol"
	"github.com/vango-dev/gesture/pkg/record"
)

func startServer(t *testing.T, config *ServerConfig, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(config, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Sessions().CloseAll(ctx)
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	seq  uint64
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%q) failed: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

// connect dials and completes the handshake.
func connect(t *testing.T, url string) (*testClient, *protocol.ServerHello) {
	t.Helper()
	c := dial(t, url)
	c.hello(&protocol.ClientHello{Version: protocol.CurrentVersion, Surface: "tabs", ViewportW: 390, ViewportH: 844})
	sh := c.serverHello()
	if sh.Status != protocol.HandshakeOK {
		t.Fatalf("handshake status = %v, want OK", sh.Status)
	}
	return c, sh
}

func (c *testClient) write(ft protocol.FrameType, payload []byte) {
	c.t.Helper()
	frame := protocol.NewFrame(ft, payload)
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		c.t.Fatalf("write %v failed: %v", ft, err)
	}
}

func (c *testClient) hello(ch *protocol.ClientHello) {
	c.t.Helper()
	c.write(protocol.FrameHandshake, protocol.EncodeClientHello(ch))
}

func (c *testClient) read() *protocol.Frame {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		c.t.Fatalf("read failed: %v", err)
	}
	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		c.t.Fatalf("DecodeFrame failed: %v", err)
	}
	return frame
}

func (c *testClient) serverHello() *protocol.ServerHello {
	c.t.Helper()
	frame := c.read()
	if frame.Type != protocol.FrameHandshake {
		c.t.Fatalf("frame type = %v, want Handshake", frame.Type)
	}
	sh, err := protocol.DecodeServerHello(frame.Payload)
	if err != nil {
		c.t.Fatalf("DecodeServerHello failed: %v", err)
	}
	return sh
}

// event sends a client event with a timestamp in milliseconds and returns
// its sequence number.
func (c *testClient) event(et protocol.EventType, atMs int, payload any) uint64 {
	c.t.Helper()
	c.seq++
	e := &protocol.Event{
		Seq:       c.seq,
		Type:      et,
		Target:    "tabs",
		Timestamp: uint64(atMs) * 1000,
		Payload:   payload,
	}
	c.write(protocol.FrameEvent, protocol.EncodeEvent(e))
	return c.seq
}

func (c *testClient) touchStart(atMs int, x, y float64, chain ...protocol.ScrollNode) uint64 {
	pt := []protocol.TouchPoint{{X: x, Y: y}}
	return c.event(protocol.EventTouchStart, atMs, &protocol.TouchEventData{
		Touches:        pt,
		ChangedTouches: pt,
		ScrollChain:    chain,
	})
}

func (c *testClient) touchMove(atMs int, x, y float64) uint64 {
	pt := []protocol.TouchPoint{{X: x, Y: y}}
	return c.event(protocol.EventTouchMove, atMs, &protocol.TouchEventData{Touches: pt, ChangedTouches: pt})
}

func (c *testClient) touchEnd(atMs int, x, y float64) uint64 {
	return c.event(protocol.EventTouchEnd, atMs, &protocol.TouchEventData{
		ChangedTouches: []protocol.TouchPoint{{X: x, Y: y}},
	})
}

// sync pings the server and returns every frame received before the pong.
// The read loop handles frames in order, so everything sent earlier has been
// applied once sync returns.
func (c *testClient) sync() []*protocol.Frame {
	c.t.Helper()
	c.write(protocol.FrameControl, protocol.EncodeControl(protocol.NewPing(42)))

	var frames []*protocol.Frame
	for {
		frame := c.read()
		if frame.Type == protocol.FrameControl {
			ct, data, err := protocol.DecodeControl(frame.Payload)
			if err != nil {
				c.t.Fatalf("DecodeControl failed: %v", err)
			}
			if ct == protocol.ControlPong {
				if pp := data.(*protocol.PingPong); pp.Timestamp != 42 {
					c.t.Fatalf("pong timestamp = %d, want 42", pp.Timestamp)
				}
				return frames
			}
			if ct == protocol.ControlPing {
				continue
			}
		}
		frames = append(frames, frame)
	}
}

func gestures(t *testing.T, frames []*protocol.Frame) []*protocol.Gesture {
	t.Helper()
	var out []*protocol.Gesture
	for _, f := range frames {
		if f.Type != protocol.FrameGesture {
			continue
		}
		g, err := protocol.DecodeGesture(f.Payload)
		if err != nil {
			t.Fatalf("DecodeGesture failed: %v", err)
		}
		out = append(out, g)
	}
	return out
}

func TestServer_Handshake(t *testing.T) {
	config := DefaultServerConfig()
	config.SessionConfig.Gesture.MinSwipeDistance = 80
	config.SessionConfig.Gesture.MaxSwipeTime = -1
	s, url := startServer(t, config)

	_, sh := connect(t, url)

	if sh.SessionID == "" {
		t.Fatal("SessionID is empty")
	}
	if sh.ServerTime == 0 {
		t.Error("ServerTime is zero")
	}
	if sh.MinSwipeDistance != 80 {
		t.Errorf("MinSwipeDistance = %v, want 80", sh.MinSwipeDistance)
	}
	if sh.MaxSwipeTimeMs != -1 {
		t.Errorf("MaxSwipeTimeMs = %d, want -1", sh.MaxSwipeTimeMs)
	}
	if sh.MinSwipeSpeed != gesture.DefaultMinSwipeSpeed {
		t.Errorf("MinSwipeSpeed = %v, want %v", sh.MinSwipeSpeed, gesture.DefaultMinSwipeSpeed)
	}

	session := s.Sessions().Get(sh.SessionID)
	if session == nil {
		t.Fatal("session not registered")
	}
	if session.Surface != "tabs" {
		t.Errorf("Surface = %q, want tabs", session.Surface)
	}
}

func TestServer_HandshakeRejected(t *testing.T) {
	tests := []struct {
		name string
		send func(c *testClient)
		want protocol.HandshakeStatus
	}{
		{
			name: "event before hello",
			send: func(c *testClient) { c.touchStart(0, 10, 10) },
			want: protocol.HandshakeInvalidFormat,
		},
		{
			name: "truncated hello",
			send: func(c *testClient) { c.write(protocol.FrameHandshake, []byte{1}) },
			want: protocol.HandshakeInvalidFormat,
		},
		{
			name: "major version",
			send: func(c *testClient) {
				c.hello(&protocol.ClientHello{Version: protocol.ProtocolVersion{Major: 2}, Surface: "tabs"})
			},
			want: protocol.HandshakeVersionMismatch,
		},
		{
			name: "newer minor version",
			send: func(c *testClient) {
				v := protocol.CurrentVersion
				v.Minor++
				c.hello(&protocol.ClientHello{Version: v, Surface: "tabs"})
			},
			want: protocol.HandshakeVersionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, url := startServer(t, nil)
			c := dial(t, url)
			tt.send(c)

			sh := c.serverHello()
			if sh.Status != tt.want {
				t.Errorf("status = %v, want %v", sh.Status, tt.want)
			}
			if sh.SessionID != "" {
				t.Errorf("SessionID = %q, want empty", sh.SessionID)
			}
			if got := s.Sessions().Count(); got != 0 {
				t.Errorf("Count() = %d, want 0", got)
			}
		})
	}
}

func TestServer_MaxSessions(t *testing.T) {
	config := DefaultServerConfig()
	config.MaxSessions = 1
	s, url := startServer(t, config)

	connect(t, url)

	c := dial(t, url)
	c.hello(&protocol.ClientHello{Version: protocol.CurrentVersion, Surface: "tabs"})
	if sh := c.serverHello(); sh.Status != protocol.HandshakeServerBusy {
		t.Errorf("status = %v, want ServerBusy", sh.Status)
	}
	if got := testutil.ToFloat64(s.metrics.sessionsDenied); got != 1 {
		t.Errorf("sessions_denied_total = %v, want 1", got)
	}
}

func TestServer_SwipeLeft(t *testing.T) {
	var mu sync.Mutex
	var swiped []gesture.Direction
	s, url := startServer(t, nil, WithOnSwipe(func(_ *Session, dir gesture.Direction) {
		mu.Lock()
		swiped = append(swiped, dir)
		mu.Unlock()
	}))
	c, sh := connect(t, url)

	c.touchStart(0, 200, 100)
	c.touchMove(50, 150, 102)
	endSeq := c.touchEnd(100, 100, 104)

	got := gestures(t, c.sync())
	if len(got) != 1 {
		t.Fatalf("got %d gesture messages, want 1", len(got))
	}
	g := got[0]
	if g.Kind != protocol.GestureSwipeLeft {
		t.Errorf("Kind = %v, want SwipeLeft", g.Kind)
	}
	if g.EventSeq != endSeq {
		t.Errorf("EventSeq = %d, want %d", g.EventSeq, endSeq)
	}
	if g.PreventDefault {
		t.Error("PreventDefault = true, want false")
	}

	mu.Lock()
	if len(swiped) != 1 || swiped[0] != gesture.Left {
		t.Errorf("onSwipe calls = %v, want [left]", swiped)
	}
	mu.Unlock()

	if got := s.Sessions().Get(sh.SessionID).Swipes(); got != 1 {
		t.Errorf("Swipes() = %d, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.swipesTotal.WithLabelValues("left")); got != 1 {
		t.Errorf("swipes_total{left} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.eventsTotal.WithLabelValues("TouchEnd")); got != 1 {
		t.Errorf("events_total{TouchEnd} = %v, want 1", got)
	}
}

func TestServer_SwipeRightWithPreventDefault(t *testing.T) {
	config := DefaultServerConfig()
	config.SessionConfig.Gesture.PreventDefaultOnSwipe = true
	_, url := startServer(t, config)
	c, _ := connect(t, url)

	c.touchStart(0, 100, 100)
	moveSeq := c.touchMove(40, 140, 101)
	c.touchMove(60, 160, 140) // mostly vertical from the start: no signal
	c.touchEnd(120, 220, 110)

	got := gestures(t, c.sync())
	if len(got) != 2 {
		t.Fatalf("got %d gesture messages, want 2", len(got))
	}
	if got[0].Kind != protocol.GesturePreventDefault || got[0].EventSeq != moveSeq || !got[0].PreventDefault {
		t.Errorf("first message = %+v, want PreventDefault for event %d", got[0], moveSeq)
	}
	if got[1].Kind != protocol.GestureSwipeRight || !got[1].PreventDefault {
		t.Errorf("second message = %+v, want SwipeRight with PreventDefault", got[1])
	}
	if got[1].Seq <= got[0].Seq {
		t.Errorf("sequence numbers not increasing: %d then %d", got[0].Seq, got[1].Seq)
	}
}

func TestServer_Rejections(t *testing.T) {
	midScroll := protocol.ScrollNode{ScrollTop: 300, ScrollHeight: 2000, ClientHeight: 600, OverflowY: "auto"}
	atTop := protocol.ScrollNode{ScrollTop: 0, ScrollHeight: 2000, ClientHeight: 600, OverflowY: "auto"}

	tests := []struct {
		name     string
		chain    []protocol.ScrollNode
		endX     float64
		endY     float64
		endMs    int
		reason   string
		wantKind protocol.GestureKind
	}{
		{
			name:   "too short",
			endX:   170,
			endY:   100,
			endMs:  50,
			reason: "too_short",
		},
		{
			name:   "too long",
			endX:   0,
			endY:   100,
			endMs:  900,
			reason: "too_long",
		},
		{
			name:   "vertical",
			endX:   150,
			endY:   300,
			endMs:  100,
			reason: "not_horizontal",
		},
		{
			// 60px in 250ms is 0.24 px/ms: fast enough to be a swipe, too slow
			// to override the list being mid-scroll.
			name:   "scroll conflict",
			chain:  []protocol.ScrollNode{{OverflowY: "visible"}, midScroll},
			endX:   140,
			endY:   100,
			endMs:  250,
			reason: "scroll_conflict",
		},
		{
			name:     "list at rest",
			chain:    []protocol.ScrollNode{atTop},
			endX:     140,
			endY:     100,
			endMs:    250,
			wantKind: protocol.GestureSwipeLeft,
		},
		{
			name:     "deliberate swipe over scroll",
			chain:    []protocol.ScrollNode{midScroll},
			endX:     80,
			endY:     100,
			endMs:    100,
			wantKind: protocol.GestureSwipeLeft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, url := startServer(t, nil)
			c, _ := connect(t, url)

			c.touchStart(0, 200, 100, tt.chain...)
			c.touchEnd(tt.endMs, tt.endX, tt.endY)
			got := gestures(t, c.sync())

			if tt.wantKind != 0 {
				if len(got) != 1 || got[0].Kind != tt.wantKind {
					t.Fatalf("gestures = %+v, want one %v", got, tt.wantKind)
				}
				return
			}
			if len(got) != 0 {
				t.Fatalf("gestures = %+v, want none", got)
			}
			if n := testutil.ToFloat64(s.metrics.rejectionsTotal.WithLabelValues(tt.reason)); n != 1 {
				t.Errorf("rejections_total{%s} = %v, want 1", tt.reason, n)
			}
		})
	}
}

func TestServer_TouchCancel(t *testing.T) {
	s, url := startServer(t, nil)
	c, _ := connect(t, url)

	c.touchStart(0, 200, 100)
	c.event(protocol.EventTouchCancel, 50, &protocol.TouchEventData{})
	c.touchEnd(100, 100, 100)

	if got := gestures(t, c.sync()); len(got) != 0 {
		t.Fatalf("gestures = %+v, want none", got)
	}
	if got := testutil.CollectAndCount(s.metrics.rejectionsTotal); got != 0 {
		t.Errorf("rejections_total series = %d, want 0", got)
	}
}

func TestServer_TouchEndWithoutPointResetsSession(t *testing.T) {
	var mu sync.Mutex
	var traces []*record.Trace
	sink := record.SinkFunc(func(_ context.Context, tr *record.Trace) error {
		mu.Lock()
		traces = append(traces, tr)
		mu.Unlock()
		return nil
	})
	_, url := startServer(t, nil, WithSink(sink))
	c, _ := connect(t, url)

	c.touchStart(0, 200, 100)
	c.event(protocol.EventTouchEnd, 50, &protocol.TouchEventData{})
	frames := c.sync()

	var codes []protocol.ErrorCode
	for _, f := range frames {
		if f.Type != protocol.FrameError {
			continue
		}
		em, err := protocol.DecodeErrorMessage(f.Payload)
		if err != nil {
			t.Fatalf("DecodeErrorMessage failed: %v", err)
		}
		codes = append(codes, em.Code)
	}
	if len(codes) != 1 || codes[0] != protocol.ErrInvalidEvent {
		t.Fatalf("error codes = %v, want [InvalidEvent]", codes)
	}
	// The abandoned gesture cannot be completed by a later touch end.
	c.touchEnd(100, 100, 100)
	if got := gestures(t, c.sync()); len(got) != 0 {
		t.Fatalf("gestures = %+v, want none", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(traces) != 1 || traces[0].Outcome.Direction != "none" {
		t.Errorf("traces = %+v, want one cancelled trace", traces)
	}
}

func TestServer_NonFiniteCoordinates(t *testing.T) {
	var swipes atomic.Int32
	s, url := startServer(t, nil, WithOnSwipe(func(*Session, gesture.Direction) { swipes.Add(1) }))
	c, _ := connect(t, url)

	c.touchStart(0, 200, 100)
	c.touchEnd(50, math.Inf(-1), 100)
	c.touchEnd(60, math.NaN(), 100)
	frames := c.sync()

	if got := gestures(t, frames); len(got) != 0 {
		t.Fatalf("gestures = %+v, want none", got)
	}
	if n := swipes.Load(); n != 0 {
		t.Errorf("OnSwipe called %d times", n)
	}
	if got := testutil.ToFloat64(s.metrics.decodeErrors); got != 2 {
		t.Errorf("decode_errors_total = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(s.metrics.rejectionsTotal); got != 0 {
		t.Errorf("rejections_total series = %d, want 0", got)
	}
}

func TestServer_InvalidInput(t *testing.T) {
	s, url := startServer(t, nil)
	c, _ := connect(t, url)

	c.write(protocol.FrameEvent, []byte{0x01, 0x7f})
	c.event(protocol.EventTouchStart, 0, &protocol.TouchEventData{})
	c.conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})

	frames := c.sync()
	var codes []protocol.ErrorCode
	for _, f := range frames {
		if f.Type != protocol.FrameError {
			continue
		}
		em, err := protocol.DecodeErrorMessage(f.Payload)
		if err != nil {
			t.Fatalf("DecodeErrorMessage failed: %v", err)
		}
		if em.Fatal {
			t.Errorf("error %v is fatal", em.Code)
		}
		codes = append(codes, em.Code)
	}

	want := []protocol.ErrorCode{protocol.ErrInvalidEvent, protocol.ErrInvalidEvent, protocol.ErrInvalidFrame}
	if len(codes) != len(want) {
		t.Fatalf("error codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("error %d = %v, want %v", i, codes[i], want[i])
		}
	}
	if got := testutil.ToFloat64(s.metrics.decodeErrors); got != 2 {
		t.Errorf("decode_errors_total = %v, want 2", got)
	}
}

type countingSaver struct {
	mu    sync.Mutex
	saves int
	force bool
}

func (s *countingSaver) Save(force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.force = force
	return nil
}

func (s *countingSaver) count() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves, s.force
}

type countingRepainter struct {
	mu      sync.Mutex
	updates int
}

func (r *countingRepainter) Update() {
	r.mu.Lock()
	r.updates++
	r.mu.Unlock()
}

func TestServer_PageLifecycle(t *testing.T) {
	saver := &countingSaver{}
	repainter := &countingRepainter{}
	config := DefaultServerConfig()
	config.SessionConfig.HideDebounce = time.Minute
	s, url := startServer(t, config, WithSaver(saver), WithRepainter(repainter))
	c, sh := connect(t, url)

	c.event(protocol.EventVisibilityChange, 0, &protocol.VisibilityEventData{Hidden: true})
	c.event(protocol.EventPageHide, 1, &protocol.VisibilityEventData{Hidden: true})
	c.sync()

	saves, forced := saver.count()
	if saves != 1 {
		t.Errorf("saves = %d, want 1", saves)
	}
	if !forced {
		t.Error("save was not forced")
	}
	session := s.Sessions().Get(sh.SessionID)
	if !session.Hidden() {
		t.Error("Hidden() = false after hide")
	}

	c.event(protocol.EventVisibilityChange, 5000, &protocol.VisibilityEventData{Hidden: false})
	c.sync()

	repainter.mu.Lock()
	updates := repainter.updates
	repainter.mu.Unlock()
	if updates != 1 {
		t.Errorf("updates = %d, want 1", updates)
	}
	if session.Hidden() {
		t.Error("Hidden() = true after show")
	}
}

func TestServer_RecordsTraces(t *testing.T) {
	var mu sync.Mutex
	var traces []*record.Trace
	sink := record.SinkFunc(func(_ context.Context, tr *record.Trace) error {
		mu.Lock()
		traces = append(traces, tr)
		mu.Unlock()
		return nil
	})
	_, url := startServer(t, nil, WithSink(sink))
	c, sh := connect(t, url)

	c.touchStart(0, 200, 100)
	c.touchMove(50, 150, 100)
	c.touchEnd(100, 100, 100)
	c.touchStart(200, 200, 100)
	c.event(protocol.EventTouchCancel, 250, &protocol.TouchEventData{})
	c.sync()

	mu.Lock()
	defer mu.Unlock()
	if len(traces) != 2 {
		t.Fatalf("got %d traces, want 2", len(traces))
	}

	swipe := traces[0]
	if swipe.SessionID != sh.SessionID || swipe.Surface != "tabs" {
		t.Errorf("trace session/surface = %q/%q", swipe.SessionID, swipe.Surface)
	}
	if len(swipe.Samples) != 3 {
		t.Errorf("swipe samples = %d, want 3", len(swipe.Samples))
	}
	if swipe.Outcome.Direction != "left" {
		t.Errorf("swipe outcome = %+v, want left", swipe.Outcome)
	}

	// Replaying with the recorded thresholds reproduces the verdict.
	res := record.Replay(swipe, swipe.Thresholds.Config())
	if !record.OutcomeFrom(res).Matches(swipe.Outcome) {
		t.Errorf("replay outcome = %+v, recorded %+v", record.OutcomeFrom(res), swipe.Outcome)
	}

	if traces[1].Outcome.Direction != "none" {
		t.Errorf("cancelled outcome = %+v, want none", traces[1].Outcome)
	}
}

func TestServer_TraceSinkFailure(t *testing.T) {
	sink := record.SinkFunc(func(context.Context, *record.Trace) error {
		return record.ErrQueueFull
	})
	s, url := startServer(t, nil, WithSink(sink))
	c, _ := connect(t, url)

	c.touchStart(0, 200, 100)
	c.touchEnd(100, 100, 100)
	got := gestures(t, c.sync())

	if len(got) != 1 {
		t.Fatalf("got %d gestures, want 1", len(got))
	}
	if n := testutil.ToFloat64(s.metrics.tracesDropped); n != 1 {
		t.Errorf("traces_dropped_total = %v, want 1", n)
	}
}

func TestServer_ClientClose(t *testing.T) {
	s, url := startServer(t, nil)
	c, sh := connect(t, url)
	session := s.Sessions().Get(sh.SessionID)

	c.write(protocol.FrameControl, protocol.EncodeControl(protocol.NewClose(protocol.CloseNormal, "bye")))

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session not closed")
	}
	if got := s.Sessions().Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if got := testutil.ToFloat64(s.metrics.sessionsActive); got != 0 {
		t.Errorf("sessions_active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(s.metrics.sessionsTotal); got != 1 {
		t.Errorf("sessions_total = %v, want 1", got)
	}
}

func TestServer_Heartbeat(t *testing.T) {
	config := DefaultServerConfig()
	config.SessionConfig.HeartbeatInterval = 20 * time.Millisecond
	_, url := startServer(t, config)
	c, _ := connect(t, url)

	frame := c.read()
	if frame.Type != protocol.FrameControl {
		t.Fatalf("frame type = %v, want Control", frame.Type)
	}
	ct, _, err := protocol.DecodeControl(frame.Payload)
	if err != nil {
		t.Fatalf("DecodeControl failed: %v", err)
	}
	if ct != protocol.ControlPing {
		t.Errorf("control = %v, want Ping", ct)
	}
}

func TestServer_HTTPEndpoints(t *testing.T) {
	s := New(nil, WithRegistry(prometheus.NewRegistry()))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/metrics", http.StatusOK, "gesture_sessions_active 0"},
		{"/ws", http.StatusBadRequest, ""},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s failed: %v", tt.path, err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body does not contain %q:\n%s", tt.wantBody, body)
			}
		})
	}
}

func TestServer_ServeShutdown(t *testing.T) {
	s := New(nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	c, _ := connect(t, "ws://"+ln.Addr().String()+"/ws")
	cancel()

	frame := c.read()
	ct, data, err := protocol.DecodeControl(frame.Payload)
	if err != nil || ct != protocol.ControlClose {
		t.Fatalf("got control %v (%v), want Close", ct, err)
	}
	if cm := data.(*protocol.CloseMessage); cm.Reason != protocol.CloseServerShutdown {
		t.Errorf("close reason = %v, want ServerShutdown", cm.Reason)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	if got := s.Sessions().Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}
