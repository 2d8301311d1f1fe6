package touch

// Kind is the kind of input event seen by a TapGuard.
type Kind uint8

const (
	KindTouchStart Kind = iota
	KindTouchEnd
	KindClick
)

// String returns the DOM event name for the kind.
func (k Kind) String() string {
	switch k {
	case KindTouchStart:
		return "touchstart"
	case KindTouchEnd:
		return "touchend"
	case KindClick:
		return "click"
	default:
		return "unknown"
	}
}

// TapGuard runs a handler once per touch sequence. A touch-start runs the
// handler and asks the host to prevent the default action (which suppresses
// the browser's synthesized click). Clicks from non-touch input still run
// the handler. Not safe for concurrent use.
type TapGuard struct {
	handler func()
	handled bool
}

// NewTapGuard wraps handler.
func NewTapGuard(handler func()) *TapGuard {
	return &TapGuard{handler: handler}
}

// Handle processes one event and reports whether the host should prevent
// the event's default action.
func (g *TapGuard) Handle(kind Kind) (preventDefault bool) {
	switch kind {
	case KindTouchStart:
		if !g.handled {
			g.handled = true
			g.run()
		}
		return true

	case KindTouchEnd:
		g.handled = false

	case KindClick:
		if !g.handled {
			g.run()
		}
	}
	return false
}

// Handled reports whether the current touch sequence already ran the handler.
func (g *TapGuard) Handled() bool {
	return g.handled
}

func (g *TapGuard) run() {
	if g.handler != nil {
		g.handler()
	}
}
