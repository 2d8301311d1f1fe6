package lifecycle

import (
	"log/slog"
	"sync"
)

// WatchVisibility calls onHidden when the page is hidden and onVisible when
// it becomes visible again. It listens for visibilitychange on doc and for
// pagehide/pageshow on win. The returned cleanup removes all three listeners;
// calling it more than once is harmless. Nil callbacks are ignored.
func WatchVisibility(doc, win *EventTarget, onVisible, onHidden func()) (cleanup func()) {
	visible := func() {
		if onVisible != nil {
			onVisible()
		}
	}
	hidden := func() {
		if onHidden != nil {
			onHidden()
		}
	}

	changeID := doc.AddListener(EventVisibilityChange, func(ev Event) {
		if ev.Hidden {
			hidden()
		} else {
			visible()
		}
	})
	hideID := win.AddListener(EventPageHide, func(Event) { hidden() })
	showID := win.AddListener(EventPageShow, func(Event) { visible() })

	var once sync.Once
	return func() {
		once.Do(func() {
			doc.RemoveListener(EventVisibilityChange, changeID)
			win.RemoveListener(EventPageHide, hideID)
			win.RemoveListener(EventPageShow, showID)
		})
	}
}

// Saver persists game state. Save(true) forces a write even when the
// regular autosave interval has not elapsed.
type Saver interface {
	Save(force bool) error
}

// Repainter refreshes the UI.
type Repainter interface {
	Update()
}

// Bind forces a save whenever the page is hidden and repaints whenever it
// becomes visible. Either collaborator may be nil. The returned cleanup
// detaches the listeners.
func Bind(doc, win *EventTarget, saver Saver, repainter Repainter, logger *slog.Logger) (cleanup func()) {
	if logger == nil {
		logger = slog.Default().With("component", "lifecycle")
	}

	onHidden := func() {
		if saver == nil {
			return
		}
		if err := saver.Save(true); err != nil {
			logger.Error("forced save failed", "error", err)
			return
		}
		logger.Debug("state saved on hide")
	}
	onVisible := func() {
		if repainter != nil {
			repainter.Update()
		}
	}

	return WatchVisibility(doc, win, onVisible, onHidden)
}
