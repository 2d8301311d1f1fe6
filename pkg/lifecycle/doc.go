// Package lifecycle tracks page visibility for a client surface.
//
// Browsers report visibility through three events: visibilitychange on the
// document, and pagehide/pageshow on the window. WatchVisibility folds them
// into two callbacks, and Bind connects those callbacks to the game's save
// and repaint collaborators.
//
//	doc, win := lifecycle.NewEventTarget(), lifecycle.NewEventTarget()
//	stop := lifecycle.Bind(doc, win, storage, ui, logger)
//	defer stop()
//
//	doc.Dispatch(lifecycle.EventVisibilityChange, lifecycle.Event{Hidden: true})
package lifecycle
