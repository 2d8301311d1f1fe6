// Package gesture implements swipe recognition over raw touch samples.
//
// A Recognizer consumes the three touch phases of one gesture (start, zero or
// more moves, end) and decides whether the gesture was an intentional
// horizontal swipe. It fires at most one directional callback per gesture.
//
// # Gates
//
// A swipe fires only when every gate passes, evaluated in this order:
//
//  1. The gesture is horizontal: |xDiff| > |yDiff|
//  2. The distance is long enough: |xDiff| >= MinSwipeDistance
//  3. The gesture was quick: elapsed <= MaxSwipeTime
//  4. The gesture was fast: |xDiff|/elapsed >= MinSwipeSpeed (px/ms)
//  5. The touch did not start in a container that is mid-scroll, unless the
//     swipe was deliberate (speed > 1.5 * MinSwipeSpeed)
//
// xDiff is start minus end, so a finger moving right-to-left produces a
// positive xDiff and fires OnSwipeLeft ("next"); the opposite fires
// OnSwipeRight ("previous").
//
// # Usage
//
//	r := gesture.New(gesture.Config{
//	    OnSwipeLeft:  tabs.Next,
//	    OnSwipeRight: tabs.Prev,
//	    ScrollConflict: gesture.AncestorWalk{},
//	})
//
//	r.TouchStart(p, target, t0)
//	if sig := r.TouchMove(points, t1); sig.PreventDefault {
//	    // cancel native scrolling
//	}
//	res := r.TouchEnd(p, t2)
//
// # Threading
//
// A Recognizer is not safe for concurrent use. It is meant to be owned by the
// single goroutine that delivers touch events for one surface.
package gesture
