// Package touch provides small helpers for taming noisy touch input:
// a Debouncer that coalesces bursts of calls, and a TapGuard that stops a
// handler from firing twice when a touch is followed by a synthesized click.
package touch
