package gesture

// DefaultScrollDepth is how many ancestors AncestorWalk inspects,
// counting the touch target itself.
const DefaultScrollDepth = 5

// ScrollConflict reports whether a touch that started on target would fight
// with a scroll container the user is in the middle of scrolling.
type ScrollConflict interface {
	Conflicts(target Target) bool
}

// ScrollConflictFunc adapts a function to ScrollConflict.
type ScrollConflictFunc func(target Target) bool

// Conflicts calls f(target).
func (f ScrollConflictFunc) Conflicts(target Target) bool {
	return f(target)
}

// ScrollMetrics is a snapshot of one node's vertical scroll state.
type ScrollMetrics struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64

	// OverflowY is the computed overflow-y style ("auto", "scroll", "hidden", ...).
	OverflowY string

	// Momentum is set when the node opts into platform momentum scrolling
	// (-webkit-overflow-scrolling: touch).
	Momentum bool
}

// Scrollable reports whether the node can scroll vertically.
func (m ScrollMetrics) Scrollable() bool {
	if m.ScrollHeight <= m.ClientHeight {
		return false
	}
	return m.OverflowY == "auto" || m.OverflowY == "scroll"
}

// MidScroll reports whether the node is scrolled away from both ends.
func (m ScrollMetrics) MidScroll() bool {
	limit := m.ScrollHeight - m.ClientHeight
	return m.ScrollTop > 0 && m.ScrollTop < limit
}

// conflicts applies the per-node rule: a scrollable node conflicts when it
// uses momentum scrolling or is currently mid-scroll. A list resting at its
// top or bottom edge does not block swipes.
func (m ScrollMetrics) conflicts() bool {
	if !m.Scrollable() {
		return false
	}
	return m.Momentum || m.MidScroll()
}

// ScrollNode is a node in the host's UI tree.
type ScrollNode interface {
	ScrollMetrics() ScrollMetrics

	// Parent returns the enclosing node, or nil at the root.
	Parent() ScrollNode
}

// Chain is a ScrollNode backed by a precomputed ancestor list, target first.
// Hosts that cannot walk their tree lazily send a Chain instead.
type Chain []ScrollMetrics

// ScrollMetrics returns the metrics of the first node.
func (c Chain) ScrollMetrics() ScrollMetrics {
	if len(c) == 0 {
		return ScrollMetrics{}
	}
	return c[0]
}

// Parent returns the chain without its first node.
func (c Chain) Parent() ScrollNode {
	if len(c) <= 1 {
		return nil
	}
	return c[1:]
}

// AncestorWalk is the reference ScrollConflict. It accepts targets that
// implement ScrollNode and walks up to MaxDepth nodes, starting at the target.
type AncestorWalk struct {
	// MaxDepth defaults to DefaultScrollDepth when zero.
	MaxDepth int
}

// Conflicts reports whether any node within MaxDepth conflicts.
func (w AncestorWalk) Conflicts(target Target) bool {
	node, ok := target.(ScrollNode)
	if !ok {
		return false
	}
	if c, isChain := node.(Chain); isChain && len(c) == 0 {
		return false
	}

	depth := w.MaxDepth
	if depth <= 0 {
		depth = DefaultScrollDepth
	}

	for i := 0; i < depth && node != nil; i++ {
		if node.ScrollMetrics().conflicts() {
			return true
		}
		node = node.Parent()
	}
	return false
}
