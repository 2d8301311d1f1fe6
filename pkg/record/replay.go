package record

import "github.com/vango-dev/gesture/pkg/gesture"

// Replay feeds a trace through a fresh recognizer built from cfg and returns
// the result of the last end sample. A trace that ends in a cancel, or has no
// end sample, yields a Result with ReasonNoSession.
//
// Use tr.Thresholds.Config() to reproduce the recorded verdict.
func Replay(tr *Trace, cfg gesture.Config) gesture.Result {
	r := gesture.New(cfg)
	res := gesture.Result{}

	for _, s := range tr.Samples {
		switch s.Kind {
		case KindStart:
			if len(s.Points) == 0 {
				continue
			}
			r.TouchStart(toPoint(s.Points[0]), toChain(s.ScrollChain), s.at())
		case KindMove:
			points := make([]gesture.Point, len(s.Points))
			for i, p := range s.Points {
				points[i] = toPoint(p)
			}
			r.TouchMove(points, s.at())
		case KindEnd:
			if len(s.Points) == 0 {
				continue
			}
			res = r.TouchEnd(toPoint(s.Points[0]), s.at())
		case KindCancel:
			r.TouchCancel()
			res = gesture.Result{}
		}
	}
	return res
}

func toPoint(p Point) gesture.Point {
	return gesture.Point{X: p.X, Y: p.Y}
}

func toChain(nodes []ScrollNode) gesture.Chain {
	if len(nodes) == 0 {
		return nil
	}
	chain := make(gesture.Chain, len(nodes))
	for i, n := range nodes {
		chain[i] = gesture.ScrollMetrics{
			ScrollTop:    n.ScrollTop,
			ScrollHeight: n.ScrollHeight,
			ClientHeight: n.ClientHeight,
			OverflowY:    n.OverflowY,
			Momentum:     n.Momentum,
		}
	}
	return chain
}
