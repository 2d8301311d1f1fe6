package record

import (
	"fmt"
	"os"
	"time"

	"github.com/vango-dev/gesture/pkg/gesture"
	"gopkg.in/yaml.v3"
)

// SampleKind names the touch event a Sample was taken from.
type SampleKind string

const (
	KindStart  SampleKind = "start"
	KindMove   SampleKind = "move"
	KindEnd    SampleKind = "end"
	KindCancel SampleKind = "cancel"
)

// Point is a touch position in client pixels.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ScrollNode is the scroll state of one element in the target's ancestor
// chain, target first.
type ScrollNode struct {
	ScrollTop    float64 `yaml:"scroll_top"`
	ScrollHeight float64 `yaml:"scroll_height"`
	ClientHeight float64 `yaml:"client_height"`
	OverflowY    string  `yaml:"overflow_y,omitempty"`
	Momentum     bool    `yaml:"momentum,omitempty"`
}

// Sample is one touch event. T is milliseconds since the gesture started.
type Sample struct {
	Kind        SampleKind   `yaml:"kind"`
	T           float64      `yaml:"t"`
	Points      []Point      `yaml:"points,omitempty"`
	ScrollChain []ScrollNode `yaml:"scroll_chain,omitempty"`
}

// at returns the sample time relative to the gesture start.
func (s Sample) at() time.Duration {
	return time.Duration(s.T * float64(time.Millisecond))
}

// Thresholds are the recognizer settings a trace was recorded under, with
// defaults applied. A zero distance or speed means no minimum.
type Thresholds struct {
	MinSwipeDistance      float64 `yaml:"min_swipe_distance"`
	MaxSwipeTimeMs        int64   `yaml:"max_swipe_time_ms"` // -1 when the time gate is disabled
	MinSwipeSpeed         float64 `yaml:"min_swipe_speed"`
	PreventDefaultOnSwipe bool    `yaml:"prevent_default_on_swipe,omitempty"`

	// ScrollDepth is the ancestor walk depth, -1 when scroll conflicts were
	// not checked. Zero means the default depth.
	ScrollDepth int `yaml:"scroll_depth,omitempty"`
}

// ThresholdsFrom captures the effective thresholds of cfg.
func ThresholdsFrom(cfg gesture.Config) Thresholds {
	cfg = gesture.New(cfg).Config()

	maxTime := cfg.MaxSwipeTime.Milliseconds()
	if cfg.MaxSwipeTime < 0 {
		maxTime = -1
	}
	th := Thresholds{
		MinSwipeDistance:      cfg.MinSwipeDistance,
		MaxSwipeTimeMs:        maxTime,
		MinSwipeSpeed:         cfg.MinSwipeSpeed,
		PreventDefaultOnSwipe: cfg.PreventDefaultOnSwipe,
	}
	switch sc := cfg.ScrollConflict.(type) {
	case nil:
		th.ScrollDepth = -1
	case gesture.AncestorWalk:
		th.ScrollDepth = sc.MaxDepth
		if th.ScrollDepth <= 0 {
			th.ScrollDepth = gesture.DefaultScrollDepth
		}
	}
	return th
}

// Config returns a recognizer config that reproduces these thresholds. Custom
// scroll conflict checks replay as the ancestor walk.
func (t Thresholds) Config() gesture.Config {
	maxTime := time.Duration(t.MaxSwipeTimeMs) * time.Millisecond
	if t.MaxSwipeTimeMs < 0 {
		maxTime = -1
	}
	cfg := gesture.Config{
		MinSwipeDistance:      noMinimum(t.MinSwipeDistance),
		MaxSwipeTime:          maxTime,
		MinSwipeSpeed:         noMinimum(t.MinSwipeSpeed),
		PreventDefaultOnSwipe: t.PreventDefaultOnSwipe,
	}
	if t.ScrollDepth >= 0 {
		cfg.ScrollConflict = gesture.AncestorWalk{MaxDepth: t.ScrollDepth}
	}
	return cfg
}

// noMinimum keeps a recorded zero from turning into the default threshold.
func noMinimum(v float64) float64 {
	if v == 0 {
		return -1
	}
	return v
}

// Outcome is the recognizer's verdict on a trace.
type Outcome struct {
	Direction      string  `yaml:"direction"`
	Reason         string  `yaml:"reason"`
	PreventDefault bool    `yaml:"prevent_default,omitempty"`
	XDiff          float64 `yaml:"x_diff"`
	YDiff          float64 `yaml:"y_diff"`
	ElapsedMs      float64 `yaml:"elapsed_ms"`
	Speed          float64 `yaml:"speed"`
}

// OutcomeFrom converts a recognizer result.
func OutcomeFrom(res gesture.Result) Outcome {
	return Outcome{
		Direction:      res.Direction.String(),
		Reason:         res.Reason.String(),
		PreventDefault: res.PreventDefault,
		XDiff:          res.XDiff,
		YDiff:          res.YDiff,
		ElapsedMs:      float64(res.Elapsed) / float64(time.Millisecond),
		Speed:          res.Speed,
	}
}

// Matches reports whether o and other reach the same verdict.
func (o Outcome) Matches(other Outcome) bool {
	return o.Direction == other.Direction && o.Reason == other.Reason
}

// Trace is one recorded gesture.
type Trace struct {
	ID         string     `yaml:"id"`
	SessionID  string     `yaml:"session_id,omitempty"`
	Surface    string     `yaml:"surface,omitempty"`
	RecordedAt time.Time  `yaml:"recorded_at"`
	Thresholds Thresholds `yaml:"thresholds"`
	Samples    []Sample   `yaml:"samples"`
	Outcome    Outcome    `yaml:"outcome"`
}

// Marshal encodes a trace as YAML.
func Marshal(tr *Trace) ([]byte, error) {
	return yaml.Marshal(tr)
}

// Unmarshal decodes a YAML trace.
func Unmarshal(data []byte) (*Trace, error) {
	var tr Trace
	if err := yaml.Unmarshal(data, &tr); err != nil {
		return nil, fmt.Errorf("record: parse trace: %w", err)
	}
	if len(tr.Samples) == 0 {
		return nil, fmt.Errorf("record: trace %q has no samples", tr.ID)
	}
	return &tr, nil
}

// ReadFile reads a YAML trace from path.
func ReadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tr, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}
