package protocol

import (
	"errors"
	"math"
)

// EventType identifies the type of client event.
type EventType uint8

const (
	// Touch events (0x40-0x43)
	EventTouchStart  EventType = 0x40
	EventTouchMove   EventType = 0x41
	EventTouchEnd    EventType = 0x42
	EventTouchCancel EventType = 0x43

	// Page lifecycle events (0x60-0x62)
	EventVisibilityChange EventType = 0x60
	EventPageHide         EventType = 0x61
	EventPageShow         EventType = 0x62
)

// String returns the event type name.
func (et EventType) String() string {
	switch et {
	case EventTouchStart:
		return "TouchStart"
	case EventTouchMove:
		return "TouchMove"
	case EventTouchEnd:
		return "TouchEnd"
	case EventTouchCancel:
		return "TouchCancel"
	case EventVisibilityChange:
		return "VisibilityChange"
	case EventPageHide:
		return "PageHide"
	case EventPageShow:
		return "PageShow"
	default:
		return "Unknown"
	}
}

// IsTouch reports whether et is one of the touch events.
func (et EventType) IsTouch() bool {
	return et >= EventTouchStart && et <= EventTouchCancel
}

// Decoding limits for touch payloads.
const (
	// MaxTouchPoints bounds each touch list. Hardware rarely reports more
	// than ten contacts.
	MaxTouchPoints = 10

	// MaxScrollChain bounds the number of ancestors sent with a TouchStart.
	MaxScrollChain = 8
)

// Event errors.
var (
	ErrInvalidEventType    = errors.New("protocol: invalid event type")
	ErrNonFiniteCoordinate = errors.New("protocol: non-finite touch coordinate")
)

// TouchPoint is one contact in client coordinates.
type TouchPoint struct {
	ID int
	X  float64
	Y  float64
}

// ScrollNode is the scroll state of one ancestor of the touch target,
// measured by the client at touch-start.
type ScrollNode struct {
	ScrollTop    int
	ScrollHeight int
	ClientHeight int
	OverflowY    string
	Momentum     bool // -webkit-overflow-scrolling: touch
}

// TouchEventData is the payload of touch events.
type TouchEventData struct {
	Touches        []TouchPoint // All active contacts
	ChangedTouches []TouchPoint // Contacts that changed in this event

	// ScrollChain lists the target and its ancestors, target first.
	// Only sent with TouchStart.
	ScrollChain []ScrollNode
}

// VisibilityEventData is the payload of lifecycle events.
type VisibilityEventData struct {
	Hidden bool
}

// Event is a decoded client event.
//
//	[Seq: varint][Type: byte][Target: string][Timestamp: varint µs][Payload]
type Event struct {
	Seq  uint64
	Type EventType

	// Target names the surface the listener is attached to.
	Target string

	// Timestamp is the client's monotonic event time in microseconds.
	Timestamp uint64

	Payload any // *TouchEventData or *VisibilityEventData
}

// Touch returns the touch payload, or an empty one.
func (e *Event) Touch() *TouchEventData {
	if data, ok := e.Payload.(*TouchEventData); ok && data != nil {
		return data
	}
	return &TouchEventData{}
}

// EncodeEvent encodes an event to bytes.
func EncodeEvent(e *Event) []byte {
	enc := NewEncoder()
	EncodeEventTo(enc, e)
	return enc.Bytes()
}

// EncodeEventTo encodes an event using the provided encoder.
func EncodeEventTo(enc *Encoder, e *Event) {
	enc.WriteUvarint(e.Seq)
	enc.WriteByte(byte(e.Type))
	enc.WriteString(e.Target)
	enc.WriteUvarint(e.Timestamp)

	switch e.Type {
	case EventTouchStart, EventTouchMove, EventTouchEnd, EventTouchCancel:
		data := e.Touch()
		encodeTouchPoints(enc, data.Touches)
		encodeTouchPoints(enc, data.ChangedTouches)
		if e.Type == EventTouchStart {
			enc.WriteUvarint(uint64(len(data.ScrollChain)))
			for _, n := range data.ScrollChain {
				enc.WriteSvarint(int64(n.ScrollTop))
				enc.WriteSvarint(int64(n.ScrollHeight))
				enc.WriteSvarint(int64(n.ClientHeight))
				enc.WriteString(n.OverflowY)
				enc.WriteBool(n.Momentum)
			}
		}

	case EventVisibilityChange, EventPageHide, EventPageShow:
		data, ok := e.Payload.(*VisibilityEventData)
		enc.WriteBool(ok && data != nil && data.Hidden)
	}
}

func encodeTouchPoints(enc *Encoder, points []TouchPoint) {
	enc.WriteUvarint(uint64(len(points)))
	for _, p := range points {
		enc.WriteSvarint(int64(p.ID))
		enc.WriteFloat64(p.X)
		enc.WriteFloat64(p.Y)
	}
}

// DecodeEvent decodes an event from bytes.
func DecodeEvent(data []byte) (*Event, error) {
	return DecodeEventFrom(NewDecoder(data))
}

// DecodeEventFrom decodes an event from a decoder.
func DecodeEventFrom(d *Decoder) (*Event, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	typ, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	target, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	ts, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	e := &Event{
		Seq:       seq,
		Type:      EventType(typ),
		Target:    target,
		Timestamp: ts,
	}

	switch e.Type {
	case EventTouchStart, EventTouchMove, EventTouchEnd, EventTouchCancel:
		data := &TouchEventData{}
		if data.Touches, err = decodeTouchPoints(d); err != nil {
			return nil, err
		}
		if data.ChangedTouches, err = decodeTouchPoints(d); err != nil {
			return nil, err
		}
		if e.Type == EventTouchStart {
			if data.ScrollChain, err = decodeScrollChain(d); err != nil {
				return nil, err
			}
		}
		e.Payload = data

	case EventVisibilityChange, EventPageHide, EventPageShow:
		hidden, err := d.ReadBool()
		if err != nil {
			return nil, err
		}
		e.Payload = &VisibilityEventData{Hidden: hidden}

	default:
		return nil, ErrInvalidEventType
	}

	return e, nil
}

func decodeTouchPoints(d *Decoder) ([]TouchPoint, error) {
	n, err := d.ReadCount(MaxTouchPoints)
	if err != nil {
		return nil, err
	}
	points := make([]TouchPoint, n)
	for i := range points {
		id, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		x, err := d.ReadFloat64()
		if err != nil {
			return nil, err
		}
		y, err := d.ReadFloat64()
		if err != nil {
			return nil, err
		}
		if !finite(x) || !finite(y) {
			return nil, ErrNonFiniteCoordinate
		}
		points[i] = TouchPoint{ID: int(id), X: x, Y: y}
	}
	return points, nil
}

func decodeScrollChain(d *Decoder) ([]ScrollNode, error) {
	n, err := d.ReadCount(MaxScrollChain)
	if err != nil {
		return nil, err
	}
	chain := make([]ScrollNode, n)
	for i := range chain {
		top, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		height, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		client, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		overflow, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		momentum, err := d.ReadBool()
		if err != nil {
			return nil, err
		}
		chain[i] = ScrollNode{
			ScrollTop:    int(top),
			ScrollHeight: int(height),
			ClientHeight: int(client),
			OverflowY:    overflow,
			Momentum:     momentum,
		}
	}
	return chain, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
