package protocol

// GestureKind identifies a recognizer message sent to the client.
type GestureKind uint8

const (
	GesturePreventDefault GestureKind = 0x01 // Cancel native scrolling for the current touch
	GestureSwipeLeft      GestureKind = 0x02 // Swipe toward the next tab
	GestureSwipeRight     GestureKind = 0x03 // Swipe toward the previous tab
)

// String returns the gesture kind name.
func (k GestureKind) String() string {
	switch k {
	case GesturePreventDefault:
		return "PreventDefault"
	case GestureSwipeLeft:
		return "SwipeLeft"
	case GestureSwipeRight:
		return "SwipeRight"
	default:
		return "Unknown"
	}
}

// Gesture is a recognizer result for the client.
//
//	[Seq: varint][Kind: byte][EventSeq: varint][PreventDefault: bool]
type Gesture struct {
	Seq  uint64
	Kind GestureKind

	// EventSeq is the sequence number of the client event that produced
	// this message.
	EventSeq uint64

	// PreventDefault asks the client to cancel the event's default action.
	// Always true for GesturePreventDefault.
	PreventDefault bool
}

// EncodeGesture encodes a gesture message to bytes.
func EncodeGesture(g *Gesture) []byte {
	e := NewEncoder()
	EncodeGestureTo(e, g)
	return e.Bytes()
}

// EncodeGestureTo encodes a gesture message using the provided encoder.
func EncodeGestureTo(e *Encoder, g *Gesture) {
	e.WriteUvarint(g.Seq)
	e.WriteByte(byte(g.Kind))
	e.WriteUvarint(g.EventSeq)
	e.WriteBool(g.PreventDefault)
}

// DecodeGesture decodes a gesture message from bytes.
func DecodeGesture(data []byte) (*Gesture, error) {
	d := NewDecoder(data)

	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	eventSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	prevent, err := d.ReadBool()
	if err != nil {
		return nil, err
	}

	return &Gesture{
		Seq:            seq,
		Kind:           GestureKind(kind),
		EventSeq:       eventSeq,
		PreventDefault: prevent,
	}, nil
}
