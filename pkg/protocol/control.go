package protocol

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing  ControlType = 0x01 // Heartbeat
	ControlPong  ControlType = 0x02 // Heartbeat reply
	ControlClose ControlType = 0x20 // Session close
)

// String returns the control type name.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// CloseReason indicates why a session is being closed.
type CloseReason uint8

const (
	CloseNormal         CloseReason = 0x00
	CloseGoingAway      CloseReason = 0x01
	CloseServerShutdown CloseReason = 0x03
	CloseError          CloseReason = 0x04
)

// String returns the close reason name.
func (cr CloseReason) String() string {
	switch cr {
	case CloseNormal:
		return "Normal"
	case CloseGoingAway:
		return "GoingAway"
	case CloseServerShutdown:
		return "ServerShutdown"
	case CloseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// PingPong is the payload for Ping and Pong.
type PingPong struct {
	Timestamp uint64 // Unix milliseconds
}

// CloseMessage is the payload for Close.
type CloseMessage struct {
	Reason  CloseReason
	Message string
}

// EncodeControl encodes a control message. payload is *PingPong for
// ping/pong and *CloseMessage for close; a nil payload encodes zero values.
func EncodeControl(ct ControlType, payload any) []byte {
	e := NewEncoder()
	e.WriteByte(byte(ct))

	switch ct {
	case ControlPing, ControlPong:
		var ts uint64
		if pp, ok := payload.(*PingPong); ok && pp != nil {
			ts = pp.Timestamp
		}
		e.WriteUint64(ts)

	case ControlClose:
		cm, ok := payload.(*CloseMessage)
		if !ok || cm == nil {
			cm = &CloseMessage{}
		}
		e.WriteByte(byte(cm.Reason))
		e.WriteString(cm.Message)
	}
	return e.Bytes()
}

// DecodeControl decodes a control message, returning its type and payload.
func DecodeControl(data []byte) (ControlType, any, error) {
	d := NewDecoder(data)
	b, err := d.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	ct := ControlType(b)

	switch ct {
	case ControlPing, ControlPong:
		ts, err := d.ReadUint64()
		if err != nil {
			return 0, nil, err
		}
		return ct, &PingPong{Timestamp: ts}, nil

	case ControlClose:
		reason, err := d.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		msg, err := d.ReadString()
		if err != nil {
			return 0, nil, err
		}
		return ct, &CloseMessage{Reason: CloseReason(reason), Message: msg}, nil

	default:
		return ct, nil, nil
	}
}

// NewPing creates a ping at the given Unix millisecond timestamp.
func NewPing(timestamp uint64) (ControlType, *PingPong) {
	return ControlPing, &PingPong{Timestamp: timestamp}
}

// NewPong echoes a ping timestamp.
func NewPong(timestamp uint64) (ControlType, *PingPong) {
	return ControlPong, &PingPong{Timestamp: timestamp}
}

// NewClose creates a close message.
func NewClose(reason CloseReason, message string) (ControlType, *CloseMessage) {
	return ControlClose, &CloseMessage{Reason: reason, Message: message}
}
