package protocol

// HandshakeStatus represents the result of a handshake.
type HandshakeStatus uint8

const (
	HandshakeOK              HandshakeStatus = 0x00
	HandshakeVersionMismatch HandshakeStatus = 0x01
	HandshakeServerBusy      HandshakeStatus = 0x04
	HandshakeInvalidFormat   HandshakeStatus = 0x06 // Malformed handshake message
	HandshakeInternalError   HandshakeStatus = 0x08
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case HandshakeOK:
		return "OK"
	case HandshakeVersionMismatch:
		return "VersionMismatch"
	case HandshakeServerBusy:
		return "ServerBusy"
	case HandshakeInvalidFormat:
		return "InvalidFormat"
	case HandshakeInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// ProtocolVersion represents a protocol version as major.minor.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the current protocol version.
var CurrentVersion = ProtocolVersion{Major: 1, Minor: 0}

// Compatible reports whether a client speaking v can talk to this server.
// Minor versions are backwards compatible.
func (v ProtocolVersion) Compatible(server ProtocolVersion) bool {
	return v.Major == server.Major && v.Minor <= server.Minor
}

// ClientHello is the first frame a touch surface sends after connecting.
type ClientHello struct {
	Version   ProtocolVersion
	Surface   string // Name of the swipeable element, e.g. "tabs"
	ViewportW uint16
	ViewportH uint16
}

// ServerHello answers ClientHello. On HandshakeOK it carries the thresholds
// the server will apply, so the client can mirror them in debug overlays.
type ServerHello struct {
	Status     HandshakeStatus
	SessionID  string
	ServerTime uint64 // Unix milliseconds

	MinSwipeDistance float64 // px
	MaxSwipeTimeMs   int64   // Negative when the time gate is disabled
	MinSwipeSpeed    float64 // px/ms
}

// EncodeClientHello encodes a ClientHello to bytes.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	e.WriteByte(ch.Version.Major)
	e.WriteByte(ch.Version.Minor)
	e.WriteString(ch.Surface)
	e.WriteUint16(ch.ViewportW)
	e.WriteUint16(ch.ViewportH)
	return e.Bytes()
}

// DecodeClientHello decodes a ClientHello from bytes.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	d := NewDecoder(data)
	ch := &ClientHello{}

	major, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	minor, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ch.Version = ProtocolVersion{Major: major, Minor: minor}

	if ch.Surface, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ch.ViewportW, err = d.ReadUint16(); err != nil {
		return nil, err
	}
	if ch.ViewportH, err = d.ReadUint16(); err != nil {
		return nil, err
	}
	return ch, nil
}

// EncodeServerHello encodes a ServerHello to bytes.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.SessionID)
	e.WriteUint64(sh.ServerTime)
	e.WriteFloat64(sh.MinSwipeDistance)
	e.WriteSvarint(sh.MaxSwipeTimeMs)
	e.WriteFloat64(sh.MinSwipeSpeed)
	return e.Bytes()
}

// DecodeServerHello decodes a ServerHello from bytes.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	d := NewDecoder(data)
	sh := &ServerHello{}

	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sh.Status = HandshakeStatus(status)

	if sh.SessionID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if sh.ServerTime, err = d.ReadUint64(); err != nil {
		return nil, err
	}
	if sh.MinSwipeDistance, err = d.ReadFloat64(); err != nil {
		return nil, err
	}
	if sh.MaxSwipeTimeMs, err = d.ReadSvarint(); err != nil {
		return nil, err
	}
	if sh.MinSwipeSpeed, err = d.ReadFloat64(); err != nil {
		return nil, err
	}
	return sh, nil
}

// NewServerHelloError creates a ServerHello that rejects the connection.
func NewServerHelloError(status HandshakeStatus) *ServerHello {
	return &ServerHello{Status: status}
}
