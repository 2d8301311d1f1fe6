package protocol

import (
	"reflect"
	"testing"
)

func TestGesture_RoundTrip(t *testing.T) {
	tests := []*Gesture{
		{Seq: 1, Kind: GesturePreventDefault, EventSeq: 4, PreventDefault: true},
		{Seq: 2, Kind: GestureSwipeLeft, EventSeq: 5, PreventDefault: true},
		{Seq: 3, Kind: GestureSwipeRight, EventSeq: 9},
	}
	for _, want := range tests {
		t.Run(want.Kind.String(), func(t *testing.T) {
			got, err := DecodeGesture(EncodeGesture(want))
			if err != nil {
				t.Fatalf("DecodeGesture() error = %v", err)
			}
			if *got != *want {
				t.Errorf("DecodeGesture() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestControl_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		ct      ControlType
		payload any
	}{
		{"ping", ControlPing, &PingPong{Timestamp: 1_700_000_000_000}},
		{"pong", ControlPong, &PingPong{Timestamp: 5}},
		{"close", ControlClose, &CloseMessage{Reason: CloseServerShutdown, Message: "bye"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, payload, err := DecodeControl(EncodeControl(tt.ct, tt.payload))
			if err != nil {
				t.Fatalf("DecodeControl() error = %v", err)
			}
			if ct != tt.ct {
				t.Errorf("type = %v, want %v", ct, tt.ct)
			}
			if !reflect.DeepEqual(payload, tt.payload) {
				t.Errorf("payload = %+v, want %+v", payload, tt.payload)
			}
		})
	}
}

func TestControl_NilPayload(t *testing.T) {
	_, payload, err := DecodeControl(EncodeControl(ControlClose, nil))
	if err != nil {
		t.Fatalf("DecodeControl() error = %v", err)
	}
	cm := payload.(*CloseMessage)
	if cm.Reason != CloseNormal || cm.Message != "" {
		t.Errorf("CloseMessage = %+v, want zero value", cm)
	}
}

func TestErrorMessage_RoundTrip(t *testing.T) {
	tests := []*ErrorMessage{
		NewError(ErrInvalidEvent, "bad touch list"),
		NewFatalError(ErrSessionLimit, "server full"),
	}
	for _, want := range tests {
		t.Run(want.Code.String(), func(t *testing.T) {
			got, err := DecodeErrorMessage(EncodeErrorMessage(want))
			if err != nil {
				t.Fatalf("DecodeErrorMessage() error = %v", err)
			}
			if *got != *want {
				t.Errorf("DecodeErrorMessage() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestHandshake_RoundTrip(t *testing.T) {
	ch := &ClientHello{Version: CurrentVersion, Surface: "tabs", ViewportW: 390, ViewportH: 844}
	gotCH, err := DecodeClientHello(EncodeClientHello(ch))
	if err != nil {
		t.Fatalf("DecodeClientHello() error = %v", err)
	}
	if *gotCH != *ch {
		t.Errorf("DecodeClientHello() = %+v, want %+v", gotCH, ch)
	}

	sh := &ServerHello{
		Status:           HandshakeOK,
		SessionID:        "4f1c2d9e-0000-4000-8000-000000000000",
		ServerTime:       1_700_000_000_000,
		MinSwipeDistance: 50,
		MaxSwipeTimeMs:   -1,
		MinSwipeSpeed:    0.2,
	}
	gotSH, err := DecodeServerHello(EncodeServerHello(sh))
	if err != nil {
		t.Fatalf("DecodeServerHello() error = %v", err)
	}
	if *gotSH != *sh {
		t.Errorf("DecodeServerHello() = %+v, want %+v", gotSH, sh)
	}
}

func TestProtocolVersion_Compatible(t *testing.T) {
	server := ProtocolVersion{Major: 1, Minor: 2}
	tests := []struct {
		client ProtocolVersion
		want   bool
	}{
		{ProtocolVersion{1, 0}, true},
		{ProtocolVersion{1, 2}, true},
		{ProtocolVersion{1, 3}, false},
		{ProtocolVersion{2, 0}, false},
	}
	for _, tt := range tests {
		if got := tt.client.Compatible(server); got != tt.want {
			t.Errorf("%v.Compatible(%v) = %v, want %v", tt.client, server, got, tt.want)
		}
	}
}
