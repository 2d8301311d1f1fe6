package server

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vango-dev/gesture/pkg/gesture"
)

func TestDefaultServerConfig(t *testing.T) {
	c := DefaultServerConfig()

	if c.Address != ":8080" {
		t.Errorf("Address = %q, want :8080", c.Address)
	}
	if c.SessionConfig == nil {
		t.Fatal("SessionConfig is nil")
	}
	if c.SessionConfig.MaxMessageSize != 16*1024 {
		t.Errorf("MaxMessageSize = %d, want 16KB", c.SessionConfig.MaxMessageSize)
	}
	if c.SessionConfig.Gesture.MinSwipeDistance != gesture.DefaultMinSwipeDistance {
		t.Errorf("MinSwipeDistance = %v", c.SessionConfig.Gesture.MinSwipeDistance)
	}
	if c.SessionConfig.HideDebounce != 200*time.Millisecond {
		t.Errorf("HideDebounce = %v, want 200ms", c.SessionConfig.HideDebounce)
	}
	if !c.CheckOrigin(httptest.NewRequest("GET", "/ws", nil)) {
		t.Error("default CheckOrigin rejected a request")
	}
}

func TestServerConfig_ApplyDefaults(t *testing.T) {
	c := &ServerConfig{
		Address:       ":9000",
		SessionConfig: &SessionConfig{ReadTimeout: time.Second},
	}
	c.applyDefaults()

	if c.Address != ":9000" {
		t.Errorf("Address = %q, want :9000", c.Address)
	}
	if c.SessionConfig.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v, want 1s", c.SessionConfig.ReadTimeout)
	}
	if c.SessionConfig.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", c.SessionConfig.WriteTimeout)
	}
	if c.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", c.ShutdownTimeout)
	}
	if c.CheckOrigin == nil {
		t.Error("CheckOrigin is nil")
	}
}

func TestSessionConfig_Clone(t *testing.T) {
	c := DefaultSessionConfig()
	clone := c.Clone()
	clone.ReadTimeout = time.Hour

	if c.ReadTimeout == time.Hour {
		t.Error("Clone shares fields with the original")
	}
	var nilConfig *SessionConfig
	if nilConfig.Clone() != nil {
		t.Error("nil Clone() != nil")
	}
}

func TestAllowOrigins(t *testing.T) {
	check := AllowOrigins([]string{"https://game.example.com/", "http://localhost:3000"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://game.example.com", true},
		{"HTTPS://Game.Example.com", true},
		{"http://localhost:3000", true},
		{"http://game.example.com", false},
		{"https://evil.example.com", false},
		{"http://localhost:3001", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := check(r); got != tt.want {
				t.Errorf("check(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}

	if !AllowOrigins(nil)(httptest.NewRequest("GET", "/ws", nil)) {
		t.Error("empty allow list rejected a request")
	}
}

func TestSessionError(t *testing.T) {
	err := NewSessionError("abc", "write Gesture", ErrSessionClosed)

	if got, want := err.Error(), "server: session abc: write Gesture: server: session closed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrSessionClosed) {
		t.Error("errors.Is did not unwrap")
	}

	noID := NewSessionError("", "handshake", ErrInvalidHandshake)
	if got, want := noID.Error(), "server: handshake: server: invalid handshake"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
