package server

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/gesture/pkg/protocol"
)

// ReadLoop reads frames until the connection closes. It is the only
// goroutine that drives the recognizer, so touch events are applied strictly
// in arrival order.
func (s *Session) ReadLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.UpdateLastActive()

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.deps.metrics.decodeError()
			s.logger.Error("frame decode error", "error", err)
			s.sendError(protocol.ErrInvalidFrame, "malformed frame")
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload)

		case protocol.FrameControl:
			if stop := s.handleControlFrame(frame.Payload); stop {
				return
			}

		default:
			s.logger.Warn("unknown frame type", "type", frame.Type)
		}
	}
}

// handleEventFrame decodes and applies one client event.
func (s *Session) handleEventFrame(payload []byte) {
	e, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.deps.metrics.decodeError()
		s.logger.Error("event decode error", "error", err)
		s.sendError(protocol.ErrInvalidEvent, "invalid event format")
		return
	}

	if err := s.handleEvent(e); err != nil {
		if errors.Is(err, ErrNoTouchPoint) {
			s.sendError(protocol.ErrInvalidEvent, err.Error())
			return
		}
		s.logger.Error("event failed", "seq", e.Seq, "type", e.Type, "error", err)
	}
}

// handleControlFrame handles ping, pong, and close. It reports whether the
// client asked to close.
func (s *Session) handleControlFrame(payload []byte) bool {
	ct, data, err := protocol.DecodeControl(payload)
	if err != nil {
		s.deps.metrics.decodeError()
		s.logger.Error("control decode error", "error", err)
		return false
	}

	switch ct {
	case protocol.ControlPing:
		if pp, ok := data.(*protocol.PingPong); ok {
			s.writeControl(protocol.NewPong(pp.Timestamp))
		}

	case protocol.ControlPong:
		s.logger.Debug("received pong")

	case protocol.ControlClose:
		if cm, ok := data.(*protocol.CloseMessage); ok {
			s.logger.Info("client closing", "reason", cm.Reason, "message", cm.Message)
		}
		return true
	}
	return false
}

// WriteLoop sends heartbeat pings until the session closes.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ct, pp := protocol.NewPing(uint64(time.Now().UnixMilli()))
			if err := s.writeControl(ct, pp); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}

// Start starts the session loops. Call it after the handshake.
func (s *Session) Start() {
	go s.ReadLoop()
	go s.WriteLoop()
}

// writeFrame writes one frame under the write mutex.
func (s *Session) writeFrame(ft protocol.FrameType, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() || s.conn == nil {
		return ErrSessionClosed
	}

	frame := protocol.NewFrame(ft, payload)
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame.Encode()); err != nil {
		return NewSessionError(s.ID, "write "+ft.String(), err)
	}
	return nil
}

func (s *Session) writeControl(ct protocol.ControlType, payload any) error {
	return s.writeFrame(protocol.FrameControl, protocol.EncodeControl(ct, payload))
}

// sendGesture reports a recognizer message to the client.
func (s *Session) sendGesture(kind protocol.GestureKind, eventSeq uint64, preventDefault bool) error {
	g := &protocol.Gesture{
		Seq:            s.sendSeq.Add(1),
		Kind:           kind,
		EventSeq:       eventSeq,
		PreventDefault: preventDefault,
	}
	return s.writeFrame(protocol.FrameGesture, protocol.EncodeGesture(g))
}

// sendError sends a non-fatal error message.
func (s *Session) sendError(code protocol.ErrorCode, message string) {
	em := protocol.NewError(code, message)
	if err := s.writeFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)); err != nil {
		s.logger.Debug("error message not sent", "error", err)
	}
}

// SendClose sends a close control message to the client.
func (s *Session) SendClose(reason protocol.CloseReason, message string) {
	ct, cm := protocol.NewClose(reason, message)
	if err := s.writeControl(ct, cm); err != nil {
		s.logger.Debug("close message not sent", "error", err)
	}
}
