// Package protocol implements the binary wire format between a touch
// surface in the browser and the gesture host.
//
// Every WebSocket message is one frame with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHandshake (0x00): ClientHello and ServerHello
//   - FrameEvent (0x01): Client → Server touch and page lifecycle events
//   - FrameGesture (0x02): Server → Client prevent-default and swipe results
//   - FrameControl (0x03): Ping, pong, close
//   - FrameError (0x05): Error message
//
// # Encoding
//
//   - Varint: protobuf-style unsigned integers
//   - ZigZag: signed integers as unsigned varints
//   - Length-prefixed: strings prefixed with a varint length
//   - Big-endian: fixed-width integers and IEEE 754 float64
//
// # Touch Events
//
// Touch coordinates are float64 client pixels. A TouchStart also carries the
// scroll state of the touched element and up to MaxScrollChain ancestors, so
// the host can tell whether the touch began inside a list that is mid-scroll
// without access to the DOM.
//
//	[Seq][Type][Target][Timestamp µs]
//	[n][ID X Y]...         Touches
//	[n][ID X Y]...         ChangedTouches
//	[n][Top Height Client OverflowY Momentum]...   ScrollChain (TouchStart only)
//
// # Usage
//
//	data := protocol.EncodeEvent(&protocol.Event{
//	    Seq:       1,
//	    Type:      protocol.EventTouchEnd,
//	    Target:    "tabs",
//	    Timestamp: 120_000,
//	    Payload: &protocol.TouchEventData{
//	        ChangedTouches: []protocol.TouchPoint{{X: 12, Y: 300}},
//	    },
//	})
//	frame := protocol.NewFrame(protocol.FrameEvent, data)
package protocol
