package torch

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"
)

// webSocketGUID is the fixed GUID the Sec-WebSocket-Accept digest is
// computed with, per RFC 6455.
const webSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// CloseNormal is the close code of a normal WebSocket closure.
const CloseNormal = 1000

// WebSocketHandlers is the set of optional callbacks of a WebSocket route.
type WebSocketHandlers struct {
	// OnConnect is invoked once, right after the handshake completes.
	OnConnect func(*WebSocketConn)

	// OnMessage is invoked for every received text message.
	OnMessage func(*WebSocketConn, string)

	// OnBinary is invoked for every received binary message.
	OnBinary func(*WebSocketConn, []byte)

	// OnClose is invoked exactly once when the connection ends, however
	// it ends.
	OnClose func(*WebSocketConn)
}

// WebSocketConn is one upgraded connection. It exclusively owns its socket
// from the moment of the upgrade until close.
type WebSocketConn struct {
	// Params holds the values captured for the matched WebSocket route's
	// ":name" params.
	Params map[string]string

	torch *Torch
	conn  net.Conn

	mutex sync.Mutex
	open  bool
}

// SendText sends one text frame carrying the s. It is a no-op on a closed
// connection.
func (ws *WebSocketConn) SendText(s string) {
	ws.send(opcodeText, []byte(s))
}

// SendBinary sends one binary frame carrying the b. It is a no-op on a
// closed connection.
func (ws *WebSocketConn) SendBinary(b []byte) {
	ws.send(opcodeBinary, b)
}

// Ping sends one ping frame carrying the b. The b must not exceed 125
// bytes.
func (ws *WebSocketConn) Ping(b []byte) error {
	return ws.sendControl(opcodePing, b)
}

// Pong sends one pong frame carrying the b. The b must not exceed 125
// bytes.
func (ws *WebSocketConn) Pong(b []byte) error {
	return ws.sendControl(opcodePong, b)
}

// Close sends a close frame with the code and the reason, then closes the
// socket. It is idempotent: subsequent calls are no-ops.
func (ws *WebSocketConn) Close(code int, reason string) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.open {
		return
	}

	ws.open = false

	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	copy(payload[2:], reason)

	if b, err := encodeFrame(opcodeClose, payload); err == nil {
		ws.conn.Write(b)
	}

	ws.conn.Close()
}

// send writes one frame with the op and the payload, silently marking the
// connection closed on a write failure.
func (ws *WebSocketConn) send(op opcode, payload []byte) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.open {
		return
	}

	b, err := encodeFrame(op, payload)
	if err != nil {
		return
	}

	if _, err := ws.conn.Write(b); err != nil {
		ws.torch.logger.Errorf(
			"torch: websocket write failed: %v",
			err,
		)
		ws.open = false
		ws.conn.Close()
	}
}

// sendControl writes one control frame with the op and the payload,
// rejecting oversize payloads.
func (ws *WebSocketConn) sendControl(op opcode, payload []byte) error {
	if len(payload) > maxControlPayloadBytes {
		return errControlPayloadTooLarge
	}

	ws.send(op, payload)

	return nil
}

// isOpen reports whether the ws is still open.
func (ws *WebSocketConn) isOpen() bool {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()
	return ws.open
}

// upgradeWebSocket performs the RFC 6455 handshake on the conn for the ctx
// and hands the socket to a dedicated WebSocket worker. It reports whether
// the socket was handed off; on false the request keeps flowing through the
// plain HTTP path.
func (t *Torch) upgradeWebSocket(conn net.Conn, ctx *RequestContext) bool {
	r, values := t.router.matchWebSocket(ctx.Path)
	if r == nil {
		return false
	}

	key := ctx.Headers["sec-websocket-key"]
	if key == "" {
		return false
	}

	for i, n := range r.paramNames {
		ctx.Params[n] = values[i]
	}

	sum := sha1.Sum([]byte(key + webSocketGUID))
	accept := base64.StdEncoding.EncodeToString(sum[:])

	if _, err := fmt.Fprintf(
		conn,
		"HTTP/1.1 101 Switching Protocols\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Accept: %s\r\n\r\n",
		accept,
	); err != nil {
		t.logger.Errorf("torch: websocket handshake failed: %v", err)
		conn.Close()
		return true
	}

	ws := &WebSocketConn{
		Params: ctx.Params,
		torch:  t,
		conn:   conn,
		open:   true,
	}

	go t.serveWebSocket(ws, r.handlers)

	return true
}

// serveWebSocket runs one upgraded connection's receive loop until the peer
// closes, the socket fails or a frame is malformed. The hs.OnClose is
// invoked exactly once, however the loop ends.
func (t *Torch) serveWebSocket(ws *WebSocketConn, hs WebSocketHandlers) {
	// The socket has left the request/response regime for good; the
	// keep-alive deadline no longer applies.
	ws.conn.SetReadDeadline(time.Time{})

	defer func() {
		if r := recover(); r != nil {
			t.logger.Errorf(
				"torch: websocket handler panic: %v",
				r,
			)
		}

		ws.Close(CloseNormal, "")

		if hs.OnClose != nil {
			hs.OnClose(ws)
		}
	}()

	if hs.OnConnect != nil {
		hs.OnConnect(ws)
	}

	for ws.isOpen() {
		f, err := readFrame(ws.conn)
		if err != nil {
			return
		}

		switch f.opcode {
		case opcodeText:
			if hs.OnMessage != nil {
				hs.OnMessage(ws, string(f.payload))
			}
		case opcodeBinary:
			if hs.OnBinary != nil {
				hs.OnBinary(ws, f.payload)
			}
		case opcodePing:
			ws.Pong(f.payload)
		case opcodePong:
		case opcodeClose:
			code := CloseNormal
			if len(f.payload) >= 2 {
				code = int(binary.BigEndian.Uint16(f.payload))
			}

			ws.Close(code, "")

			return
		}
	}
}
