package torch

import "net"

// handleConnection is the per-connection state machine: it loops
// request→response on the conn until keep-alive ends, an error closes the
// connection or an upgrade transfers the socket to a WebSocket worker.
func (t *Torch) handleConnection(conn net.Conn) {
	handedOff := false
	defer func() {
		if !handedOff {
			conn.Close()
		}
	}()

	buf := make([]byte, requestBufferBytes)

	for {
		ctx, err := t.readRequest(conn, buf)
		if err != nil {
			// Parse errors and short reads close the connection
			// silently.
			return
		}

		if ctx.upgrade && t.upgradeWebSocket(conn, ctx) {
			handedOff = true
			return
		}

		res := t.dispatch(ctx)

		keepAlive := ctx.keepAlive && res.Status < 400

		if err := t.writeResponse(conn, res, keepAlive); err != nil {
			t.logger.Errorf(
				"torch: failed to write response: %v",
				err,
			)
			return
		}

		if !keepAlive {
			return
		}
	}
}

// dispatch routes the ctx to its handler, falling back to the static mounts
// on a GET miss. A handler panic is turned into a 500.
func (t *Torch) dispatch(ctx *RequestContext) (res *Response) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Errorf("torch: handler panic: %v", r)
			res = &Response{
				Kind:   KindPlaintext,
				Status: 500,
				Body:   []byte("500 Internal Server Error"),
			}
		}
	}()

	rt, values := t.router.match(ctx.Method, ctx.Path)
	if rt == nil {
		if ctx.Method == "GET" {
			return t.serveStatic(ctx.Path)
		}

		return &Response{
			Kind:   KindPlaintext,
			Status: 404,
			Body:   []byte("404 Not Found"),
		}
	}

	for i, n := range rt.paramNames {
		ctx.Params[n] = values[i]
	}

	res = rt.handler(ctx)
	if res == nil {
		res = &Response{
			Kind:   KindPlaintext,
			Status: 204,
		}
	}

	return res
}
