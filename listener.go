package torch

import (
	"context"
	"net"
)

// listener wraps the TCP listener of a `Torch` instance. It tunes the
// listening socket's kernel buffers and every accepted socket's transport
// options.
type listener struct {
	net.Listener

	torch *Torch
}

// newListener returns a new instance of the `listener` with the t.
func newListener(t *Torch) *listener {
	return &listener{
		torch: t,
	}
}

// listen listens on the TCP network address.
func (l *listener) listen(address string) error {
	lc := net.ListenConfig{
		Control: l.control,
	}

	nl, err := lc.Listen(context.Background(), "tcp", address)
	if err != nil {
		return err
	}

	l.Listener = nl

	return nil
}

// accept accepts the next connection, disabling Nagle's algorithm on it.
func (l *listener) accept() (net.Conn, error) {
	conn, err := l.Accept()
	if err != nil {
		return nil, err
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	return conn, nil
}
