//go:build windows

package torch

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// control sets SO_REUSEADDR and the configured kernel buffer sizes on the
// listening socket before it is bound.
func (l *listener) control(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = windows.SetsockoptInt(
			windows.Handle(fd),
			windows.SOL_SOCKET,
			windows.SO_REUSEADDR,
			1,
		)
		if serr != nil {
			return
		}

		serr = windows.SetsockoptInt(
			windows.Handle(fd),
			windows.SOL_SOCKET,
			windows.SO_RCVBUF,
			l.torch.SocketReceiveBufferBytes,
		)
		if serr != nil {
			return
		}

		serr = windows.SetsockoptInt(
			windows.Handle(fd),
			windows.SOL_SOCKET,
			windows.SO_SNDBUF,
			l.torch.SocketSendBufferBytes,
		)
	})
	if err != nil {
		return err
	}

	return serr
}
