//go:build !windows

package torch

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// control sets SO_REUSEADDR and the configured kernel buffer sizes on the
// listening socket before it is bound.
func (l *listener) control(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(
			int(fd),
			unix.SOL_SOCKET,
			unix.SO_REUSEADDR,
			1,
		)
		if serr != nil {
			return
		}

		serr = unix.SetsockoptInt(
			int(fd),
			unix.SOL_SOCKET,
			unix.SO_RCVBUF,
			l.torch.SocketReceiveBufferBytes,
		)
		if serr != nil {
			return
		}

		serr = unix.SetsockoptInt(
			int(fd),
			unix.SOL_SOCKET,
			unix.SO_SNDBUF,
			l.torch.SocketSendBufferBytes,
		)
	})
	if err != nil {
		return err
	}

	return serr
}
