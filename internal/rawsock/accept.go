package rawsock

import "golang.org/x/sys/unix"

// Accept performs a single non-blocking accept4 call on listenFD. It
// returns (-1, unix.EAGAIN) when no connection is pending — callers
// treat that as "ignore, try again on the next readable event" per the
// at-most-once-per-event accept discipline.
func Accept(listenFD int) (connFD int, err error) {
	connFD, _, err = unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	return connFD, err
}

// SetNoDelay toggles TCP_NODELAY on an accepted connection fd.
func SetNoDelay(fd int, noDelay bool) error {
	v := 0
	if noDelay {
		v = 1
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

// Read performs one non-blocking read into buf.
func Read(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// Write performs one non-blocking write of buf.
func Write(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// Close closes fd.
func Close(fd int) error {
	return unix.Close(fd)
}

// IsWouldBlock reports whether err is the non-blocking "try again"
// signal (EAGAIN/EWOULDBLOCK).
func IsWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// IsConnReset reports whether err is ECONNRESET.
func IsConnReset(err error) bool {
	return err == unix.ECONNRESET
}

// ListenFDsEnvVar is the environment variable the preopened-fd mode
// checks for, mirroring the WASI preopen signal in the original
// implementation this core's listening setup is modeled on.
const ListenFDsEnvVar = "LISTEN_FDS"

// PreopenedListenFD is the descriptor number adopted when preopened-fd
// mode is active.
const PreopenedListenFD = 3
