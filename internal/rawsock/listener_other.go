//go:build !linux

package rawsock

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const soReusePort = unix.SO_REUSEPORT

func newNonblockingSocket(domain, typ, proto int) (int, error) {
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return -1, fmt.Errorf("cannot create listening socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("cannot make listening socket non-blocking: %w", err)
	}
	return fd, nil
}

// enableDeferAccept has no portable equivalent outside Linux's
// TCP_DEFER_ACCEPT.
func enableDeferAccept(fd int) error { return nil }

// enableFastOpen has no portable equivalent outside Linux's
// TCP_FASTOPEN wired up here.
func enableFastOpen(fd int) error { return nil }

func soMaxConn() (int, error) {
	return unix.SOMAXCONN, nil
}
