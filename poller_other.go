//go:build !linux && !darwin

package minihttp

import "errors"

// newPoller reports that no readiness poller backend has been built for
// this platform. Server.Start fails immediately rather than
// falling back to a portable-but-blocking substitute, since the whole
// point of this core is never blocking on a single socket.
func newPoller() (poller, error) {
	return nil, errors.New("minihttp: no poller implementation for this platform")
}
