package minihttp

// interest is the set of readiness conditions the loop registers for a
// given handle.
type interest uint8

const (
	interestReadable interest = 1 << iota
	interestWritable
)

// readyEvent is one readiness notification. Token is the handle that was
// registered for whatever triggered this event, echoed back verbatim by
// the OS poller — the same integer that keys the slab.
type readyEvent struct {
	token    handle
	readable bool
	writable bool
	// hangup is true when the OS reports the peer closed its read or
	// write half (EPOLLRDHUP/EPOLLHUP, or a kqueue EV_EOF).
	hangup bool
	// errored is true when the OS reports the socket is in an error
	// state (EPOLLERR, or a kqueue EV_ERROR).
	errored bool
}

// poller is the OS readiness multiplexer: register a handle's fd for an
// interest set, and block waiting for readiness events keyed by that
// same handle.
type poller interface {
	// register adds fd under token with the given interest. Used once
	// per fd, when it is first inserted into the slab.
	register(token handle, fd int, i interest) error

	// reregister replaces the token and interest set of an fd that is
	// already registered (the epoll_ctl MOD operation). The loop calls it
	// every time it reinserts a slot under a fresh handle.
	reregister(token handle, fd int, i interest) error

	// deregister removes fd from the poller's interest set. Called
	// before a slot is dropped; no slot may be dropped while still
	// registered with the poller.
	deregister(fd int) error

	// wait blocks with no timeout until events are ready, appending them
	// to dst and returning the extended slice. A wait interrupted by a
	// signal (EINTR) returns dst with no events added.
	wait(dst []readyEvent) ([]readyEvent, error)

	// close releases the poller's own OS resources (e.g. the epoll fd).
	close() error
}
