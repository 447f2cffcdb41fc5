//go:build linux

package minihttp

import (
	"golang.org/x/sys/unix"
)

// epollPoller implements poller on Linux via epoll. It stores the slab
// handle, not the real file descriptor, in the epoll_data union slot
// (EpollEvent.Fd) so that an event the kernel hands back already carries
// the token the slab needs — the fd itself is looked up from the slab
// slot once the event is known.
type epollPoller struct {
	epfd int
}

func newPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd}, nil
}

func epollEvents(i interest) uint32 {
	var events uint32
	if i&interestReadable != 0 {
		events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if i&interestWritable != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

func (p *epollPoller) register(token handle, fd int, i interest) error {
	ev := unix.EpollEvent{Events: epollEvents(i), Fd: int32(token)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) reregister(token handle, fd int, i interest) error {
	ev := unix.EpollEvent{Events: epollEvents(i), Fd: int32(token)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) deregister(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(dst []readyEvent) ([]readyEvent, error) {
	var raw [256]unix.EpollEvent
	n, err := unix.EpollWait(p.epfd, raw[:], -1)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	for i := 0; i < n; i++ {
		e := raw[i]
		dst = append(dst, readyEvent{
			token:    handle(e.Fd),
			readable: e.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0,
			writable: e.Events&unix.EPOLLOUT != 0,
			hangup:   e.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
			errored:  e.Events&unix.EPOLLERR != 0,
		})
	}
	return dst, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}
