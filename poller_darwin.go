//go:build darwin

package minihttp

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kevent_t.Udata is typed *byte by x/sys/unix; these helpers round-trip
// our uint64 token through it without allocating.
func setKeventUdata(ev *unix.Kevent_t, token uint64) {
	ev.Udata = (*byte)(unsafe.Pointer(uintptr(token)))
}

func keventUdata(ev *unix.Kevent_t) uint64 {
	return uint64(uintptr(unsafe.Pointer(ev.Udata)))
}

// kqueuePoller implements poller on Darwin via kqueue. Each registered fd
// gets one or two kevent filters (EVFILT_READ / EVFILT_WRITE) carrying
// the slab handle as Udata, mirroring epollPoller's use of epoll_data.
type kqueuePoller struct {
	kq int
}

func newPoller() (poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueuePoller{kq: kq}, nil
}

func (p *kqueuePoller) changelist(fd int, token handle, i interest, add bool) []unix.Kevent_t {
	flags := uint16(unix.EV_ADD | unix.EV_ENABLE)
	if !add {
		flags = unix.EV_DELETE
	}
	var evs []unix.Kevent_t
	if i&interestReadable != 0 || !add {
		evs = append(evs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if i&interestWritable != 0 || !add {
		evs = append(evs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	for idx := range evs {
		setKeventUdata(&evs[idx], uint64(token))
	}
	return evs
}

func (p *kqueuePoller) register(token handle, fd int, i interest) error {
	changes := p.changelist(fd, token, i, true)
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) reregister(token handle, fd int, i interest) error {
	return p.register(token, fd, i)
}

func (p *kqueuePoller) deregister(fd int) error {
	changes := p.changelist(fd, 0, interestReadable|interestWritable, false)
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) wait(dst []readyEvent) ([]readyEvent, error) {
	var raw [256]unix.Kevent_t
	n, err := unix.Kevent(p.kq, nil, raw[:], nil)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}
	for i := 0; i < n; i++ {
		e := raw[i]
		tok := handle(keventUdata(&e))
		dst = append(dst, readyEvent{
			token:    tok,
			readable: e.Filter == unix.EVFILT_READ,
			writable: e.Filter == unix.EVFILT_WRITE,
			hangup:   e.Flags&unix.EV_EOF != 0,
			errored:  e.Flags&unix.EV_ERROR != 0,
		})
	}
	return dst, nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}
