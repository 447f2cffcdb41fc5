// Package rawsock opens a non-blocking listening socket and performs
// non-blocking accept/read/write on it directly via golang.org/x/sys/unix,
// returning bare file descriptors instead of net.Listener/net.Conn. The
// event loop needs the raw fd to hand to its own readiness poller; the
// standard library's net package never exposes one.
//
// Adapted from valyala/tcplisten, generalized from "build a net.Listener"
// to "build a raw fd plus an Accept that returns a raw fd".
package rawsock

import (
	"fmt"
	"math"
	"net"

	"golang.org/x/sys/unix"
)

// Config mirrors tcplisten.Config: the performance-related listen options
// this core exposes through its own Config.
type Config struct {
	// ReusePort enables SO_REUSEPORT, letting multiple processes share
	// the same listening address.
	ReusePort bool

	// DeferAccept enables TCP_DEFER_ACCEPT (Linux only; a no-op
	// elsewhere).
	DeferAccept bool

	// FastOpen enables TCP_FASTOPEN (Linux only; a no-op elsewhere).
	FastOpen bool

	// Backlog is the listen(2) backlog. Zero means use the system
	// default.
	Backlog int
}

// Listen creates, configures, binds, and listens on a TCP socket for
// addr, returning its raw non-blocking file descriptor. Only "tcp",
// "tcp4", and "tcp6" networks are supported.
func (cfg *Config) Listen(network, addr string) (int, error) {
	sa, soType, err := getSockaddr(network, addr)
	if err != nil {
		return -1, err
	}

	fd, err := newNonblockingSocket(soType, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}

	if err := cfg.setup(fd, sa, addr); err != nil {
		unix.Close(fd)
		return -1, err
	}

	return fd, nil
}

func (cfg *Config) setup(fd int, sa unix.Sockaddr, addr string) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("cannot enable SO_REUSEADDR: %w", err)
	}

	if cfg.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, soReusePort, 1); err != nil {
			return fmt.Errorf("cannot enable SO_REUSEPORT: %w", err)
		}
	}

	if cfg.DeferAccept {
		if err := enableDeferAccept(fd); err != nil {
			return err
		}
	}

	if cfg.FastOpen {
		if err := enableFastOpen(fd); err != nil {
			return err
		}
	}

	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("cannot bind to %q: %w", addr, err)
	}

	backlog := cfg.Backlog
	if backlog <= 0 {
		var err error
		if backlog, err = soMaxConn(); err != nil {
			return fmt.Errorf("cannot determine backlog for listen(2): %w", err)
		}
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fmt.Errorf("cannot listen on %q: %w", addr, err)
	}

	return nil
}

func getSockaddr(network, addr string) (sa unix.Sockaddr, soType int, err error) {
	tcpAddr, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		return nil, -1, err
	}

	switch network {
	case "tcp4":
		var sa4 unix.SockaddrInet4
		sa4.Port = tcpAddr.Port
		copy(sa4.Addr[:], tcpAddr.IP.To4())
		return &sa4, unix.AF_INET, nil
	case "tcp6":
		sa6, err := sockaddrInet6(tcpAddr)
		return sa6, unix.AF_INET6, err
	case "tcp":
		if tcpAddr.IP == nil {
			tcpAddr.IP = net.IPv4(0, 0, 0, 0)
		}
		sa6, err := sockaddrInet6(tcpAddr)
		return sa6, unix.AF_INET6, err
	default:
		return nil, -1, fmt.Errorf("rawsock: unsupported network %q, want tcp, tcp4, or tcp6", network)
	}
}

func sockaddrInet6(tcpAddr *net.TCPAddr) (*unix.SockaddrInet6, error) {
	var sa6 unix.SockaddrInet6
	sa6.Port = tcpAddr.Port
	copy(sa6.Addr[:], tcpAddr.IP.To16())
	if tcpAddr.Zone != "" {
		ifi, err := net.InterfaceByName(tcpAddr.Zone)
		if err != nil {
			return nil, err
		}
		if ifi.Index < 0 || uint64(ifi.Index) > math.MaxUint32 {
			return nil, fmt.Errorf("rawsock: interface index %d out of range", ifi.Index)
		}
		sa6.ZoneId = uint32(ifi.Index)
	}
	return &sa6, nil
}
