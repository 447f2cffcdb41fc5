package minihttp

// Config configures a Server: a flat struct literal with documented
// defaults rather than a functional-options API.
type Config struct {
	// Addr is the "host:port" to bind when LISTEN_FDS is not set in the
	// environment. Ignored in preopened-fd mode.
	Addr string

	// TCPNoDelay disables Nagle's algorithm on every accepted
	// connection. Default false.
	TCPNoDelay bool

	// ReusePort enables SO_REUSEPORT on the listening socket, letting
	// multiple processes bind the same address.
	ReusePort bool

	// DeferAccept enables TCP_DEFER_ACCEPT on Linux (ignored elsewhere).
	DeferAccept bool

	// FastOpen enables TCP_FASTOPEN on Linux (ignored elsewhere).
	FastOpen bool

	// Backlog is the listen(2) backlog; zero uses the system default.
	Backlog int

	// Compression, when non-nil, lets responses be transparently
	// gzip/brotli-encoded according to the request's Accept-Encoding.
	// Nil disables compression entirely.
	Compression *CompressionConfig

	// Logger receives operational log lines (accept/read/write and
	// poller registration errors). Handler panics are not recovered or
	// logged. Defaults to a stderr logger if nil.
	Logger Logger
}

func (c *Config) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defaultLogger()
}
