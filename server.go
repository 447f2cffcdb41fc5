package minihttp

import (
	"os"

	"github.com/minihttp/minihttp/internal/rawsock"
)

// Handler handles one fully-parsed Request, producing the Response to
// serialize back to the connection. Called inline on the loop thread;
// its duration blocks the loop.
type Handler func(*Request) *Response

// Server is the single-threaded, readiness-driven reactor: it owns a
// listening socket, an OS readiness poller, and a slab of per-connection
// state, and on every event advances exactly one connection's state
// machine through accept, read-and-parse, handler invocation, and write.
type Server struct {
	cfg    Config
	logger Logger
	slab   *slab
	poller poller
}

// NewServer constructs a Server from cfg. No I/O happens until Start is
// called.
func NewServer(cfg Config) *Server {
	return &Server{cfg: cfg, logger: cfg.logger(), slab: newSlab()}
}

// Start opens the listening socket (or adopts a preopened one, see
// acquireListenFD), creates the OS poller, and runs the event loop
// forever, dispatching every fully-read request to handler. It returns
// only on an unrecoverable setup or poller error.
func (s *Server) Start(handler Handler) error {
	listenFD, err := s.acquireListenFD()
	if err != nil {
		return err
	}

	p, err := newPoller()
	if err != nil {
		rawsock.Close(listenFD)
		return err
	}
	s.poller = p

	listenHandle := s.slab.insert(&slot{kind: slotListener, fd: listenFD})
	if err := s.poller.register(listenHandle, listenFD, interestReadable); err != nil {
		return err
	}

	events := make([]readyEvent, 0, 256)
	for {
		events, err = s.poller.wait(events[:0])
		if err != nil {
			return err
		}
		for _, ev := range events {
			s.handleEvent(ev, handler)
		}
	}
}

// acquireListenFD implements the two listening configurations:
// preopened-fd mode, gated by the LISTEN_FDS environment variable, and
// bound-address mode otherwise.
func (s *Server) acquireListenFD() (int, error) {
	if _, ok := os.LookupEnv(rawsock.ListenFDsEnvVar); ok {
		return rawsock.PreopenedListenFD, nil
	}

	cfg := &rawsock.Config{
		ReusePort:   s.cfg.ReusePort,
		DeferAccept: s.cfg.DeferAccept,
		FastOpen:    s.cfg.FastOpen,
		Backlog:     s.cfg.Backlog,
	}
	return cfg.Listen("tcp", s.cfg.Addr)
}

// handleEvent implements the remove-and-reinsert discipline: the slot
// keyed by the event's token is always removed from the slab first, then
// either reinserted at a (possibly different) handle or dropped for
// good, never both live in the slab and under active processing.
func (s *Server) handleEvent(ev readyEvent, handler Handler) {
	st := s.slab.remove(ev.token)

	switch st.kind {
	case slotListener:
		s.handleListenerEvent(st, ev)
	case slotStream:
		s.handleStreamEvent(st, ev, handler)
	}
}

// handleListenerEvent accepts at most one connection per listener event
// and always reinserts the listener under a fresh handle.
func (s *Server) handleListenerEvent(st *slot, ev readyEvent) {
	if ev.readable {
		connFD, err := rawsock.Accept(st.fd)
		switch {
		case err == nil:
			if s.cfg.TCPNoDelay {
				if err := rawsock.SetNoDelay(connFD, true); err != nil {
					s.logger.Printf("minihttp: set nodelay: %v", err)
				}
			}
			connSlot := &slot{kind: slotStream, fd: connFD, reader: newStreamReader()}
			h := s.slab.insert(connSlot)
			if err := s.poller.register(h, connFD, interestReadable|interestWritable); err != nil {
				s.logger.Printf("minihttp: register accepted connection: %v", err)
				s.dropStream(s.slab.remove(h))
			}
		case rawsock.IsWouldBlock(err):
			// No pending connection; nothing to do.
		default:
			s.logger.Printf("minihttp: accept: %v", err)
		}
	}

	newHandle := s.slab.insert(st)
	if err := s.poller.reregister(newHandle, st.fd, interestReadable); err != nil {
		s.logger.Printf("minihttp: re-register listener: %v", err)
	}
}

// handleStreamEvent runs the read, handler, and write phases for one
// Stream slot and either reinserts it (continuation) or drops it.
func (s *Server) handleStreamEvent(st *slot, ev readyEvent, handler Handler) {
	if ev.hangup || ev.errored {
		s.dropStream(st)
		return
	}

	if ev.readable && !st.doneReading {
		if !s.readPhase(st) {
			s.dropStream(st)
			return
		}
	}

	if !st.doneReading {
		s.tryParsePhase(st)
	}

	if st.doneReading && st.response == nil {
		s.handlerPhase(st, handler)
	}

	if ev.writable && st.response != nil {
		if !s.writePhase(st) {
			s.dropStream(st)
			return
		}
	}

	if st.response != nil && st.writeCursor >= len(st.response.bytes()) {
		s.dropStream(st)
		return
	}

	newHandle := s.slab.insert(st)
	if err := s.poller.reregister(newHandle, st.fd, interestReadable|interestWritable); err != nil {
		s.logger.Printf("minihttp: re-register stream: %v", err)
		s.dropStream(s.slab.remove(newHandle))
	}
}

// readPhase reads into a small stack buffer in a tight loop, feeding
// each chunk to the reader. Returns false if the connection should be
// dropped (peer closed, reset, or a hard I/O error).
func (s *Server) readPhase(st *slot) bool {
	var buf [readChunkSize]byte
	for {
		n, err := rawsock.Read(st.fd, buf[:])
		switch {
		case err == nil && n == 0:
			return false
		case err == nil:
			st.reader.receiveChunk(buf[:n])
		case rawsock.IsWouldBlock(err):
			return true
		case rawsock.IsConnReset(err):
			return false
		default:
			s.logger.Printf("minihttp: read: %v", err)
			return false
		}
	}
}

// tryParsePhase advances the reader's parse state machine once per
// event, per the reader's try_build_request contract.
func (s *Server) tryParsePhase(st *slot) {
	head, err := st.reader.tryBuildRequest()
	switch {
	case err != nil:
		st.response = serializeResponse(badRequestResponse())
		st.doneReading = true
	case head != nil:
		st.requestHead = head
		st.doneReading = true
	}
}

// handlerPhase moves the reader's buffer into a Request, invokes
// handler exactly once, and serializes the returned Response.
func (s *Server) handlerPhase(st *slot, handler Handler) {
	if st.requestHead == nil {
		// A malformed request already produced a 400 in tryParsePhase;
		// nothing further to build.
		return
	}
	head := st.requestHead

	body := st.reader.body()
	req := &Request{
		Method:  head.Method,
		URI:     head.URI,
		Header:  head.Header,
		Body:    body,
		keepRaw: body,
	}

	resp := handler(req)
	if resp == nil {
		resp = NewResponse(500, nil)
	}
	if s.cfg.Compression != nil {
		s.cfg.Compression.apply(resp, req.Header.Get("accept-encoding"))
	}
	st.response = serializeResponse(resp)
}

// writePhase drains the prepared response using writeCursor as the
// cursor into [headers || body]. Returns false if the connection should
// be dropped on a hard write error.
func (s *Server) writePhase(st *slot) bool {
	data := st.response.bytes()
	for st.writeCursor < len(data) {
		n, err := rawsock.Write(st.fd, data[st.writeCursor:])
		switch {
		case err == nil:
			st.writeCursor += n
		case rawsock.IsWouldBlock(err):
			return true
		default:
			s.logger.Printf("minihttp: write: %v", err)
			return false
		}
	}
	return true
}

// dropStream deregisters and releases a Stream slot's resources.
func (s *Server) dropStream(st *slot) {
	if err := s.poller.deregister(st.fd); err != nil {
		s.logger.Printf("minihttp: deregister: %v", err)
	}
	rawsock.Close(st.fd)
	if st.reader != nil {
		st.reader.release()
	}
	if st.response != nil {
		st.response.release()
	}
}
