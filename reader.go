package minihttp

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/minihttp/minihttp/internal/headline"
	"github.com/valyala/bytebufferpool"
)

// maxHeaderBytes bounds the size of the header block streamReader will
// scan before giving up with ErrRequestHeadersTooLarge. Not configurable.
const maxHeaderBytes = 4096

// readChunkSize is the size of the stack buffer the event loop reads
// into on every readable tick.
const readChunkSize = 256

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

// requestHead is an HTTP request minus its body — what StreamReader
// hands back internally once the header block has been parsed. The body
// is attached afterwards by the caller via streamReader.body(), once
// streamReader has also confirmed the full Content-Length body has
// arrived (see streamReader.tryBuildRequest).
type requestHead struct {
	Method string
	URI    string
	Header Header
}

// streamReader is the per-connection incremental HTTP request parser. It
// owns a growing byte buffer, detects the CRLFCRLF header terminator
// across arbitrary chunk boundaries
// without re-scanning already-examined bytes (save for a 3-byte rewind
// to catch terminators split across chunks), invokes the headline parser
// exactly once, and tracks body progress against Content-Length.
type streamReader struct {
	buf *bytebufferpool.ByteBuffer

	headerEnd       int
	headerLineCount int
	headersComplete bool
	scanCursor      int

	head          *requestHead
	contentLength int
	bodyBytesRead int
	bodyComplete  bool

	// yielded latches once tryBuildRequest has returned a head, so
	// further calls return (nil, nil) without re-examining state.
	yielded bool
}

func newStreamReader() *streamReader {
	return &streamReader{buf: bytebufferpool.Get()}
}

// release returns the underlying buffer to the pool. Must not be called
// while any slice previously returned by body() is still in use.
func (r *streamReader) release() {
	bytebufferpool.Put(r.buf)
	r.buf = nil
}

// receiveChunk appends chunk to the internal buffer and returns the new
// buffer length. Always succeeds.
func (r *streamReader) receiveChunk(chunk []byte) int {
	r.buf.Write(chunk) //nolint:errcheck // ByteBuffer.Write never errors
	if r.headersComplete && r.head != nil && !r.bodyComplete {
		// Every read after the header block completes advances body
		// progress, including reads that arrive well after the one that
		// completed the headers.
		r.bodyBytesRead += len(chunk)
	}
	return r.buf.Len()
}

// body returns the body bytes accumulated so far: the buffer content
// past header_end. Valid to call once headersComplete is true.
func (r *streamReader) body() []byte {
	return r.buf.B[r.headerEnd:]
}

// tryBuildRequest attempts to advance parsing using whatever bytes have
// been received so far. It returns a non-nil head exactly once, the tick
// on which both the header block and the full Content-Length body have
// been observed; every call after that returns (nil, nil).
func (r *streamReader) tryBuildRequest() (*requestHead, error) {
	if r.yielded {
		return nil, nil
	}

	if !r.headersComplete {
		if err := r.scanForHeaderEnd(); err != nil {
			return nil, err
		}
		if !r.headersComplete {
			return nil, nil
		}
		// Bytes already in the buffer past the terminator count toward
		// the body, even though they arrived bundled with the header
		// read rather than as their own chunk.
		r.bodyBytesRead = r.buf.Len() - r.headerEnd
	}

	if r.head == nil {
		head, err := r.parseHead()
		if err != nil {
			return nil, err
		}
		r.head = head
	}

	if !r.bodyComplete {
		switch {
		case r.bodyBytesRead < r.contentLength:
			return nil, nil
		case r.bodyBytesRead == r.contentLength:
			r.bodyComplete = true
		default:
			return nil, ErrRequestBodyTooLarge
		}
	}

	r.yielded = true
	return r.head, nil
}

// scanForHeaderEnd searches buf[scanCursor-3:] (clamped at 0) for the
// CRLFCRLF terminator. The 3-byte rewind re-examines bytes already
// scanned on a previous call so a terminator split across chunk
// boundaries is never missed, without ever re-scanning from byte zero.
// Once the terminator is found, header_line_count is derived from the
// CRLF count over the whole header block in one pass, so the caller can
// size the headline.Field array exactly.
//
// The 4096-byte bound applies to the header region alone — bytes up to
// and including the terminator — never to the buffer's total length.
// A readable event can hand the reader header and body bytes together
// in one burst (readPhase drains the socket in a loop before parsing is
// attempted again), so a small header followed by an arbitrarily large
// body must not be rejected just because the two together overflow
// maxHeaderBytes.
func (r *streamReader) scanForHeaderEnd() error {
	cursor := r.scanCursor
	if cursor >= 3 {
		cursor -= 3
	} else {
		cursor = 0
	}

	data := r.buf.B
	idx := bytes.Index(data[cursor:], crlfcrlf)
	if idx < 0 {
		r.scanCursor = len(data)
		if r.scanCursor > maxHeaderBytes {
			return ErrRequestHeadersTooLarge
		}
		return nil
	}

	headerEnd := cursor + idx + 4
	if headerEnd > maxHeaderBytes {
		return ErrRequestHeadersTooLarge
	}

	r.headersComplete = true
	r.headerEnd = headerEnd
	// Every CRLFCRLF-terminated block has exactly one CRLF ending the
	// request line, one per header field, and one ending the final
	// blank line: total CRLFs minus 2 is the field count.
	if n := bytes.Count(data[:r.headerEnd], crlf) - 2; n > 0 {
		r.headerLineCount = n
	}
	return nil
}

// parseHead invokes the headline parser exactly once over the completed
// header block and builds a requestHead plus the declared Content-Length.
func (r *streamReader) parseHead() (*requestHead, error) {
	fields := make([]headline.Field, r.headerLineCount)
	result, partial, err := headline.Parse(r.buf.B[:r.headerEnd], fields)
	if err != nil {
		return nil, ErrMalformedHTTPRequest
	}
	if partial {
		// headersComplete implies the terminator was already seen; a
		// partial result here is an invariant violation.
		return nil, ErrIncompleteHTTPRequest
	}

	head := &requestHead{
		Method: string(result.Method),
		URI:    string(result.Target),
	}
	for _, f := range result.Headers {
		head.Header.Add(string(f.Name), string(f.Value))
	}

	contentLength := 0
	if cl := head.Header.Get("content-length"); cl != "" {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return nil, ErrMalformedHTTPRequest
		}
		contentLength = n
	}
	r.contentLength = contentLength

	return head, nil
}
