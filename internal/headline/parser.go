// Package headline parses an already-delimited HTTP/1.x request header
// block — the region a stream reader has already located between the
// start of the buffer and its CRLFCRLF terminator — into a request line
// plus a fixed-capacity array of header fields.
//
// It performs a single-shot parse of `method SP request-target SP
// HTTP-version CRLF (field CRLF)* CRLF` that reports complete, partial,
// or error, built in the byte-window scanning style fasthttp's own
// header scanner uses, generalized from "headers of a reused request
// context" to "headers of one already-bounded block".
package headline

import (
	"bytes"
	"errors"

	"golang.org/x/net/http/httpguts"
)

// Field is one parsed header name/value pair. Name and Value are slices
// into the caller's original buffer — no copying is performed.
type Field struct {
	Name  []byte
	Value []byte
}

// Result is the outcome of a single Parse call.
type Result struct {
	// Method, Target, and Version are slices into buf.
	Method  []byte
	Target  []byte
	Version []byte

	// Headers is the prefix of the headers slice passed to Parse that was
	// actually filled in, in wire order.
	Headers []Field

	// N is the number of bytes of buf consumed by the request line plus
	// header fields, up to and including the terminating CRLF. It is only
	// meaningful when Parse returns complete (partial == false) with a
	// nil error.
	N int
}

var (
	// ErrMalformed is returned for any request line or header field that
	// doesn't conform to the grammar (bad method/target/version token,
	// missing colon, invalid field-name characters, obsolete line
	// folding, etc).
	ErrMalformed = errors.New("headline: malformed request")

	// ErrTooManyHeaders is returned when the header block contains more
	// fields than the caller's headers slice has capacity for.
	ErrTooManyHeaders = errors.New("headline: too many headers")
)

var (
	crlf      = []byte("\r\n")
	httpSlash = []byte("HTTP/")
)

// Parse parses buf, which must already contain a complete header block
// (request line through the final blank-line CRLF — callers locate this
// boundary themselves, e.g. via StreamReader's CRLFCRLF scan). headers is
// scratch storage for parsed fields; Parse never grows it.
//
// Parse returns (result, partial=false, err=nil) on success. It returns
// partial=true only if buf does not yet contain a full CRLF-terminated
// request line and header block — callers that pre-locate the CRLFCRLF
// terminator before calling Parse should never observe this.
func Parse(buf []byte, headers []Field) (result Result, partial bool, err error) {
	rest := buf
	consumed := 0

	line, n, ok := readLine(rest)
	if !ok {
		return Result{}, true, nil
	}
	rest = rest[n:]
	consumed += n

	method, target, version, ok := parseRequestLine(line)
	if !ok {
		return Result{}, false, ErrMalformed
	}

	count := 0
	for {
		line, n, ok := readLine(rest)
		if !ok {
			return Result{}, true, nil
		}
		rest = rest[n:]
		consumed += n

		if len(line) == 0 {
			// Blank line: end of header block.
			return Result{
				Method:  method,
				Target:  target,
				Version: version,
				Headers: headers[:count],
				N:       consumed,
			}, false, nil
		}

		if count >= len(headers) {
			return Result{}, false, ErrTooManyHeaders
		}

		name, value, ok := parseHeaderField(line)
		if !ok {
			return Result{}, false, ErrMalformed
		}
		headers[count] = Field{Name: name, Value: value}
		count++
	}
}

// readLine returns the bytes of buf up to (excluding) the first CRLF,
// along with the number of bytes consumed including the CRLF. ok is false
// if buf does not yet contain a CRLF.
func readLine(buf []byte) (line []byte, n int, ok bool) {
	i := bytes.Index(buf, crlf)
	if i < 0 {
		return nil, 0, false
	}
	return buf[:i], i + len(crlf), true
}

// parseRequestLine splits "METHOD SP target SP HTTP-version" into its
// three tokens, validating the method token and the version against the
// "HTTP/<digit>.<digit>" shape. Method validation is delegated to
// httpguts.ValidMethod rather than a hand-rolled token table.
func parseRequestLine(line []byte) (method, target, version []byte, ok bool) {
	fields := bytes.Fields(line)
	if len(fields) != 3 {
		return nil, nil, nil, false
	}
	method, target, version = fields[0], fields[1], fields[2]

	if !httpguts.ValidMethod(string(method)) {
		return nil, nil, nil, false
	}
	if !bytes.HasPrefix(version, httpSlash) || len(version) != len(httpSlash)+3 {
		return nil, nil, nil, false
	}
	major, minor := version[len(httpSlash)], version[len(httpSlash)+2]
	if version[len(httpSlash)+1] != '.' || !isDigit(major) || !isDigit(minor) {
		return nil, nil, nil, false
	}
	if len(target) == 0 {
		return nil, nil, nil, false
	}
	return method, target, version, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseHeaderField splits "Name: value" into its trimmed components. It
// rejects empty names, missing colons, obsolete header-line folding
// (leading space/tab — already excluded since readLine stops at the
// first bare line), invalid field-name token characters, and field
// values containing forbidden control bytes — both checks delegated to
// httpguts rather than hand-rolled ASCII tables.
func parseHeaderField(line []byte) (name, value []byte, ok bool) {
	if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
		return nil, nil, false
	}
	i := bytes.IndexByte(line, ':')
	if i <= 0 {
		return nil, nil, false
	}
	name = line[:i]
	if !httpguts.ValidHeaderFieldName(string(name)) {
		return nil, nil, false
	}
	value = bytes.Trim(line[i+1:], " \t")
	if !httpguts.ValidHeaderFieldValue(string(value)) {
		return nil, nil, false
	}
	return name, value, true
}
