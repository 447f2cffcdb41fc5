package minihttp

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// serverHeaderValue is always inserted by the core, overriding any
// value a handler sets on its own Response.Header. Fixed identity
// string, not a language tag — kept verbatim from the original.
const serverHeaderValue = "mini-http (rust)"

// preparedResponse is a Response already serialized to its wire bytes,
// stored on a stream slot until the write phase drains it.
type preparedResponse struct {
	buf *bytebufferpool.ByteBuffer
}

func (p *preparedResponse) bytes() []byte { return p.buf.B }

func (p *preparedResponse) release() {
	bytebufferpool.Put(p.buf)
	p.buf = nil
}

// serializeResponse produces the wire bytes for resp:
//
//	HTTP/1.1 <code> <reason>\r\n
//	Server: mini-http (rust)\r\n
//	[Content-Length: <n>\r\n]      ; present iff body length > 0
//	<other handler headers>\r\n
//	\r\n
//	<body bytes>
//
// Content-Length and Server are always the core's own values; any
// Content-Length or Server header the handler set is dropped.
func serializeResponse(resp *Response) *preparedResponse {
	buf := bytebufferpool.Get()

	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(resp.StatusCode))
	buf.WriteByte(' ')
	buf.WriteString(StatusMessage(resp.StatusCode))
	buf.WriteString(crlfString)

	buf.WriteString("Server: ")
	buf.WriteString(serverHeaderValue)
	buf.WriteString(crlfString)

	if len(resp.Body) > 0 {
		buf.WriteString("Content-Length: ")
		buf.WriteString(strconv.Itoa(len(resp.Body)))
		buf.WriteString(crlfString)
	}

	for i := 0; i < resp.Header.Len(); i++ {
		key, value := resp.Header.At(i)
		if isCoreInjectedHeader(key) {
			continue
		}
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString(crlfString)
	}

	buf.WriteString(crlfString)
	buf.Write(resp.Body) //nolint:errcheck // ByteBuffer.Write never errors

	return &preparedResponse{buf: buf}
}

const crlfString = "\r\n"

func isCoreInjectedHeader(key string) bool {
	switch key {
	case "server", "content-length":
		return true
	default:
		return false
	}
}

// badRequestResponse builds the fixed 400 response for a malformed
// request: no extra headers beyond the two the core always injects, and
// a body whose Content-Length is always exactly 11.
func badRequestResponse() *Response {
	return &Response{StatusCode: 400, Body: []byte("bad request")}
}
