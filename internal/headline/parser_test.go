package headline

import (
	"bytes"
	"testing"
)

func TestParseComplete(t *testing.T) {
	buf := []byte("GET /foo?bar=1 HTTP/1.1\r\nHost: example.com\r\nX-Custom: a, b\r\n\r\n")
	headers := make([]Field, 8)

	res, partial, err := Parse(buf, headers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partial {
		t.Fatalf("expected complete parse, got partial")
	}
	if string(res.Method) != "GET" {
		t.Errorf("method = %q, want GET", res.Method)
	}
	if string(res.Target) != "/foo?bar=1" {
		t.Errorf("target = %q, want /foo?bar=1", res.Target)
	}
	if string(res.Version) != "HTTP/1.1" {
		t.Errorf("version = %q, want HTTP/1.1", res.Version)
	}
	if len(res.Headers) != 2 {
		t.Fatalf("got %d headers, want 2", len(res.Headers))
	}
	if string(res.Headers[0].Name) != "Host" || string(res.Headers[0].Value) != "example.com" {
		t.Errorf("headers[0] = %q: %q", res.Headers[0].Name, res.Headers[0].Value)
	}
	if res.N != len(buf) {
		t.Errorf("N = %d, want %d", res.N, len(buf))
	}
}

func TestParseNoHeaders(t *testing.T) {
	buf := []byte("GET / HTTP/1.1\r\n\r\n")
	res, partial, err := Parse(buf, make([]Field, 0))
	if err != nil || partial {
		t.Fatalf("unexpected result: %+v partial=%v err=%v", res, partial, err)
	}
	if len(res.Headers) != 0 {
		t.Errorf("expected zero headers, got %d", len(res.Headers))
	}
}

func TestParsePartial(t *testing.T) {
	buf := []byte("GET / HTTP/1.1\r\nHost: x\r")
	_, partial, err := Parse(buf, make([]Field, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !partial {
		t.Fatalf("expected partial result")
	}
}

func TestParseMalformedRequestLine(t *testing.T) {
	cases := [][]byte{
		[]byte("GET /\r\n\r\n"),
		[]byte("GET / HTTP/2.0x\r\n\r\n"),
		[]byte("G@T / HTTP/1.1\r\n\r\n"),
	}
	for _, buf := range cases {
		_, _, err := Parse(buf, make([]Field, 4))
		if err != ErrMalformed {
			t.Errorf("buf %q: got err=%v, want ErrMalformed", buf, err)
		}
	}
}

func TestParseMalformedHeaderField(t *testing.T) {
	buf := []byte("GET / HTTP/1.1\r\nBadHeader\r\n\r\n")
	_, _, err := Parse(buf, make([]Field, 4))
	if err != ErrMalformed {
		t.Fatalf("got err=%v, want ErrMalformed", err)
	}
}

func TestParseTooManyHeaders(t *testing.T) {
	buf := []byte("GET / HTTP/1.1\r\nA: 1\r\nB: 2\r\n\r\n")
	_, _, err := Parse(buf, make([]Field, 1))
	if err != ErrTooManyHeaders {
		t.Fatalf("got err=%v, want ErrTooManyHeaders", err)
	}
}

func TestParseHeaderValueTrimmed(t *testing.T) {
	buf := []byte("GET / HTTP/1.1\r\nX:   value with spaces  \r\n\r\n")
	res, _, err := Parse(buf, make([]Field, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(res.Headers[0].Value, []byte("value with spaces")) {
		t.Errorf("value = %q", res.Headers[0].Value)
	}
}
