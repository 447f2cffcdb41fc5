package minihttp

import (
	"bytes"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

func TestCompressionConfigNegotiate(t *testing.T) {
	c := &CompressionConfig{}
	cases := map[string]string{
		"gzip, deflate, br": "br",
		"gzip":               "gzip",
		"identity":           "",
		"":                   "",
	}
	for accept, want := range cases {
		if got := c.negotiate(accept); got != want {
			t.Errorf("negotiate(%q) = %q, want %q", accept, got, want)
		}
	}
}

func TestCompressionConfigNilIsNoop(t *testing.T) {
	var c *CompressionConfig
	resp := NewResponse(200, []byte("hello"))
	c.apply(resp, "gzip")
	if string(resp.Body) != "hello" {
		t.Errorf("nil CompressionConfig must not alter the body")
	}
}

func TestCompressionConfigAppliesGzip(t *testing.T) {
	c := &CompressionConfig{}
	resp := NewResponse(200, []byte("hello world"))
	c.apply(resp, "gzip")

	if resp.Header.Get("content-encoding") != "gzip" {
		t.Fatalf("expected Content-Encoding: gzip, got %q", resp.Header.Get("content-encoding"))
	}

	r, err := gzip.NewReader(bytes.NewReader(resp.Body))
	if err != nil {
		t.Fatalf("body is not valid gzip: %v", err)
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if out.String() != "hello world" {
		t.Errorf("decompressed = %q, want %q", out.String(), "hello world")
	}
}

func TestCompressionConfigAppliesBrotli(t *testing.T) {
	c := &CompressionConfig{}
	resp := NewResponse(200, []byte("hello world"))
	c.apply(resp, "br")

	if resp.Header.Get("content-encoding") != "br" {
		t.Fatalf("expected Content-Encoding: br, got %q", resp.Header.Get("content-encoding"))
	}

	r := brotli.NewReader(bytes.NewReader(resp.Body))
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if out.String() != "hello world" {
		t.Errorf("decompressed = %q, want %q", out.String(), "hello world")
	}
}

func TestCompressionConfigSkipsEmptyBody(t *testing.T) {
	c := &CompressionConfig{}
	resp := NewResponse(200, nil)
	c.apply(resp, "gzip")
	if resp.Header.Get("content-encoding") != "" {
		t.Errorf("empty body must not be compressed")
	}
}
