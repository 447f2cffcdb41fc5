package minihttp

import (
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/bytebufferpool"
)

// CompressionConfig enables transparent response-body compression.
// Compression always runs over the handler's fully-buffered Response
// body and recomputes Content-Length afterward — it never interacts
// with chunked transfer-encoding, which this core does not implement.
type CompressionConfig struct {
	// GzipLevel is passed to gzip.NewWriterLevel. Zero means
	// gzip.DefaultCompression.
	GzipLevel int

	// BrotliQuality is passed to brotli's writer options. Zero means
	// brotli's default quality.
	BrotliQuality int
}

// negotiate picks a content-coding from acceptEncoding using a
// first-match-wins scan of the standard preference order, mirroring the
// simple substring matching fasthttp's own compression handling uses
// (see its fs.go) rather than a full RFC 7231 weighted Accept-Encoding
// parse.
func (c *CompressionConfig) negotiate(acceptEncoding string) string {
	if c == nil || acceptEncoding == "" {
		return ""
	}
	lower := strings.ToLower(acceptEncoding)
	switch {
	case strings.Contains(lower, "br"):
		return "br"
	case strings.Contains(lower, "gzip"):
		return "gzip"
	default:
		return ""
	}
}

// apply compresses resp.Body in place according to acceptEncoding,
// setting Content-Encoding when applied. It is a no-op if Compression is
// nil, the body is empty, or no supported coding was requested.
func (c *CompressionConfig) apply(resp *Response, acceptEncoding string) {
	coding := c.negotiate(acceptEncoding)
	if coding == "" || len(resp.Body) == 0 {
		return
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	switch coding {
	case "gzip":
		level := c.GzipLevel
		if level == 0 {
			level = gzip.DefaultCompression
		}
		w, err := gzip.NewWriterLevel(buf, level)
		if err != nil {
			return
		}
		if _, err := w.Write(resp.Body); err != nil {
			return
		}
		if err := w.Close(); err != nil {
			return
		}
	case "br":
		quality := c.BrotliQuality
		if quality == 0 {
			quality = brotli.DefaultCompression
		}
		w := brotli.NewWriterLevel(buf, quality)
		if _, err := w.Write(resp.Body); err != nil {
			return
		}
		if err := w.Close(); err != nil {
			return
		}
	}

	compressed := make([]byte, buf.Len())
	copy(compressed, buf.B)
	resp.Body = compressed
	resp.Header.Set("Content-Encoding", coding)
}
