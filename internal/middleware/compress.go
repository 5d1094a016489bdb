package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// compressMinBytes is the smallest response body worth compressing.
// Leaderboard and question payloads easily exceed it; tiny envelopes
// are cheaper to send as-is.
const compressMinBytes = 1024

// compressWriter buffers the response until it is large enough to be worth
// compressing, then switches to the brotli stream. Small responses fall
// through uncompressed in flushPlain.
type compressWriter struct {
	gin.ResponseWriter
	br        *brotli.Writer
	pending   []byte
	streaming bool
}

func (w *compressWriter) Write(data []byte) (int, error) {
	if w.streaming {
		return w.br.Write(data)
	}
	w.pending = append(w.pending, data...)
	if len(w.pending) < compressMinBytes {
		return len(data), nil
	}

	w.Header().Set("Content-Encoding", "br")
	w.Header().Del("Content-Length")
	w.streaming = true
	_, err := w.br.Write(w.pending)
	w.pending = nil
	return len(data), err
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// flushPlain writes out a body that never crossed the compression threshold.
func (w *compressWriter) flushPlain() error {
	if len(w.pending) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.pending)
	w.pending = nil
	return err
}

// Compress serves brotli-encoded responses to clients that accept them.
// WebSocket upgrades pass through untouched since the handshake breaks if
// the response is wrapped.
func Compress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		cw := &compressWriter{
			ResponseWriter: c.Writer,
			br:             brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		c.Writer = cw

		defer func() {
			if err := cw.flushPlain(); err != nil {
				_ = c.Error(err)
			}
			if cw.streaming {
				_ = cw.br.Close()
			}
		}()
		c.Next()
	}
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
