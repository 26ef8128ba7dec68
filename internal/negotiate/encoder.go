package negotiate

import (
	"compress/flate"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Encoder is a resettable stream encoder, matching the shape Caddy's
// encode module pools (gzip.Writer, zstd.Encoder, brotli.Writer all
// satisfy it).
type Encoder interface {
	io.WriteCloser
	Reset(io.Writer)
}

// NewEncoder constructs a fresh encoder for the named on-the-fly encoding.
// Grounded on Caddy's own per-algorithm encoder modules
// (modules/caddyhttp/encode/{gzip,zstd,brotli}): klauspost/compress for
// gzip and zstd, andybalholm/brotli for br. No library in the retrieved
// corpus offers a third-party deflate encoder, so deflate falls back to
// the standard library's compress/flate (see DESIGN.md).
func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "gzip":
		gz, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
		if err != nil {
			return nil, err
		}
		return gz, nil
	case "zstd":
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return &zstdEncoder{enc}, nil
	case "br":
		return brotli.NewWriter(w), nil
	case "deflate":
		fw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		return &flateEncoder{fw}, nil
	default:
		return nil, fmt.Errorf("negotiate: unsupported encoding %q", name)
	}
}

// zstdEncoder wraps *zstd.Encoder; its Reset forwards to the encoder's own
// single-argument Reset.
type zstdEncoder struct{ *zstd.Encoder }

func (z *zstdEncoder) Reset(w io.Writer) { z.Encoder.Reset(w) }

// flateEncoder adapts *flate.Writer, whose Reset takes an io.Writer, to
// Encoder; flate.Writer already matches the interface directly, but is
// wrapped for symmetry and so a future pooled Reset can be added in one
// place.
type flateEncoder struct{ *flate.Writer }

func (f *flateEncoder) Reset(w io.Writer) { f.Writer.Reset(w) }
