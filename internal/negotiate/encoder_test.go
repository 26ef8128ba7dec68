package negotiate

import (
	"bytes"
	"compress/flate"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func roundTrip(t *testing.T, name string, decode func(io.Reader) (io.ReadCloser, error)) {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(name, &buf)
	if err != nil {
		t.Fatalf("NewEncoder(%q): %v", name, err)
	}
	if _, err := enc.Write([]byte("hello, world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello, world" {
		t.Fatalf("got %q, want %q", got, "hello, world")
	}
}

func TestNewEncoderGzip(t *testing.T) {
	roundTrip(t, "gzip", func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	})
}

func TestNewEncoderZstd(t *testing.T) {
	roundTrip(t, "zstd", func(r io.Reader) (io.ReadCloser, error) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	})
}

func TestNewEncoderBrotli(t *testing.T) {
	roundTrip(t, "br", func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(brotli.NewReader(r)), nil
	})
}

func TestNewEncoderDeflate(t *testing.T) {
	roundTrip(t, "deflate", func(r io.Reader) (io.ReadCloser, error) {
		return flate.NewReader(r), nil
	})
}

func TestNewEncoderUnsupported(t *testing.T) {
	if _, err := NewEncoder("bogus", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unsupported encoding")
	}
}
