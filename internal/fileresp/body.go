package fileresp

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"github.com/caddyserver/staticweb/internal/fsys"
)

// sectionCloser adapts an io.SectionReader over an open fsys.File so the
// caller still closes the underlying file descriptor once the range has
// been fully read.
type sectionCloser struct {
	*io.SectionReader
	f fsys.File
}

func (s sectionCloser) Close() error { return s.f.Close() }

// singleRangeBody returns the body for a single satisfiable byte range.
func singleRangeBody(f fsys.File, r ByteRange) io.ReadCloser {
	return sectionCloser{io.NewSectionReader(f, r.Start, r.length()), f}
}

// multiRangeBody streams a multipart/byteranges body for two or more
// ranges, per §4.7. Parts are written to an io.Pipe by a
// background goroutine so large responses are never buffered whole in
// memory, mirroring the streaming style Caddy uses for static file
// bodies elsewhere in the pipeline.
func multiRangeBody(f fsys.File, ranges []ByteRange, contentType string, size int64) (body io.ReadCloser, boundary string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	boundary = mw.Boundary()

	go func() {
		defer f.Close()
		var err error
		for _, r := range ranges {
			header := textproto.MIMEHeader{}
			if contentType != "" {
				header.Set("Content-Type", contentType)
			}
			header.Set("Content-Range", r.contentRange(size))

			var part io.Writer
			part, err = mw.CreatePart(header)
			if err != nil {
				break
			}
			sr := io.NewSectionReader(f, r.Start, r.length())
			if _, err = io.Copy(part, sr); err != nil {
				break
			}
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, boundary
}

// MultipartContentType returns the Content-Type header value for a
// multipart/byteranges response with the given boundary.
func MultipartContentType(boundary string) string {
	return fmt.Sprintf("multipart/byteranges; boundary=%s", boundary)
}
