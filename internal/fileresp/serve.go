package fileresp

import (
	"io"
	"net/http"
	"strconv"

	"github.com/caddyserver/staticweb/internal/fsys"
	"github.com/caddyserver/staticweb/internal/respond"
)

// Request carries everything Serve needs from the inbound HTTP request.
type Request struct {
	Method      string
	Conditional Conditional
	RangeHeader string
	// CompressionApplied is true when the negotiation stage chose an
	// on-the-fly encoding. Per §9's decision, Range is disabled in
	// that case because byte offsets would be taken against the encoded
	// stream, not the identity representation the offsets describe.
	CompressionApplied bool
}

// Result is the outcome of serving a single representation: either a
// terminal status with no body (304/412/416) or a status plus streaming
// body and the headers that must accompany it.
type Result struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
	Length int64 // -1 when unknown (a streamed multipart/byteranges body)
}

// Serve opens resolvedPath, computes its validator, evaluates conditional
// headers, applies Range if applicable, and returns the fully-formed
// Result. The caller is responsible for merging Result.Header into the
// response and copying Result.Body to the client (or discarding it
// unread and closing it for HEAD requests).
func Serve(filesystem fsys.Filesystem, resolvedPath string, contentType string, req Request) (Result, error) {
	info, err := filesystem.Stat(resolvedPath)
	if err != nil {
		return Result{}, err
	}

	v := ComputeValidator(info)
	header := http.Header{}
	SetValidators(header, v)
	header.Set("Accept-Ranges", "bytes")

	kind, ignoreRange := Evaluate(req.Conditional, v)
	if kind == respond.NotModified {
		return Result{Status: kind.Status(), Header: header, Length: 0}, nil
	}
	if kind == respond.PreconditionFailed {
		return Result{Status: kind.Status(), Header: header, Length: 0}, nil
	}

	if req.Method == http.MethodHead {
		header.Set("Content-Type", contentType)
		header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		return Result{Status: http.StatusOK, Header: header, Length: info.Size()}, nil
	}

	f, err := filesystem.Open(resolvedPath)
	if err != nil {
		return Result{}, err
	}

	useRange := req.RangeHeader != "" && !ignoreRange && !req.CompressionApplied
	if !useRange {
		header.Set("Content-Type", contentType)
		header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		return Result{Status: http.StatusOK, Header: header, Body: f, Length: info.Size()}, nil
	}

	ranges, unsatisfiable := ParseRange(req.RangeHeader, info.Size())
	if unsatisfiable {
		f.Close()
		header.Set("Content-Range", "bytes */"+strconv.FormatInt(info.Size(), 10))
		return Result{Status: respond.RangeNotSatisfiable.Status(), Header: header, Length: 0}, nil
	}
	if ranges == nil {
		// malformed Range header: ignore it and serve the full body
		header.Set("Content-Type", contentType)
		header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		return Result{Status: http.StatusOK, Header: header, Body: f, Length: info.Size()}, nil
	}

	if len(ranges) == 1 {
		r := ranges[0]
		header.Set("Content-Type", contentType)
		header.Set("Content-Range", r.contentRange(info.Size()))
		header.Set("Content-Length", strconv.FormatInt(r.length(), 10))
		return Result{
			Status: http.StatusPartialContent,
			Header: header,
			Body:   singleRangeBody(f, r),
			Length: r.length(),
		}, nil
	}

	body, boundary := multiRangeBody(f, ranges, contentType, info.Size())
	header.Set("Content-Type", MultipartContentType(boundary))
	header.Del("Content-Length") // length of a streamed multipart body is not known up front
	return Result{
		Status: http.StatusPartialContent,
		Header: header,
		Body:   body,
		Length: -1,
	}, nil
}
