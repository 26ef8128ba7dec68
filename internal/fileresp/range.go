package fileresp

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is an inclusive, resolved byte range within a representation
// of size Size.
type ByteRange struct {
	Start, End int64 // inclusive
}

func (r ByteRange) length() int64 { return r.End - r.Start + 1 }

func (r ByteRange) contentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange parses a Range header's bytes=... unit against a
// representation of the given size, per §4.7. It returns the
// resolved ranges in request order; overlapping ranges are neither merged
// nor rejected. unsatisfiable is true when no requested range is
// satisfiable (each starts at or beyond size, or is a "-0" suffix), in which case
// the caller must answer 416 with a Content-Range of "bytes */size". A nil
// ranges slice with unsatisfiable false means there was no usable Range
// header and the whole representation should be served.
func ParseRange(header string, size int64) (ranges []ByteRange, unsatisfiable bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) || size <= 0 {
		return nil, false
	}
	specs := strings.Split(header[len(prefix):], ",")

	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		dash := strings.IndexByte(spec, '-')
		if dash < 0 {
			return nil, false // malformed: ignore Range entirely
		}
		startStr, endStr := spec[:dash], spec[dash+1:]

		var start, end int64
		switch {
		case startStr == "" && endStr == "":
			return nil, false
		case startStr == "":
			// suffix range: last N bytes
			n, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil || n < 0 {
				return nil, false
			}
			if n == 0 {
				continue // "-0" requests zero bytes; drop this spec
			}
			if n > size {
				n = size
			}
			start = size - n
			end = size - 1
		case endStr == "":
			s, err := strconv.ParseInt(startStr, 10, 64)
			if err != nil || s < 0 {
				return nil, false
			}
			if s >= size {
				continue // unsatisfiable on its own; tracked below
			}
			start = s
			end = size - 1
		default:
			s, err1 := strconv.ParseInt(startStr, 10, 64)
			e, err2 := strconv.ParseInt(endStr, 10, 64)
			if err1 != nil || err2 != nil || s < 0 || s > e {
				return nil, false
			}
			if s >= size {
				continue
			}
			start = s
			end = e
			if end >= size {
				end = size - 1
			}
		}
		ranges = append(ranges, ByteRange{Start: start, End: end})
	}

	if len(ranges) == 0 {
		return nil, true
	}
	return ranges, false
}
