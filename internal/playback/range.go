package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is a byte window resolved against a concrete file size, inclusive on
// both ends the way Content-Range wants it.
type Range struct {
	Start int64
	End   int64
}

func (r Range) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r Range) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange resolves a Range header against the file size. An absent header
// is (nil, nil). Multi-range requests collapse to their first window; scrub
// players only ever ask for one.
func ParseRange(header string, size int64) (*Range, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	if first, _, multi := strings.Cut(spec, ","); multi {
		spec = strings.TrimSpace(first)
	}

	startPart, endPart, dashed := strings.Cut(spec, "-")
	if !dashed {
		return nil, ErrInvalidRange
	}

	var start, end int64
	if startPart == "" {
		// Suffix form: the last N bytes.
		suffixLen, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || suffixLen <= 0 {
			return nil, ErrInvalidRange
		}
		start = max(size-suffixLen, 0)
		end = size - 1
	} else {
		var err error
		start, err = strconv.ParseInt(startPart, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}
		if endPart == "" {
			end = size - 1
		} else {
			end, err = strconv.ParseInt(endPart, 10, 64)
			if err != nil {
				return nil, ErrInvalidRange
			}
		}
	}

	if start > end || start >= size {
		return nil, ErrUnsatisfiable
	}
	if end >= size {
		end = size - 1
	}
	return &Range{Start: start, End: end}, nil
}
