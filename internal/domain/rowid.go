package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// numericSuffix is the artifact left behind when a numeric cell is serialised
// to text (101 becomes "101.0").
const numericSuffix = ".0"

// NormalizeID converts a raw identifier cell into its canonical comparison key.
//
// Spreadsheet cells arrive as text, as numbers serialised with a trailing
// ".0", or padded with whitespace. All of "101", "101.0", " 101 " and 101
// normalize to "101". A nil, empty or whitespace-only value normalizes to "",
// which callers must never treat as a match target.
//
// NormalizeID is idempotent: the suffix is stripped until none remains, so a
// second pass never changes the result.
func NormalizeID(raw any) string {
	var s string
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		s = v
	case *string:
		if v == nil {
			return ""
		}
		s = *v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		s = fmt.Sprint(v)
	}

	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, numericSuffix) {
		s = strings.TrimSpace(strings.TrimSuffix(s, numericSuffix))
	}
	return s
}
