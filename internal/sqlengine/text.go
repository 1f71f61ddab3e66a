package sqlengine

import (
	"database/sql/driver"
	"math"
	"strconv"
	"strings"
)

// Row is one result row. A nil element is SQL NULL.
type Row []*string

// Strings returns the row with NULLs replaced by null.
func (r Row) Strings(null string) []string {
	out := make([]string, len(r))
	for i, v := range r {
		if v == nil {
			out[i] = null
		} else {
			out[i] = *v
		}
	}
	return out
}

// textOf coerces a column value to text the way the engine's text accessor
// does: integers and reals are formatted, blobs are read as bytes, and NULL
// has no text at all. Values arrive undecoded; see textView.
func textOf(v driver.Value) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case []byte:
		s = string(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case float64:
		s = formatReal(x)
	default:
		return nil
	}
	return &s
}

// formatReal renders f as SQLite does ("%!.15g"): integral reals keep a
// trailing ".0", and exponent forms keep a fractional mantissa.
func formatReal(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'g', 15, 64)
	mantissa, exp, hasExp := strings.Cut(s, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	if hasExp {
		return mantissa + "e" + exp
	}
	return mantissa
}

// int32Of coerces a column value to a 32-bit integer the way the engine's
// integer accessor does: wider integers are truncated, reals are cast, and
// text is parsed for a leading integer.
func int32Of(v driver.Value) int32 {
	switch x := v.(type) {
	case int64:
		return int32(x)
	case float64:
		return int32(int64(x))
	case string:
		return leadingInt32(x)
	case []byte:
		return leadingInt32(string(x))
	default:
		return 0
	}
}

func leadingInt32(s string) int32 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c == '-' || c == '+') && end == 0 {
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return int32(n)
}
