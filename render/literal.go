package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned for unknown format names.
var ErrInvalidFormat = errors.New("invalid format")

// Format selects the literal shape.
type Format int

const (
	// FormatList renders a bracketed decimal list.
	FormatList Format = iota

	// FormatSlice renders a Go []byte composite literal.
	FormatSlice

	// FormatArray renders a Go fixed-size array composite literal.
	FormatArray
)

func (f Format) String() string {
	switch f {
	case FormatList:
		return "list"
	case FormatSlice:
		return "slice"
	case FormatArray:
		return "array"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseFormat parses "list", "slice" or "array".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "list":
		return FormatList, nil
	case "", "slice":
		return FormatSlice, nil
	case "array":
		return FormatArray, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Literal renders b on a single line.
func Literal(b []byte, f Format) string {
	switch f {
	case FormatList:
		return "[" + join(b, decimal) + "]"
	case FormatArray:
		return "[" + strconv.Itoa(len(b)) + "]byte{" + join(b, hex) + "}"
	default:
		return "[]byte{" + join(b, hex) + "}"
	}
}

// Hex renders b as contiguous lowercase hex digits.
func Hex(b []byte) string {
	var sb strings.Builder
	sb.Grow(2 * len(b))
	for _, c := range b {
		sb.WriteString(hex(c)[2:])
	}
	return sb.String()
}

func decimal(c byte) string { return strconv.Itoa(int(c)) }

func hex(c byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{'0', 'x', digits[c>>4], digits[c&0xf]})
}

func join(b []byte, elem func(byte) string) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = elem(c)
	}
	return strings.Join(parts, ", ")
}
