package render

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidName is returned when a snippet name cannot become a Go
// identifier.
var ErrInvalidName = errors.New("invalid name")

// bytesPerLine is the wrap width for byte lists in generated files.
const bytesPerLine = 16

// Entry is one assembled snippet.
type Entry struct {
	Name   string
	Triple string
	Source string
	Bytes  []byte
}

// File describes a generated Go source file.
type File struct {
	// Package is the Go package clause.
	Package string

	// Generator names the program in the "Code generated" header.
	// Default: "bingen"
	Generator string

	// Format is FormatSlice or FormatArray. FormatList is not Go syntax
	// and is rejected.
	Format Format

	Entries []Entry
}

// Identifier maps a snippet name to an exported Go identifier. A name that
// is already an identifier keeps its spelling with the first rune upper-cased,
// so "mrs_x0" becomes "Mrs_x0" and "init" becomes "Init". Anything else is
// split on non-alphanumeric runes and title-cased piecewise, so "mrs-x0-dbg"
// becomes "MrsX0Dbg". Results that still cannot be exported, such as those
// starting with a digit, get an "Asm" prefix.
func Identifier(name string) (string, error) {
	var id string
	if token.IsIdentifier(name) {
		r, size := utf8.DecodeRuneInString(name)
		id = string(unicode.ToUpper(r)) + name[size:]
	}
	if token.IsExported(id) {
		return id, nil
	}

	caser := cases.Title(language.Und, cases.NoLower)
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}
	id = b.String()
	if id == "" {
		return "", fmt.Errorf("%w: %q has no letters or digits", ErrInvalidName, name)
	}
	if !token.IsExported(id) {
		id = "Asm" + id
	}
	if !token.IsIdentifier(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return id, nil
}

// Render produces gofmt-formatted Go source.
func (f File) Render() ([]byte, error) {
	if !token.IsIdentifier(f.Package) {
		return nil, fmt.Errorf("%w: package %q", ErrInvalidName, f.Package)
	}
	if f.Format != FormatSlice && f.Format != FormatArray {
		return nil, fmt.Errorf("%w: %s is not Go syntax", ErrInvalidFormat, f.Format)
	}
	generator := f.Generator
	if generator == "" {
		generator = "bingen"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by %s. DO NOT EDIT.\n\n", generator)
	fmt.Fprintf(&buf, "package %s\n", f.Package)

	seen := make(map[string]string, len(f.Entries))
	for _, e := range f.Entries {
		id, err := Identifier(e.Name)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %q and %q both map to %s", ErrInvalidName, prev, e.Name, id)
		}
		seen[id] = e.Name

		buf.WriteString("\n")
		fmt.Fprintf(&buf, "// %s holds the %s encoding of:\n//\n", id, e.Triple)
		for _, line := range strings.Split(strings.TrimRight(e.Source, "\n"), "\n") {
			if strings.TrimSpace(line) == "" {
				buf.WriteString("//\n")
				continue
			}
			fmt.Fprintf(&buf, "//\t%s\n", strings.TrimRight(line, " \t\r"))
		}
		fmt.Fprintf(&buf, "var %s = %s\n", id, f.composite(e.Bytes))
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return out, nil
}

func (f File) composite(b []byte) string {
	typ := "[]byte"
	if f.Format == FormatArray {
		typ = "[" + strconv.Itoa(len(b)) + "]byte"
	}
	if len(b) <= bytesPerLine {
		return typ + "{" + join(b, hex) + "}"
	}

	var sb strings.Builder
	sb.WriteString(typ + "{\n")
	for i := 0; i < len(b); i += bytesPerLine {
		end := min(i+bytesPerLine, len(b))
		sb.WriteString("\t" + join(b[i:end], hex) + ",\n")
	}
	sb.WriteString("}")
	return sb.String()
}
