// Package directive parses bingen directives from Go source files.
//
// A directive is a line comment of the form
//
//	//bingen:asm <name> <triple> <assembly>
//
// where <assembly> is a Go string literal, interpreted or raw:
//
//	//bingen:asm mrsDbg aarch64-linux-eabi "mrs x0, DBGDTR_EL0"
//	//bingen:asm twoMovs aarch64-linux-eabi "mov x0, 40\nmov x1, 41"
//
// Each directive becomes one generated variable.
package directive

import (
	"bufio"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prefix starts every directive comment.
const Prefix = "//bingen:"

// ErrSyntax is matched by every *SyntaxError.
var ErrSyntax = errors.New("directive syntax error")

// Position locates a directive in its source file.
type Position struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based, byte offset of the directive's "//"
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// SyntaxError reports a malformed directive.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Directive is one parsed //bingen:asm line.
type Directive struct {
	Name   string
	Triple string
	Source string
	Pos    Position
}

// File holds the directives found in one Go file.
type File struct {
	Package    string
	Directives []Directive
}

// ParseFile reads filename, taking the package name from its package clause.
func ParseFile(filename string) (File, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return File{}, err
	}
	f, err := parser.ParseFile(token.NewFileSet(), filename, src, parser.PackageClauseOnly)
	if err != nil {
		return File{}, err
	}
	ds, err := Parse(filename, strings.NewReader(string(src)))
	if err != nil {
		return File{}, err
	}
	return File{Package: f.Name.Name, Directives: ds}, nil
}

// Parse scans r for directives. Lines that do not begin (after leading
// whitespace) with Prefix are ignored. Names must be unique within r.
func Parse(filename string, r io.Reader) ([]Directive, error) {
	var out []Directive
	seen := make(map[string]Position)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		trimmed := strings.TrimLeft(text, " \t")
		if !strings.HasPrefix(trimmed, Prefix) {
			continue
		}
		pos := Position{Filename: filename, Line: line, Column: len(text) - len(trimmed) + 1}

		d, err := parseLine(strings.TrimPrefix(trimmed, Prefix), pos)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[d.Name]; dup {
			return nil, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("duplicate name %q (first defined at %s)", d.Name, prev)}
		}
		seen[d.Name] = pos
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return out, nil
}

func parseLine(rest string, pos Position) (Directive, error) {
	verb, args := nextField(rest)
	if verb != "asm" {
		return Directive{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unknown directive %q", Prefix+verb)}
	}

	args = strings.TrimRight(args, " \t")
	name, args := nextField(args)
	triple, args := nextField(args)
	if name == "" || triple == "" || args == "" {
		return Directive{}, &SyntaxError{Pos: pos, Msg: "want: " + Prefix + "asm <name> <triple> <quoted assembly>"}
	}

	lit, err := strconv.QuotedPrefix(args)
	if err != nil {
		return Directive{}, &SyntaxError{Pos: pos, Msg: "assembly must be a Go string literal: " + args}
	}
	if extra := strings.TrimSpace(args[len(lit):]); extra != "" {
		return Directive{}, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unexpected %q after assembly", extra)}
	}
	if lit[0] == '\'' {
		return Directive{}, &SyntaxError{Pos: pos, Msg: "assembly must be a string, not a rune literal"}
	}
	source, err := strconv.Unquote(lit)
	if err != nil {
		return Directive{}, &SyntaxError{Pos: pos, Msg: err.Error()}
	}

	return Directive{Name: name, Triple: triple, Source: source, Pos: pos}, nil
}

func nextField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}
