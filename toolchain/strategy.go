package toolchain

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// Base tool names.
const (
	ClangName   = "clang"
	ObjCopyName = "llvm-objcopy"
)

// errSkipped marks a strategy that did not apply, as opposed to one that
// applied and failed.
var errSkipped = errors.New("skipped")

// Strategy is one way of discovering a toolchain.
//
// Contract:
// - Context: Locate must honor cancellation for any helper process it runs.
// - Errors: wrap errSkipped when the strategy does not apply on this host
// (its inputs are absent) so the next strategy runs. Any other error stops
// the chain.
type Strategy interface {
	Name() string
	Locate(ctx context.Context, l *Locator) (Toolchain, error)
}

// EnvOverride reads both tool paths from the environment.
type EnvOverride struct{}

func (EnvOverride) Name() string { return "env" }

// Locate returns the override paths verbatim when both variables are set.
func (EnvOverride) Locate(_ context.Context, l *Locator) (Toolchain, error) {
	clang, hasClang := l.Getenv(EnvClangPath)
	objcopy, hasObjCopy := l.Getenv(EnvObjCopyPath)
	switch {
	case hasClang && hasObjCopy:
		return Toolchain{Compiler: clang, ObjCopy: objcopy}, nil
	case hasClang:
		return Toolchain{}, fmt.Errorf("%w: %s is set but %s is not", ErrPartialOverride, EnvClangPath, EnvObjCopyPath)
	case hasObjCopy:
		return Toolchain{}, fmt.Errorf("%w: %s is set but %s is not", ErrPartialOverride, EnvObjCopyPath, EnvClangPath)
	default:
		return Toolchain{}, fmt.Errorf("%w: %s and %s are unset", errSkipped, EnvClangPath, EnvObjCopyPath)
	}
}

// BrewPrefix asks Homebrew where its llvm formula is installed.
type BrewPrefix struct {
	// Formula defaults to "llvm".
	Formula string
}

func (BrewPrefix) Name() string { return "brew" }

// Locate derives both tools from `brew --prefix <formula>`. A missing or
// failing brew is an error, not a skip.
func (b BrewPrefix) Locate(ctx context.Context, l *Locator) (Toolchain, error) {
	formula := b.Formula
	if formula == "" {
		formula = "llvm"
	}
	prefix, err := l.Query(ctx, "brew", "--prefix", formula)
	if err != nil {
		return Toolchain{}, err
	}
	bin := filepath.Join(prefix, "bin")
	return Toolchain{
		Compiler: filepath.Join(bin, ClangName),
		ObjCopy:  filepath.Join(bin, ObjCopyName),
	}, nil
}

// PathProbe searches PATH for unversioned and versioned tool names.
type PathProbe struct{}

func (PathProbe) Name() string { return "path" }

// Locate tries candidate pairs in order and returns the first pair where
// both names resolve.
func (PathProbe) Locate(_ context.Context, l *Locator) (Toolchain, error) {
	compilers := Candidates(ClangName, l.Versions())
	objcopies := Candidates(ObjCopyName, l.Versions())
	for i := range compilers {
		clang, err := l.LookPath(compilers[i])
		if err != nil {
			continue
		}
		objcopy, err := l.LookPath(objcopies[i])
		if err != nil {
			continue
		}
		return Toolchain{Compiler: clang, ObjCopy: objcopy}, nil
	}
	return Toolchain{}, fmt.Errorf("%w: no %s/%s pair on PATH (tried %d spellings)", errSkipped, ClangName, ObjCopyName, len(compilers))
}

// Candidates returns base followed by base-v, base-v.0 and base-v0 for each
// version, in the given order.
func Candidates(base string, versions []int) []string {
	out := make([]string, 0, 1+3*len(versions))
	out = append(out, base)
	for _, v := range versions {
		s := strconv.Itoa(v)
		out = append(out, base+"-"+s, base+"-"+s+".0", base+"-"+s+"0")
	}
	return out
}

// LLVMConfig asks llvm-config for the LLVM binary directory.
type LLVMConfig struct {
	// Program defaults to "llvm-config".
	Program string
}

func (LLVMConfig) Name() string { return "llvm-config" }

// Locate derives both tools from `llvm-config --bindir` and checks that
// they exist. It is skipped when the program is not on PATH.
func (c LLVMConfig) Locate(ctx context.Context, l *Locator) (Toolchain, error) {
	program := c.Program
	if program == "" {
		program = "llvm-config"
	}
	if _, err := l.LookPath(program); err != nil {
		return Toolchain{}, fmt.Errorf("%w: %v", errSkipped, err)
	}
	bindir, err := l.Query(ctx, program, "--bindir")
	if err != nil {
		return Toolchain{}, err
	}
	return fromDir(l, bindir, filepath.Join(bindir, ClangName))
}

// Sibling resolves a single compiler name and takes llvm-objcopy from the
// compiler's real directory.
type Sibling struct {
	Compiler string
}

func (Sibling) Name() string { return "sibling" }

// Locate resolves s.Compiler, follows symlinks, and looks for llvm-objcopy
// next to it.
func (s Sibling) Locate(_ context.Context, l *Locator) (Toolchain, error) {
	if s.Compiler == "" {
		return Toolchain{}, fmt.Errorf("%w: no compiler name", errSkipped)
	}
	clang, err := l.LookPath(s.Compiler)
	if err != nil {
		return Toolchain{}, fmt.Errorf("%w: %v", errSkipped, err)
	}
	resolved, err := l.cfg.EvalSymlinks(clang)
	if err != nil {
		return Toolchain{}, err
	}
	return fromDir(l, filepath.Dir(resolved), clang)
}

func fromDir(l *Locator, dir, compiler string) (Toolchain, error) {
	if _, err := l.LookPath(compiler); err != nil {
		return Toolchain{}, err
	}
	objcopy, err := l.LookPath(filepath.Join(dir, ObjCopyName))
	if err != nil {
		return Toolchain{}, err
	}
	return Toolchain{Compiler: compiler, ObjCopy: objcopy}, nil
}
