package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

// Environment variables that override discovery.
const (
	EnvClangPath   = "BINGEN_CLANG_PATH"
	EnvObjCopyPath = "BINGEN_OBJCOPY_PATH"
)

// Sentinel errors for discovery failures.
var (
	// ErrNotFound indicates that no strategy produced a usable toolchain.
	ErrNotFound = errors.New("toolchain not found")

	// ErrPartialOverride indicates that only one of the two override
	// variables is set.
	ErrPartialOverride = errors.New("partial toolchain override")

	// ErrConfiguration indicates an invalid locator configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Toolchain holds the resolved tool paths.
type Toolchain struct {
	// Compiler is the clang-compatible compiler front end.
	Compiler string

	// ObjCopy is the object-copy utility.
	ObjCopy string

	// Source names the strategy that produced this toolchain.
	Source string
}

// Validate reports whether both paths are set.
func (t Toolchain) Validate() error {
	var missing []string
	if t.Compiler == "" {
		missing = append(missing, "Compiler")
	}
	if t.ObjCopy == "" {
		missing = append(missing, "ObjCopy")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

func (t Toolchain) String() string {
	return fmt.Sprintf("compiler=%s objcopy=%s (%s)", t.Compiler, t.ObjCopy, t.Source)
}

// Attempt records one failed strategy.
type Attempt struct {
	Strategy string
	Err      error
}

// DiscoveryError reports why no toolchain was found.
type DiscoveryError struct {
	Attempts []Attempt
}

// Error enumerates every attempted strategy.
func (e *DiscoveryError) Error() string {
	if len(e.Attempts) == 0 {
		return "toolchain not found: no strategies configured"
	}
	var b strings.Builder
	b.WriteString("toolchain not found:")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %v", a.Strategy, a.Err)
	}
	return b.String()
}

// Unwrap returns the per-strategy errors.
func (e *DiscoveryError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Is reports whether target is ErrNotFound.
func (e *DiscoveryError) Is(target error) bool {
	return target == ErrNotFound
}
