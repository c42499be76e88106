package toolchain

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/jonwraymond/bingen/process"
)

// Logger is the interface for logging.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort and must not panic.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config configures a Locator. Every field is optional.
type Config struct {
	// LookupEnv reads environment variables.
	// Default: os.LookupEnv
	LookupEnv func(key string) (string, bool)

	// LookPath resolves an executable name against PATH. Names containing a
	// path separator are checked directly.
	// Default: exec.LookPath
	LookPath func(file string) (string, error)

	// EvalSymlinks resolves symlinks for the Sibling strategy.
	// Default: filepath.EvalSymlinks
	EvalSymlinks func(path string) (string, error)

	// Runner executes discovery helpers such as brew and llvm-config.
	// Default: process.NewHostRunner()
	Runner process.Runner

	// GOOS selects the default strategy chain.
	// Default: runtime.GOOS
	GOOS string

	// Versions lists the versioned binary suffixes PathProbe tries, in
	// order of preference.
	// Default: DefaultVersions()
	Versions []int

	// Strategies overrides the default chain. EnvOverride is not added
	// implicitly when this is set.
	Strategies []Strategy

	// Logger is an optional logger for discovery events.
	Logger Logger
}

// DefaultVersions returns the LLVM major versions probed by default,
// newest first.
func DefaultVersions() []int {
	versions := make([]int, 0, 8)
	for v := 13; v >= 6; v-- {
		versions = append(versions, v)
	}
	return versions
}

// DefaultStrategies returns the strategy chain for a host OS: the
// environment override, then Homebrew on darwin or the PATH probe
// elsewhere. The host strategies are never combined; LLVMConfig and
// Sibling are only used when listed in Config.Strategies.
func DefaultStrategies(goos string) []Strategy {
	if goos == "darwin" {
		return []Strategy{EnvOverride{}, BrewPrefix{}}
	}
	return []Strategy{EnvOverride{}, PathProbe{}}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	for _, v := range c.Versions {
		if v <= 0 {
			return errorf("version %d must be positive", v)
		}
	}
	for i, s := range c.Strategies {
		if s == nil {
			return errorf("strategy %d is nil", i)
		}
	}
	return nil
}

// applyDefaults sets default values for unset optional fields.
func (c *Config) applyDefaults() {
	if c.LookupEnv == nil {
		c.LookupEnv = os.LookupEnv
	}
	if c.LookPath == nil {
		c.LookPath = exec.LookPath
	}
	if c.EvalSymlinks == nil {
		c.EvalSymlinks = filepath.EvalSymlinks
	}
	if c.Runner == nil {
		c.Runner = process.NewHostRunner()
	}
	if c.GOOS == "" {
		c.GOOS = runtime.GOOS
	}
	if len(c.Versions) == 0 {
		c.Versions = DefaultVersions()
	}
	if len(c.Strategies) == 0 {
		c.Strategies = DefaultStrategies(c.GOOS)
	}
}
