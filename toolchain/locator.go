package toolchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonwraymond/bingen/process"
)

// Locator discovers a Toolchain by running a chain of strategies.
//
// A Locator caches PATH lookups for its lifetime; create a new Locator to
// observe PATH changes.
type Locator struct {
	cfg Config

	mu    sync.Mutex
	paths map[string]lookup
}

type lookup struct {
	path string
	err  error
}

// NewLocator creates a Locator with the given configuration.
// Returns ErrConfiguration if the configuration is invalid.
func NewLocator(cfg Config) (*Locator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Locator{
		cfg:   cfg,
		paths: make(map[string]lookup),
	}, nil
}

// Locate runs the strategy chain and returns the first toolchain found.
//
// Strategies that do not apply are recorded and passed over. The first
// strategy that applies decides: its toolchain is returned, or its failure
// ends discovery. Either way a failed discovery is a *DiscoveryError.
func (l *Locator) Locate(ctx context.Context) (Toolchain, error) {
	var attempts []Attempt
	for _, s := range l.cfg.Strategies {
		if err := ctx.Err(); err != nil {
			return Toolchain{}, err
		}

		tc, err := s.Locate(ctx, l)
		if err == nil {
			err = tc.Validate()
		}
		if err == nil {
			if tc.Source == "" {
				tc.Source = s.Name()
			}
			l.info("toolchain located",
				"strategy", s.Name(),
				"compiler", tc.Compiler,
				"objcopy", tc.ObjCopy)
			return tc, nil
		}

		attempts = append(attempts, Attempt{Strategy: s.Name(), Err: err})
		if errors.Is(err, errSkipped) {
			continue
		}
		l.error("toolchain strategy failed", "strategy", s.Name(), "error", err)
		return Toolchain{}, &DiscoveryError{Attempts: attempts}
	}
	return Toolchain{}, &DiscoveryError{Attempts: attempts}
}

// LookPath resolves an executable, caching both hits and misses.
func (l *Locator) LookPath(name string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.paths[name]; ok {
		return r.path, r.err
	}
	path, err := l.cfg.LookPath(name)
	l.paths[name] = lookup{path: path, err: err}
	return path, err
}

// Getenv reads an environment variable through the configured lookup.
// Variables set to the empty string are treated as unset.
func (l *Locator) Getenv(key string) (string, bool) {
	v, ok := l.cfg.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Query runs a discovery helper and returns its trimmed stdout.
// The helper is resolved with LookPath first.
func (l *Locator) Query(ctx context.Context, name string, args ...string) (string, error) {
	path, err := l.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	spec := process.Spec{Path: path, Args: args}
	res, err := l.cfg.Runner.Run(ctx, spec)
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", fmt.Errorf("%s returned %d. stderr:\n%s", spec, res.ExitCode, res.Stderr)
	}
	out := strings.TrimSpace(string(res.Stdout))
	if out == "" {
		return "", fmt.Errorf("%s printed nothing", spec)
	}
	return out, nil
}

// Versions returns the configured version suffixes.
func (l *Locator) Versions() []int {
	return l.cfg.Versions
}

// GOOS returns the host OS the locator was configured for.
func (l *Locator) GOOS() string {
	return l.cfg.GOOS
}

func (l *Locator) info(msg string, args ...any) {
	if l.cfg.Logger != nil {
		l.cfg.Logger.Info(msg, args...)
	}
}

func (l *Locator) error(msg string, args ...any) {
	if l.cfg.Logger != nil {
		l.cfg.Logger.Error(msg, args...)
	}
}

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Locate is a convenience wrapper that builds a Locator from cfg and runs it.
func Locate(ctx context.Context, cfg Config) (Toolchain, error) {
	l, err := NewLocator(cfg)
	if err != nil {
		return Toolchain{}, err
	}
	return l.Locate(ctx)
}
