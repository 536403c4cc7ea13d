// Package filterengine implements FilterEngine (component C6): it
// compiles include/exclude glob lists into a composite matcher with
// exclusion-wins precedence, per §4.6.
package filterengine

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ConfigError is returned when a pattern is not valid glob syntax.
// Per §4.6, unknown pattern syntax must fail at compile time, never
// silently match nothing.
type ConfigError struct {
	Pattern string
	Reason  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("filterengine: invalid pattern %q: %v", e.Pattern, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Reason }

// Filter is a compiled include/exclude matcher.
type Filter struct {
	include []string
	exclude []string
}

// Compile validates and compiles include/exclude glob lists. An empty
// include list means "include all"; an empty exclude list means
// "exclude none".
func Compile(include, exclude []string) (*Filter, error) {
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, &ConfigError{Pattern: p, Reason: errInvalidGlob}
		}
	}

	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, &ConfigError{Pattern: p, Reason: errInvalidGlob}
		}
	}

	return &Filter{include: include, exclude: exclude}, nil
}

var errInvalidGlob = fmt.Errorf("unsupported glob syntax")

// Match reports whether relPath — already relative to the comparison
// root — should be included, per the precedence rule of §4.6:
// exclusion wins; an empty include set means include-all.
func (f *Filter) Match(relPath string) bool {
	normalized := normalize(relPath)

	for _, p := range f.exclude {
		if matches(p, normalized) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for _, p := range f.include {
		if matches(p, normalized) {
			return true
		}
	}

	return false
}

func matches(pattern, name string) bool {
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(name))
	if err != nil {
		return false
	}

	return ok
}

func normalize(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}
