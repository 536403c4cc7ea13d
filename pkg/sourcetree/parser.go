package sourcetree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// ParseError is returned by a Parser when source text cannot be turned
// into a tree. It always wraps the underlying cause so callers can use
// errors.Is/errors.As against it.
type ParseError struct {
	Path   string
	Reason error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sourcetree: parse error: %v", e.Reason)
	}

	return fmt.Sprintf("sourcetree: parse error in %s: %v", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Reason }

// errUnsupportedLanguage is wrapped into a ParseError when no registered
// Parser claims the file's language hint.
var errUnsupportedLanguage = errors.New("no parser registered for language")

// Tree is the root of a parsed source file: its top-level declarations,
// plus the whitespace mode the caller should use when comparing bodies
// drawn from this tree.
type Tree struct {
	Path           string
	Language       string
	Roots          []Node
	WhitespaceMode wsengine.Mode
}

// Parser is the external contract every language front-end implements.
// The differ never parses text itself; it only calls through this
// interface, matching the Parser capability boundary in spec §1/§6.
type Parser interface {
	// Language returns the canonical language name this parser handles.
	Language() string
	// Extensions returns the lower-cased file extensions (including the
	// leading dot) this parser claims, e.g. ".cs".
	Extensions() []string
	// Parse converts source text into a Tree. langHint, when non-empty,
	// overrides extension-based dispatch.
	Parse(ctx context.Context, path string, content []byte, langHint string) (*Tree, error)
}

// Registry dispatches Parse calls to the Parser registered for a file's
// extension or explicit language hint, and falls back to a generic
// text parser for anything unrecognised, matching the "fallback: any
// text file" clause of spec §1.
type Registry struct {
	mu          sync.RWMutex
	byExtension map[string]Parser
	byLanguage  map[string]Parser
	fallback    Parser
}

// NewRegistry builds an empty registry. Callers Register() parsers into
// it and set a Fallback before first use.
func NewRegistry() *Registry {
	return &Registry{
		byExtension: make(map[string]Parser),
		byLanguage:  make(map[string]Parser),
	}
}

// Register adds p to the registry under every extension and language
// name it reports. A later Register for the same extension replaces the
// earlier one, so embedders can override defaults.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range p.Extensions() {
		r.byExtension[strings.ToLower(ext)] = p
	}

	r.byLanguage[strings.ToLower(p.Language())] = p
}

// SetFallback installs the parser used when no registered Parser claims
// a file's extension or language hint.
func (r *Registry) SetFallback(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

// Lookup resolves the Parser for a path and optional language hint,
// preferring the hint when given.
func (r *Registry) Lookup(path, langHint string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if langHint != "" {
		if p, ok := r.byLanguage[strings.ToLower(langHint)]; ok {
			return p, true
		}
	}

	if ext := extensionOf(path); ext != "" {
		if p, ok := r.byExtension[ext]; ok {
			return p, true
		}
	}

	if r.fallback != nil {
		return r.fallback, true
	}

	return nil, false
}

// Parse resolves and invokes the appropriate Parser for path.
func (r *Registry) Parse(ctx context.Context, path string, content []byte, langHint string) (*Tree, error) {
	p, ok := r.Lookup(path, langHint)
	if !ok {
		return nil, &ParseError{Path: path, Reason: fmt.Errorf("%w: %s", errUnsupportedLanguage, langHint)}
	}

	return p.Parse(ctx, path, content, langHint)
}

// NewDefaultRegistry builds a Registry with every in-tree Parser
// registered (C# via tree-sitter, VB via keyword scanning) and
// TextParser installed as the fallback, per spec §1's "fallback: any
// text file" clause.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewCSharpParser())
	r.Register(NewVBParser())
	r.SetFallback(NewTextParser())

	return r
}

func extensionOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return ""
	}

	return strings.ToLower(path[idx:])
}
