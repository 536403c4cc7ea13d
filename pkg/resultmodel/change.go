// Package resultmodel defines the shared in-memory result types produced
// by the differ: Change, DiffResult, Stats, and MultiFileResult, plus the
// flatten() pre-order view for legacy consumers.
//
// A Change is built via ChangeBuilder and frozen by Build(); nothing in
// this package mutates a Change after that point, matching the
// builder/freeze discipline of §3/§5.
package resultmodel

import (
	"sort"

	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// ChangeType is the kind of structural delta a Change records.
type ChangeType int

// Change types, per §3.
const (
	Added ChangeType = iota
	Removed
	Modified
	Moved
	Renamed
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	case Modified:
		return "Modified"
	case Moved:
		return "Moved"
	case Renamed:
		return "Renamed"
	default:
		return "Unknown"
	}
}

// Change is one node of the output change tree.
type Change struct {
	Kind              sourcetree.Kind
	Type              ChangeType
	Name              string
	OldLocation       *sourcetree.Span
	NewLocation       *sourcetree.Span
	OldContent        string
	NewContent        string
	HasOldContent     bool
	HasNewContent     bool
	Impact            impact.Impact
	Visibility        sourcetree.Visibility
	ApplicableProfiles map[string]struct{}
	WhitespaceIssues  wsengine.Issue
	Caveats           []string
	Children          []*Change

	frozen bool
}

// ChangeBuilder accumulates fields for one Change before it is frozen and
// inserted into its parent's Children. Once Build() returns, the caller
// must not keep mutating the builder's backing Change.
type ChangeBuilder struct {
	c *Change
}

// NewChangeBuilder starts building a Change of the given kind and type.
func NewChangeBuilder(kind sourcetree.Kind, changeType ChangeType, name string) *ChangeBuilder {
	return &ChangeBuilder{c: &Change{Kind: kind, Type: changeType, Name: name}}
}

func (b *ChangeBuilder) WithOldLocation(span sourcetree.Span) *ChangeBuilder {
	b.c.OldLocation = &span
	return b
}

func (b *ChangeBuilder) WithNewLocation(span sourcetree.Span) *ChangeBuilder {
	b.c.NewLocation = &span
	return b
}

func (b *ChangeBuilder) WithOldContent(content string) *ChangeBuilder {
	b.c.OldContent = content
	b.c.HasOldContent = true
	return b
}

func (b *ChangeBuilder) WithNewContent(content string) *ChangeBuilder {
	b.c.NewContent = content
	b.c.HasNewContent = true
	return b
}

func (b *ChangeBuilder) WithImpact(i impact.Impact, caveats ...string) *ChangeBuilder {
	b.c.Impact = i
	b.c.Caveats = append(b.c.Caveats, caveats...)
	return b
}

func (b *ChangeBuilder) WithVisibility(v sourcetree.Visibility) *ChangeBuilder {
	b.c.Visibility = v
	return b
}

func (b *ChangeBuilder) WithWhitespaceIssues(issue wsengine.Issue) *ChangeBuilder {
	b.c.WhitespaceIssues = issue
	return b
}

func (b *ChangeBuilder) WithProfile(profile string) *ChangeBuilder {
	if profile == "" {
		return b
	}

	if b.c.ApplicableProfiles == nil {
		b.c.ApplicableProfiles = make(map[string]struct{}, 1)
	}

	b.c.ApplicableProfiles[profile] = struct{}{}

	return b
}

// AddChild appends an already-frozen child. Children must be added in
// final tree order; the builder does not re-sort them.
func (b *ChangeBuilder) AddChild(child *Change) *ChangeBuilder {
	b.c.Children = append(b.c.Children, child)
	return b
}

// Build freezes and returns the Change. Calling any With*/AddChild method
// on this builder afterwards is a programmer error.
func (b *ChangeBuilder) Build() *Change {
	b.c.frozen = true
	return b.c
}

// IsFrozen reports whether c has been returned from a builder's Build.
func (c *Change) IsFrozen() bool { return c.frozen }

// ProfileSet returns the sorted list of applicable profile tags. An empty
// result means "applies to every configured profile" per §3.
func (c *Change) ProfileSet() []string {
	if len(c.ApplicableProfiles) == 0 {
		return nil
	}

	out := make([]string, 0, len(c.ApplicableProfiles))
	for p := range c.ApplicableProfiles {
		out = append(out, p)
	}

	sort.Strings(out)

	return out
}
