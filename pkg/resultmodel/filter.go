package resultmodel

import (
	"fmt"

	"github.com/sourcelens/semdiff/pkg/impact"
)

// ImpactFilter is the §6 `impact_filter` configuration knob: a floor on
// which breaking-level changes survive filtering. It never governs
// FormattingOnly or NonBreaking changes directly; those are gated by
// FilterOptions.IncludeFormatting/IncludeNonImpactful instead, so a
// caller scoping a CI gate to "BreakingPublic" does not have to also
// decide what to do with whitespace noise.
type ImpactFilter int

// Impact-filter floors, ordered least to most severe.
const (
	FilterAll ImpactFilter = iota
	FilterNonBreaking
	FilterBreakingInternal
	FilterBreakingPublic
)

// errUnknownImpactFilter is wrapped into the error ParseImpactFilter
// returns for any value outside the §6 vocabulary.
var errUnknownImpactFilter = fmt.Errorf("resultmodel: unknown impact filter")

var impactFilterNames = map[string]ImpactFilter{
	"":                 FilterAll,
	"All":              FilterAll,
	"NonBreaking":      FilterNonBreaking,
	"BreakingInternal": FilterBreakingInternal,
	"BreakingPublic":   FilterBreakingPublic,
}

// ParseImpactFilter converts a config/CLI filter string to an ImpactFilter.
func ParseImpactFilter(s string) (ImpactFilter, error) {
	f, ok := impactFilterNames[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", errUnknownImpactFilter, s)
	}

	return f, nil
}

// floor returns the minimum impact.Impact this filter admits among the
// two breaking levels; NonBreaking/FormattingOnly are handled separately.
func (f ImpactFilter) floor() impact.Impact {
	switch f {
	case FilterBreakingPublic:
		return impact.BreakingPublicApi
	case FilterBreakingInternal:
		return impact.BreakingInternalApi
	default:
		return impact.FormattingOnly
	}
}

// FilterOptions controls which changes survive ApplyFilter, per §6's
// impact_filter / include_non_impactful / include_formatting knobs.
type FilterOptions struct {
	Impact              ImpactFilter
	IncludeNonImpactful bool
	IncludeFormatting   bool
}

// admits reports whether a single change's own Impact (ignoring its
// children) passes opts.
func (o FilterOptions) admits(i impact.Impact) bool {
	switch i {
	case impact.FormattingOnly:
		return o.IncludeFormatting
	case impact.NonBreaking:
		return o.IncludeNonImpactful
	default:
		return i >= o.Impact.floor()
	}
}

// IsZero reports whether opts is the zero value, in which case
// ApplyFilter is defined as a no-op: the zero value of FilterOptions
// means "unfiltered" rather than "admit nothing", so a caller that
// never touches ResultFilter keeps today's unfiltered behavior.
func (o FilterOptions) IsZero() bool {
	return o == FilterOptions{}
}

// ApplyFilter prunes a change tree in place, per §6's configuration
// knobs. A change is kept if it is itself admitted OR any descendant
// is admitted (so an excluded parent never hides an included child);
// an excluded change that is kept only for a surviving descendant has
// its own fields left untouched, it is simply not itself a filtering
// target. Callers must recompute Stats/Summary after filtering since
// pruned changes must not contribute to aggregate counts.
func ApplyFilter(changes []*Change, opts FilterOptions) []*Change {
	if opts.IsZero() {
		return changes
	}

	kept := make([]*Change, 0, len(changes))

	for _, c := range changes {
		children := ApplyFilter(c.Children, opts)
		self := opts.admits(c.Impact)

		switch {
		case self && len(children) == len(c.Children):
			kept = append(kept, c)
		case self || len(children) > 0:
			clone := *c
			clone.Children = children
			kept = append(kept, &clone)
		}
	}

	return kept
}
