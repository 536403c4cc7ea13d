package resultmodel

import (
	"errors"
	"fmt"

	"github.com/sourcelens/semdiff/pkg/alg/cuckoo"
	"github.com/sourcelens/semdiff/pkg/alg/interval"
	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
)

// Sentinel errors returned by the invariant checkers below. They are
// debug/test aids, not part of the production diff path; a caller that
// never calls CheckInvariants pays nothing for them.
var (
	ErrDuplicateReporting = errors.New("resultmodel: source node reported more than once")
	ErrOverlappingSiblings = errors.New("resultmodel: sibling change spans overlap")
	ErrSpanNotContained   = errors.New("resultmodel: child span not contained in parent span")
	ErrCoherenceViolation = errors.New("resultmodel: FormattingOnly parent has a stronger-impact descendant")
)

// CheckInvariants verifies the §3 invariants (no-duplicate-reporting,
// containment, kind/impact coherence) against a change tree. It is
// intended for tests and a debug-mode CLI flag, not the hot path: on
// very large trees it uses an interval tree for O(log n) containment
// checks and a cuckoo filter to pre-screen duplicate-span candidates
// before falling back to an exact check.
func CheckInvariants(changes []*Change) error {
	if err := checkNoDuplicateReporting(changes); err != nil {
		return err
	}

	return checkContainmentAndCoherence(changes)
}

// spanKey renders a span pair into a stable byte key for the cuckoo
// filter and the exact fallback map.
func spanKey(old, newSpan *sourcetree.Span) string {
	if old == nil && newSpan == nil {
		return ""
	}

	var oldKey, newKey string
	if old != nil {
		oldKey = old.String()
	}

	if newSpan != nil {
		newKey = newSpan.String()
	}

	return oldKey + "|" + newKey
}

// checkNoDuplicateReporting walks the full tree and asserts that no
// (old_location, new_location) pair — the span identity of a source
// node — appears twice, modulo the null span (synthetic roots may
// legitimately share an empty span).
func checkNoDuplicateReporting(changes []*Change) error {
	flat := Flatten(changes)

	filter, err := cuckoo.New(uint(len(flat)*2 + 1)) //nolint:mnd // headroom avoids hash-kick thrashing near capacity
	if err != nil {
		return fmt.Errorf("resultmodel: building duplicate-check filter: %w", err)
	}

	exact := make(map[string]int, len(flat))

	for _, c := range flat {
		key := spanKey(c.OldLocation, c.NewLocation)
		if key == "" {
			continue
		}

		data := []byte(key)

		if filter.Lookup(data) {
			// Possible duplicate (or false positive); verify exactly.
			if exact[key] > 0 {
				return fmt.Errorf("%w: %s", ErrDuplicateReporting, key)
			}
		}

		filter.Insert(data)
		exact[key]++

		if exact[key] > 1 {
			return fmt.Errorf("%w: %s", ErrDuplicateReporting, key)
		}
	}

	return nil
}

// checkContainmentAndCoherence recurses the tree, using an interval
// tree per sibling list to verify no two siblings' new-tree spans
// overlap and that every child's spans are contained in its parent's,
// and separately verifies the coherence invariant.
func checkContainmentAndCoherence(changes []*Change) error {
	return checkLevel(nil, changes)
}

func checkLevel(parent *Change, siblings []*Change) error {
	if err := checkSiblingOverlap(siblings); err != nil {
		return err
	}

	for _, c := range siblings {
		if parent != nil {
			if err := checkContained(parent, c); err != nil {
				return err
			}
		}

		if err := checkLevel(c, c.Children); err != nil {
			return err
		}

		if err := checkCoherence(c); err != nil {
			return err
		}
	}

	return nil
}

func checkSiblingOverlap(siblings []*Change) error {
	tree := interval.New[int64, int]()

	for i, c := range siblings {
		span := c.NewLocation
		if span == nil {
			span = c.OldLocation
		}

		if span == nil || !span.Valid() {
			continue
		}

		low, high := int64(span.StartLine), int64(span.EndLine)

		overlaps := tree.QueryOverlap(low, high)
		if len(overlaps) > 0 {
			return fmt.Errorf("%w: change %d overlaps an existing sibling", ErrOverlappingSiblings, i)
		}

		tree.Insert(low, high, i)
	}

	return nil
}

func checkContained(parent, child *Change) error {
	if parent.OldLocation != nil && child.OldLocation != nil {
		if !parent.OldLocation.Contains(*child.OldLocation) {
			return fmt.Errorf("%w: old span of %q", ErrSpanNotContained, child.Name)
		}
	}

	if parent.NewLocation != nil && child.NewLocation != nil {
		if !parent.NewLocation.Contains(*child.NewLocation) {
			return fmt.Errorf("%w: new span of %q", ErrSpanNotContained, child.Name)
		}
	}

	return nil
}

func checkCoherence(c *Change) error {
	if c.Impact != impact.FormattingOnly {
		return nil
	}

	for _, child := range c.Children {
		if child.Impact != impact.FormattingOnly {
			return fmt.Errorf("%w: %q contains %q", ErrCoherenceViolation, c.Name, child.Name)
		}
	}

	return nil
}
