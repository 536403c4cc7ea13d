package resultmodel

import (
	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
)

// toImpactChangeType adapts the result tree's ChangeType to the
// classifier's own enum, keeping impact a dependency-free leaf package
// that resultmodel and treediff both sit above.
func toImpactChangeType(t ChangeType) impact.ChangeType {
	switch t {
	case Added:
		return impact.Added
	case Removed:
		return impact.Removed
	case Moved:
		return impact.Moved
	case Renamed:
		return impact.Renamed
	default:
		return impact.Modified
	}
}

// Classify is a thin forward to impact.Classify using this package's own
// ChangeType, so treediff only ever imports resultmodel for impact
// classification.
func Classify(
	changeType ChangeType,
	visibility sourcetree.Visibility,
	deltas impact.AttributeDeltas,
) (impact.Impact, []string) {
	return impact.Classify(toImpactChangeType(changeType), visibility, deltas)
}
