// Package impact implements the ImpactClassifier (component C2): a pure
// function from change kind, type, visibility and attribute deltas to an
// Impact level and a list of caveats. The decision table lives in this
// one place, per §4.2's instruction that rendering layers read impact
// and caveats but never re-derive them.
package impact

import "github.com/sourcelens/semdiff/pkg/sourcetree"

// Impact is the four-level classification of how a change affects
// consumers of the code.
type Impact int

// Impact levels, ordered from least to most severe so callers can
// compare with >/< when upgrading a parent to its strongest descendant.
const (
	FormattingOnly Impact = iota
	NonBreaking
	BreakingInternalApi
	BreakingPublicApi
)

func (i Impact) String() string {
	switch i {
	case FormattingOnly:
		return "FormattingOnly"
	case NonBreaking:
		return "NonBreaking"
	case BreakingInternalApi:
		return "BreakingInternalApi"
	case BreakingPublicApi:
		return "BreakingPublicApi"
	default:
		return "Unknown"
	}
}

// ChangeType mirrors resultmodel.ChangeType without importing it, so this
// package stays a leaf with no dependency on the result tree it informs.
type ChangeType int

// The five change types the classifier cares about.
const (
	Added ChangeType = iota
	Removed
	Modified
	Moved
	Renamed
)

// AttributeDeltas flags the kinds of differences TreeDiffer found between
// two matched nodes, feeding the decision table of §4.2.
type AttributeDeltas struct {
	SignatureChanged bool
	ParameterRenamed bool
	ReturnTypeChanged bool
	MemberRemoved    bool
	BodyOnlyChanged  bool
	WhitespaceOnly   bool
	CommentOnly      bool
}

const (
	caveatSignatureChange = "Signature change breaks external consumers"
	caveatParameterRename = "Parameter rename may break named-argument callers"
)

// Classify applies the §4.2 decision table, first match wins. It never
// fails: an unrecognised visibility simply falls through to the default
// NonBreaking case.
func Classify(
	changeType ChangeType,
	visibility sourcetree.Visibility,
	deltas AttributeDeltas,
) (Impact, []string) {
	if deltas.WhitespaceOnly || deltas.CommentOnly {
		return FormattingOnly, nil
	}

	if visibility == sourcetree.VisibilityPublic {
		if deltas.SignatureChanged || deltas.MemberRemoved || deltas.ReturnTypeChanged {
			return BreakingPublicApi, []string{caveatSignatureChange}
		}

		if deltas.ParameterRenamed {
			return BreakingPublicApi, []string{caveatParameterRename}
		}
	}

	if visibility == sourcetree.VisibilityInternal || visibility == sourcetree.VisibilityProtected {
		if deltas.SignatureChanged || deltas.MemberRemoved {
			return BreakingInternalApi, nil
		}
	}

	if changeType == Added && visibility == sourcetree.VisibilityPublic {
		return NonBreaking, nil
	}

	if deltas.BodyOnlyChanged && visibility != sourcetree.VisibilityPublic {
		return NonBreaking, nil
	}

	return NonBreaking, nil
}

// Strongest returns whichever of a, b is the more severe impact, used by
// TreeDiffer's coherence-upgrade step (§4.4 step 5).
func Strongest(a, b Impact) Impact {
	if b > a {
		return b
	}

	return a
}
