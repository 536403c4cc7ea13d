package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sourcelens/semdiff/pkg/sourcetree"
)

func TestImpact_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FormattingOnly", FormattingOnly.String())
	assert.Equal(t, "NonBreaking", NonBreaking.String())
	assert.Equal(t, "BreakingInternalApi", BreakingInternalApi.String())
	assert.Equal(t, "BreakingPublicApi", BreakingPublicApi.String())
	assert.Equal(t, "Unknown", Impact(99).String())
}

func TestClassify_WhitespaceOnlyIsFormattingRegardlessOfVisibility(t *testing.T) {
	t.Parallel()

	got, caveats := Classify(Modified, sourcetree.VisibilityPublic, AttributeDeltas{WhitespaceOnly: true})
	assert.Equal(t, FormattingOnly, got)
	assert.Empty(t, caveats)
}

func TestClassify_CommentOnlyIsFormatting(t *testing.T) {
	t.Parallel()

	got, _ := Classify(Modified, sourcetree.VisibilityInternal, AttributeDeltas{CommentOnly: true})
	assert.Equal(t, FormattingOnly, got)
}

func TestClassify_PublicSignatureChangeIsBreakingPublic(t *testing.T) {
	t.Parallel()

	got, caveats := Classify(Modified, sourcetree.VisibilityPublic, AttributeDeltas{SignatureChanged: true})
	assert.Equal(t, BreakingPublicApi, got)
	assert.Contains(t, caveats, caveatSignatureChange)
}

func TestClassify_PublicMemberRemovedIsBreakingPublic(t *testing.T) {
	t.Parallel()

	got, _ := Classify(Removed, sourcetree.VisibilityPublic, AttributeDeltas{MemberRemoved: true})
	assert.Equal(t, BreakingPublicApi, got)
}

func TestClassify_PublicParameterRenameIsBreakingPublicWithCaveat(t *testing.T) {
	t.Parallel()

	got, caveats := Classify(Modified, sourcetree.VisibilityPublic, AttributeDeltas{ParameterRenamed: true})
	assert.Equal(t, BreakingPublicApi, got)
	assert.Contains(t, caveats, caveatParameterRename)
}

func TestClassify_InternalSignatureChangeIsBreakingInternal(t *testing.T) {
	t.Parallel()

	got, caveats := Classify(Modified, sourcetree.VisibilityInternal, AttributeDeltas{SignatureChanged: true})
	assert.Equal(t, BreakingInternalApi, got)
	assert.Empty(t, caveats)
}

func TestClassify_ProtectedMemberRemovedIsBreakingInternal(t *testing.T) {
	t.Parallel()

	got, _ := Classify(Removed, sourcetree.VisibilityProtected, AttributeDeltas{MemberRemoved: true})
	assert.Equal(t, BreakingInternalApi, got)
}

func TestClassify_NewPublicMemberIsNonBreaking(t *testing.T) {
	t.Parallel()

	got, _ := Classify(Added, sourcetree.VisibilityPublic, AttributeDeltas{})
	assert.Equal(t, NonBreaking, got)
}

func TestClassify_PrivateBodyOnlyChangeIsNonBreaking(t *testing.T) {
	t.Parallel()

	got, _ := Classify(Modified, sourcetree.VisibilityPrivate, AttributeDeltas{BodyOnlyChanged: true})
	assert.Equal(t, NonBreaking, got)
}

func TestClassify_DefaultIsNonBreaking(t *testing.T) {
	t.Parallel()

	got, caveats := Classify(Modified, sourcetree.VisibilityPrivate, AttributeDeltas{})
	assert.Equal(t, NonBreaking, got)
	assert.Empty(t, caveats)
}

func TestStrongest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, BreakingPublicApi, Strongest(NonBreaking, BreakingPublicApi))
	assert.Equal(t, BreakingInternalApi, Strongest(BreakingInternalApi, FormattingOnly))
	assert.Equal(t, NonBreaking, Strongest(NonBreaking, NonBreaking))
}
