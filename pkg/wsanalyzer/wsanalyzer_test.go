package wsanalyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
	"github.com/sourcelens/semdiff/pkg/wsengine"
)

func TestClassifyLeaf_SubstantiveChangeDoesNotDowngrade(t *testing.T) {
	t.Parallel()

	issues, downgrade, err := ClassifyLeaf("return 1", "return 2", wsengine.Exact, "f.cs")

	require.NoError(t, err)
	assert.Zero(t, issues)
	assert.False(t, downgrade)
}

func TestClassifyLeaf_WhitespaceOnlyInsignificantLanguageMayDowngrade(t *testing.T) {
	t.Parallel()

	issues, downgrade, err := ClassifyLeaf("  return 1;", "return 1;", wsengine.Exact, "Program.cs")

	require.NoError(t, err)
	assert.NotZero(t, issues)
	assert.True(t, downgrade)
}

func TestClassifyLeaf_WhitespaceOnlyInSignificantLanguageNeverDowngrades(t *testing.T) {
	t.Parallel()

	issues, downgrade, err := ClassifyLeaf("  return 1;", "return 1;", wsengine.Exact, "script.py")

	require.NoError(t, err)
	assert.NotZero(t, issues)
	assert.False(t, downgrade)
}

func TestClassifyLeaf_UnknownMode(t *testing.T) {
	t.Parallel()

	_, _, err := ClassifyLeaf("a", "b", wsengine.Mode(99), "f.cs")
	require.ErrorIs(t, err, wsengine.ErrUnknownMode)
}

func leafChange(oldContent, newContent string, imp impact.Impact) *resultmodel.Change {
	b := resultmodel.NewChangeBuilder(sourcetree.KindMethod, resultmodel.Modified, "Leaf")
	b.WithOldContent(oldContent).WithNewContent(newContent).WithImpact(imp)

	return b.Build()
}

func TestAnalyze_DowngradesWhitespaceOnlyLeaf(t *testing.T) {
	t.Parallel()

	changes := []*resultmodel.Change{leafChange("  x();", "x();", impact.NonBreaking)}

	Analyze(changes, wsengine.Exact, "Program.cs")

	assert.Equal(t, impact.FormattingOnly, changes[0].Impact)
	assert.NotZero(t, changes[0].WhitespaceIssues)
}

func TestAnalyze_SkipsChangesWithoutRetainedContent(t *testing.T) {
	t.Parallel()

	b := resultmodel.NewChangeBuilder(sourcetree.KindMethod, resultmodel.Modified, "Leaf")
	b.WithImpact(impact.NonBreaking)
	changes := []*resultmodel.Change{b.Build()}

	Analyze(changes, wsengine.Exact, "Program.cs")

	assert.Equal(t, impact.NonBreaking, changes[0].Impact)
}

func TestAnalyze_DoesNotDowngradeWhenChildHasStrongerImpact(t *testing.T) {
	t.Parallel()

	parent := leafChange("  x();", "x();", impact.NonBreaking)
	child := leafChange("a", "b", impact.BreakingPublicApi)
	parent.Children = append(parent.Children, child)

	Analyze([]*resultmodel.Change{parent}, wsengine.Exact, "Program.cs")

	assert.Equal(t, impact.NonBreaking, parent.Impact)
}

func TestAnalyze_RecursesIntoChildren(t *testing.T) {
	t.Parallel()

	child := leafChange("  y();", "y();", impact.NonBreaking)
	parent := leafChange("unrelated old", "unrelated new body text", impact.NonBreaking)
	parent.Children = append(parent.Children, child)

	Analyze([]*resultmodel.Change{parent}, wsengine.Exact, "Program.cs")

	assert.Equal(t, impact.FormattingOnly, child.Impact)
}
