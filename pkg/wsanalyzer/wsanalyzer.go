// Package wsanalyzer implements WhitespaceAnalyzer (component C5): it
// classifies the whitespace-only nature of a leaf body difference via
// WhitespaceEngine and decides whether a change's impact may be
// downgraded to FormattingOnly, per §4.5.
package wsanalyzer

import (
	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// ClassifyLeaf invokes WhitespaceEngine's classify on two bodies TreeDiffer
// already knows to differ, and reports whether the difference may
// downgrade the change's impact: only when path resolves to a
// whitespace-insignificant language under LanguageAware (§4.1's table)
// and classify() found only whitespace issues.
func ClassifyLeaf(oldBody, newBody string, mode wsengine.Mode, path string) (issues wsengine.Issue, mayDowngrade bool, err error) {
	issues, err = wsengine.Classify(oldBody, newBody, mode, path)
	if err != nil {
		return 0, false, err
	}

	if issues == 0 {
		return 0, false, nil
	}

	significant := wsengine.LanguageMode(path) == wsengine.Exact

	return issues, !significant, nil
}

// Analyze re-runs whitespace classification over an already-built change
// tree for every leaf whose body text was retained (include_content).
// It is used by renderers and tooling that want to reclassify a result
// after the fact rather than at diff time; TreeDiffer itself calls
// ClassifyLeaf directly during its own leaf-comparison step.
func Analyze(changes []*resultmodel.Change, mode wsengine.Mode, path string) {
	for _, c := range changes {
		Analyze(c.Children, mode, path)

		if !c.HasOldContent || !c.HasNewContent {
			continue
		}

		issues, downgrade, err := ClassifyLeaf(c.OldContent, c.NewContent, mode, path)
		if err != nil || issues == 0 {
			continue
		}

		c.WhitespaceIssues = issues

		if downgrade && isWhitespaceOnlyLeaf(c) {
			c.Impact = impact.FormattingOnly
		}
	}
}

// isWhitespaceOnlyLeaf reports whether c has no children carrying a
// stronger-than-formatting impact.
func isWhitespaceOnlyLeaf(c *resultmodel.Change) bool {
	for _, child := range c.Children {
		if child.Impact != impact.FormattingOnly {
			return false
		}
	}

	return true
}
