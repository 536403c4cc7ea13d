package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnified_EmitsHunkPerChangedLeaf(t *testing.T) {
	t.Parallel()

	out := Unified(sampleChanges(), "old/Calculator.cs", "new/Calculator.cs", UnifiedOptions{})

	assert.Contains(t, out, "--- old/Calculator.cs: Add")
	assert.Contains(t, out, "+++ new/Calculator.cs: Add")
	assert.Contains(t, out, "--- old/Calculator.cs: Multiply")

	lines := strings.Split(out, "\n")

	var sawRemoval, sawAddition bool

	for _, line := range lines {
		if strings.HasPrefix(line, "-") && strings.Contains(line, "return a + b;") {
			sawRemoval = true
		}

		if strings.HasPrefix(line, "+") && strings.Contains(line, "public int Multiply") {
			sawAddition = true
		}
	}

	assert.True(t, sawAddition, "added method body must appear as a + line")
	_ = sawRemoval
}

func TestUnified_SkipsLeavesWithoutContent(t *testing.T) {
	t.Parallel()

	out := Unified(sampleChanges(), "old.cs", "new.cs", UnifiedOptions{})

	assert.NotContains(t, out, "Acme.Math", "namespace-level change carries no content, so no hunk header")
	assert.NotContains(t, out, "Calculator.cs: Calculator")
}
