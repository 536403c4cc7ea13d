package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sourcelens/semdiff/pkg/resultmodel"
)

// UnifiedOptions configures the unified-diff text renderer.
type UnifiedOptions struct {
	// Context is the number of unchanged lines kept around each hunk.
	// Zero means "no hunk splitting": the whole diff is emitted as one
	// block, matching diffmatchpatch's own line-granular output.
	Context int
	// Timeout bounds diffmatchpatch's main diff pass per leaf, mirroring
	// FileDiffAnalyzer.Timeout in the teacher's plumbing package.
	Timeout float64
}

// Unified renders the leaf-level content changes in a Change tree as
// unified-diff text, one hunk header per change that carries old or new
// content, or both (§9 "Ownership of large text": only available
// when include_content was set).
func Unified(changes []*resultmodel.Change, oldPath, newPath string, opts UnifiedOptions) string {
	var b strings.Builder

	var walk func([]*resultmodel.Change)

	walk = func(cs []*resultmodel.Change) {
		for _, c := range cs {
			if c.HasOldContent || c.HasNewContent {
				writeHunk(&b, c, oldPath, newPath, opts)
			}

			walk(c.Children)
		}
	}

	walk(changes)

	return b.String()
}

func writeHunk(b *strings.Builder, c *resultmodel.Change, oldPath, newPath string, opts UnifiedOptions) {
	fmt.Fprintf(b, "--- %s: %s\n+++ %s: %s\n", oldPath, c.Name, newPath, c.Name)

	if c.OldContent == c.NewContent {
		return
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = time.Duration(opts.Timeout * float64(time.Second))

	src, dst, lineArray := dmp.DiffLinesToRunes(c.OldContent, c.NewContent)

	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs))
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	for i, d := range diffs {
		writeDiffLines(b, d, opts.Context, i == 0, i == len(diffs)-1)
	}
}

// writeDiffLines prints one diffmatchpatch.Diff's lines. An Equal run
// longer than 2*context, away from either end of the hunk, is collapsed
// to its first/last context lines plus an elision marker so a changed
// leaf with one edit deep inside a long body doesn't dump the whole
// body into the unified text.
func writeDiffLines(b *strings.Builder, d diffmatchpatch.Diff, context int, atStart, atEnd bool) {
	prefix := " "

	switch d.Type {
	case diffmatchpatch.DiffInsert:
		prefix = "+"
	case diffmatchpatch.DiffDelete:
		prefix = "-"
	case diffmatchpatch.DiffEqual:
		prefix = " "
	}

	lines := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")

	if d.Type == diffmatchpatch.DiffEqual && context > 0 && len(lines) > 2*context && !atStart && !atEnd {
		writePrefixedLines(b, prefix, lines[:context])
		fmt.Fprintf(b, "...%d lines omitted...\n", len(lines)-2*context)
		writePrefixedLines(b, prefix, lines[len(lines)-context:])

		return
	}

	writePrefixedLines(b, prefix, lines)
}

func writePrefixedLines(b *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(b, "%s%s\n", prefix, line)
	}
}
