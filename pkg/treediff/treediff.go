// Package treediff implements TreeDiffer (component C4), the recursive
// structural differ that turns a pair of parsed source trees into the
// hierarchical Change tree described in spec §3/§4.4.
//
// The one invariant this package exists to protect is the historical
// duplicate-reporting fix: Diff only ever extracts the *immediate*
// children of a pair at each level (step 1) and recurses exclusively
// through compareChildren on matched pairs (step 5). A descendant is
// never also emitted as a root-level entry.
package treediff

import (
	"sort"
	"strings"

	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/matcher"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
	"github.com/sourcelens/semdiff/pkg/wsanalyzer"
	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// parseAnomalyCaveat is attached to the synthetic file-level change
// emitted when a tree is malformed (§4.4 "Failure semantics").
const parseAnomalyCaveat = "ParseAnomaly"

// Options configures one Diff invocation.
type Options struct {
	WhitespaceMode      wsengine.Mode
	SimilarityThreshold float64
	// MoveThreshold is the positional-index delta, in sibling slots,
	// above which a matched pair with no other difference is reported
	// as Moved instead of being elided. Default 1, per §6/§9.
	MoveThreshold int
	// IncludeContent, when true, retains old/new body text on leaf
	// Changes instead of only their spans (§9 "Ownership of large text").
	IncludeContent bool
	// Profile is the build-profile tag this invocation is running
	// under; empty for a single-profile run. It is stamped onto every
	// emitted Change so MergeProfiles (§4.8) can coalesce across runs.
	Profile string
	// Path is used only for LanguageAware whitespace resolution.
	Path string
}

const defaultMoveThreshold = 1

// Diff produces the root-level Changes for one file pair. oldRoot/newRoot
// are the file-level roots returned by the Parser; their Children() are
// the top-level structural declarations.
func Diff(oldRoot, newRoot sourcetree.Node, opts Options) []*resultmodel.Change {
	if opts.MoveThreshold <= 0 {
		opts.MoveThreshold = defaultMoveThreshold
	}

	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = matcher.DefaultSimilarityThreshold
	}

	if malformed(oldRoot) || malformed(newRoot) {
		return []*resultmodel.Change{malformedChange(oldRoot, newRoot)}
	}

	if oldRoot != nil && newRoot != nil && oldRoot.Hash() == newRoot.Hash() {
		return nil
	}

	oldChildren := childrenOf(oldRoot)
	newChildren := childrenOf(newRoot)

	return compareChildren(oldChildren, newChildren, opts)
}

func childrenOf(n sourcetree.Node) []sourcetree.Node {
	if n == nil {
		return nil
	}

	return n.Children()
}

func malformed(n sourcetree.Node) bool {
	if n == nil {
		return false // a nil root on one side alone is a legitimate Added/Removed file, not an anomaly
	}

	span := n.Span()

	return span.StartLine < 0 || span.EndLine < 0
}

func malformedChange(oldRoot, newRoot sourcetree.Node) *resultmodel.Change {
	b := resultmodel.NewChangeBuilder(sourcetree.KindOther, resultmodel.Modified, fileLevelName(oldRoot, newRoot))
	b.WithImpact(impact.NonBreaking, parseAnomalyCaveat)

	return b.Build()
}

func fileLevelName(oldRoot, newRoot sourcetree.Node) string {
	if newRoot != nil {
		return newRoot.Identifier()
	}

	if oldRoot != nil {
		return oldRoot.Identifier()
	}

	return ""
}

// compareChildren runs steps 2–5 of §4.4 over one level of siblings:
// match, emit Removed/Added for the unmatched, and recurse into matched
// pairs via diffPair.
func compareChildren(old, new []sourcetree.Node, opts Options) []*resultmodel.Change { //nolint:revive // old/new mirrors spec vocabulary.
	result := matcher.Match(old, new, opts.SimilarityThreshold)

	changes := make([]*resultmodel.Change, 0, len(result.Pairs)+len(result.OldOnly)+len(result.NewOnly))

	for _, idx := range result.OldOnly {
		changes = append(changes, emitRemoved(old[idx]))
	}

	for _, idx := range result.NewOnly {
		changes = append(changes, emitAdded(new[idx]))
	}

	for _, pair := range result.Pairs {
		if c := diffPair(old[pair.OldIdx], new[pair.NewIdx], pair, opts); c != nil {
			changes = append(changes, c)
		}
	}

	sortByTreeOrder(changes)

	return changes
}

func emitRemoved(n sourcetree.Node) *resultmodel.Change {
	span := n.Span()

	return resultmodel.NewChangeBuilder(n.Kind(), resultmodel.Removed, n.Identifier()).
		WithOldLocation(span).
		WithVisibility(n.Visibility()).
		WithImpact(resultmodel.Classify(resultmodel.Removed, n.Visibility(), impact.AttributeDeltas{MemberRemoved: true})).
		Build()
}

func emitAdded(n sourcetree.Node) *resultmodel.Change {
	span := n.Span()

	imp, caveats := resultmodel.Classify(resultmodel.Added, n.Visibility(), impact.AttributeDeltas{})

	return resultmodel.NewChangeBuilder(n.Kind(), resultmodel.Added, n.Identifier()).
		WithNewLocation(span).
		WithVisibility(n.Visibility()).
		WithImpact(imp, caveats...).
		Build()
}

// diffPair implements §4.4 steps 5.a–5.f for one matched pair.
func diffPair(o, n sourcetree.Node, pair matcher.Pair, opts Options) *resultmodel.Change {
	if o.Hash() == n.Hash() && o.Span() == n.Span() {
		return nil
	}

	grandchildren := compareChildren(o.Children(), n.Children(), opts)

	deltas := selfDiff(o, n, opts)

	changeType := classifyChangeType(pair, deltas, opts)

	if changeType == noChangeSentinel {
		if len(grandchildren) == 0 {
			return nil
		}

		changeType = resultmodel.Modified
	}

	builder := resultmodel.NewChangeBuilder(n.Kind(), changeType, n.Identifier()).
		WithOldLocation(o.Span()).
		WithNewLocation(n.Span()).
		WithVisibility(n.Visibility())

	if opts.IncludeContent {
		if body, ok := o.Body(); ok {
			builder.WithOldContent(body)
		}

		if body, ok := n.Body(); ok {
			builder.WithNewContent(body)
		}
	}

	imp, caveats := resultmodel.Classify(changeType, n.Visibility(), deltas.attrs)
	builder.WithImpact(imp, caveats...)

	if deltas.whitespaceIssues != 0 {
		builder.WithWhitespaceIssues(deltas.whitespaceIssues)
	}

	builder.WithProfile(opts.Profile)

	for _, gc := range grandchildren {
		builder.AddChild(gc)
	}

	change := builder.Build()

	upgradeCoherence(change)

	return change
}

// noChangeSentinel is a ChangeType value that never escapes diffPair; it
// signals "no self-difference found" to classifyChangeType's caller.
const noChangeSentinel = resultmodel.ChangeType(-1)

func classifyChangeType(pair matcher.Pair, deltas selfDiffResult, opts Options) resultmodel.ChangeType {
	if pair.Renamed {
		return resultmodel.Renamed
	}

	if deltas.differs {
		return resultmodel.Modified
	}

	if abs(pair.OldIdx-pair.NewIdx) > opts.MoveThreshold {
		return resultmodel.Moved
	}

	return noChangeSentinel
}

// selfDiffResult carries the outcome of comparing two matched nodes'
// own attributes (not their children).
type selfDiffResult struct {
	differs          bool
	attrs            impact.AttributeDeltas
	whitespaceIssues wsengine.Issue
}

// selfDiff checks whether (o, n) differ in signature, visibility,
// attributes, or — for leaves — body text under the active whitespace
// mode, and builds the AttributeDeltas the impact classifier consumes.
func selfDiff(o, n sourcetree.Node, opts Options) selfDiffResult {
	var deltas impact.AttributeDeltas

	if o.Signature() != n.Signature() && o.Signature() != "" && n.Signature() != "" {
		if isParameterRename(o.Signature(), n.Signature()) {
			deltas.ParameterRenamed = true
		} else {
			deltas.SignatureChanged = true
		}
	}

	differs := deltas.SignatureChanged || deltas.ParameterRenamed || o.Visibility() != n.Visibility()

	var issues wsengine.Issue

	if o.Kind().IsLeafMember() {
		oBody, oOK := o.Body()
		nBody, nOK := n.Body()

		if oOK && nOK {
			equal, err := wsengine.Equal(oBody, nBody, opts.WhitespaceMode, opts.Path)
			if err == nil && !equal {
				differs = true
				deltas.BodyOnlyChanged = !deltas.SignatureChanged

				if classified, mayDowngrade, classifyErr := wsanalyzer.ClassifyLeaf(oBody, nBody, opts.WhitespaceMode, opts.Path); classifyErr == nil {
					issues = classified
					deltas.WhitespaceOnly = classified != 0 && mayDowngrade
				}
			}
		}
	}

	return selfDiffResult{differs: differs, attrs: deltas, whitespaceIssues: issues}
}

// isParameterRename reports whether oldSig and newSig differ only in the
// names of their parameters: everything up to the parameter list is
// identical, the parameter count and types match position for position,
// and at least one parameter's name differs.
func isParameterRename(oldSig, newSig string) bool {
	oldPrefix, oldParams, ok := splitParameterList(oldSig)
	if !ok {
		return false
	}

	newPrefix, newParams, ok := splitParameterList(newSig)
	if !ok {
		return false
	}

	if oldPrefix != newPrefix || len(oldParams) != len(newParams) {
		return false
	}

	renamed := false

	for i := range oldParams {
		oldType, oldName := splitParameter(oldParams[i])
		newType, newName := splitParameter(newParams[i])

		if oldType != newType {
			return false
		}

		if oldName != newName {
			renamed = true
		}
	}

	return renamed
}

// splitParameterList splits a signature into the text before its
// top-level, parenthesised parameter list and the individual
// comma-separated parameter texts inside it. ok is false when the
// signature has no balanced top-level parentheses to split on.
func splitParameterList(sig string) (prefix string, params []string, ok bool) {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return "", nil, false
	}

	depth := 0
	closeIdx := -1

	for i := open; i < len(sig); i++ {
		switch sig[i] {
		case '(':
			depth++
		case ')':
			depth--

			if depth == 0 {
				closeIdx = i
			}
		}

		if closeIdx >= 0 {
			break
		}
	}

	if closeIdx < 0 {
		return "", nil, false
	}

	inner := strings.TrimSpace(sig[open+1 : closeIdx])
	if inner == "" {
		return sig[:open], nil, true
	}

	return sig[:open], splitTopLevel(inner), true
}

// splitTopLevel splits a parameter list on top-level commas, so a
// generic argument list like Dictionary<string, int> is not split
// apart.
func splitTopLevel(s string) []string {
	var parts []string

	depth := 0
	start := 0

	for i := range len(s) {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	parts = append(parts, strings.TrimSpace(s[start:]))

	return parts
}

// splitParameter splits one parameter's text into its type (every
// token but the last, covering modifiers like "ref"/"out"/"params" and
// generic types) and its name (the last token), after stripping any
// default value.
func splitParameter(p string) (typ, name string) {
	if eq := strings.IndexByte(p, '='); eq >= 0 {
		p = strings.TrimSpace(p[:eq])
	}

	fields := strings.Fields(p)
	if len(fields) == 0 {
		return "", ""
	}

	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

// upgradeCoherence implements the coherence-upgrade step of §4.4.5: if a
// change is FormattingOnly but any descendant has a stronger impact, the
// parent is upgraded to the strongest descendant impact.
func upgradeCoherence(c *resultmodel.Change) {
	if c.Impact != impact.FormattingOnly {
		return
	}

	strongest := c.Impact

	var walk func([]*resultmodel.Change)

	walk = func(cs []*resultmodel.Change) {
		for _, child := range cs {
			strongest = impact.Strongest(strongest, child.Impact)
			walk(child.Children)
		}
	}

	walk(c.Children)

	c.Impact = strongest
}

// sortByTreeOrder enforces the §3 "Tree-order stability" invariant:
// siblings ordered by new-tree position where it exists, else old-tree
// position.
func sortByTreeOrder(changes []*resultmodel.Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		return orderingLine(changes[i]) < orderingLine(changes[j])
	})
}

func orderingLine(c *resultmodel.Change) int {
	if c.NewLocation != nil {
		return c.NewLocation.StartLine
	}

	if c.OldLocation != nil {
		return c.OldLocation.StartLine
	}

	return 0
}
