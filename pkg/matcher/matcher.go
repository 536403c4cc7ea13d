// Package matcher implements NodeMatcher (component C3): given two
// ordered sequences of sibling declarations, it pairs up nodes that
// represent "the same" declaration across old and new trees using
// identity, then signature, then content similarity, and reports what is
// left over as additions/removals.
package matcher

import (
	"sort"
	"strconv"

	"github.com/sourcelens/semdiff/pkg/alg/lsh"
	"github.com/sourcelens/semdiff/pkg/alg/minhash"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
)

// DefaultSimilarityThreshold is the §4.3 step-3 default.
const DefaultSimilarityThreshold = 0.8

// defaultMoveThreshold mirrors §6's move_threshold default; TreeDiffer
// reads it off Options, NodeMatcher itself never synthesizes Moved.
const defaultMoveThreshold = 1

// lshCandidateThreshold is the minimum number of same-kind candidates on
// either side before the similarity pass builds an LSH index instead of
// doing a plain O(n²) pairwise scan; below this the fixed cost of
// building minhash signatures and band indices isn't worth it.
const lshCandidateThreshold = 24

const minhashPermutations = 64

const lshBands = 16

const lshRowsPerBand = minhashPermutations / lshBands

// Pair is one matched (old index, new index) pair. Renamed is true when
// the pairing came from the signature-based step with differing names.
type Pair struct {
	OldIdx  int
	NewIdx  int
	Renamed bool
}

// Result is the output of Match: matched pairs plus what's left on each
// side.
type Result struct {
	Pairs   []Pair
	OldOnly []int
	NewOnly []int
}

// Match pairs old and new's sibling declarations per §4.3's four-step
// algorithm: exact identity, signature-based rename detection, content
// similarity, then whatever remains becomes old_only/new_only.
func Match(old, new []sourcetree.Node, similarityThreshold float64) Result { //nolint:revive // old/new mirrors spec vocabulary.
	if similarityThreshold <= 0 {
		similarityThreshold = DefaultSimilarityThreshold
	}

	oldRemaining := indexSet(len(old))
	newRemaining := indexSet(len(new))

	var pairs []Pair

	pairs = matchIdentity(old, new, oldRemaining, newRemaining, pairs)
	pairs = matchSignature(old, new, oldRemaining, newRemaining, pairs)
	pairs = matchSimilarity(old, new, oldRemaining, newRemaining, pairs, similarityThreshold)

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].NewIdx < pairs[j].NewIdx })

	return Result{
		Pairs:   pairs,
		OldOnly: sortedKeys(oldRemaining),
		NewOnly: sortedKeys(newRemaining),
	}
}

func indexSet(n int) map[int]struct{} {
	set := make(map[int]struct{}, n)
	for i := range n {
		set[i] = struct{}{}
	}

	return set
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	sort.Ints(out)

	return out
}

type identityKey struct {
	kind      sourcetree.Kind
	name      string
	signature string
}

// matchIdentity pairs nodes with identical (kind, name, signature),
// breaking ties by closest old-position to new-position.
func matchIdentity(old, new []sourcetree.Node, oldRemaining, newRemaining map[int]struct{}, pairs []Pair) []Pair {
	byKey := make(map[identityKey][]int, len(new))

	for j := range new {
		k := keyOf(new[j])
		byKey[k] = append(byKey[k], j)
	}

	for i := range old {
		k := keyOf(old[i])

		candidates := byKey[k]
		if len(candidates) == 0 {
			continue
		}

		best, bestDist := -1, -1

		for _, j := range candidates {
			if _, taken := newRemaining[j]; !taken {
				continue
			}

			dist := abs(i - j)
			if best == -1 || dist < bestDist {
				best, bestDist = j, dist
			}
		}

		if best == -1 {
			continue
		}

		pairs = append(pairs, Pair{OldIdx: i, NewIdx: best})
		delete(oldRemaining, i)
		delete(newRemaining, best)
	}

	return pairs
}

func keyOf(n sourcetree.Node) identityKey {
	return identityKey{kind: n.Kind(), name: n.Identifier(), signature: n.Signature()}
}

// matchSignature pairs remaining Method/Property/Field nodes whose
// signature is identical even when their name differs (a rename).
func matchSignature(old, new []sourcetree.Node, oldRemaining, newRemaining map[int]struct{}, pairs []Pair) []Pair {
	bySignature := make(map[string][]int, len(newRemaining))

	for j := range newRemaining {
		n := new[j]
		if !n.Kind().IsLeafMember() || n.Signature() == "" {
			continue
		}

		bySignature[n.Signature()] = append(bySignature[n.Signature()], j)
	}

	for i := range oldRemaining {
		o := old[i]
		if !o.Kind().IsLeafMember() || o.Signature() == "" {
			continue
		}

		candidates := bySignature[o.Signature()]
		if len(candidates) == 0 {
			continue
		}

		best, bestDist := -1, -1

		for _, j := range candidates {
			if _, taken := newRemaining[j]; !taken {
				continue
			}

			dist := abs(i - j)
			if best == -1 || dist < bestDist {
				best, bestDist = j, dist
			}
		}

		if best == -1 {
			continue
		}

		pairs = append(pairs, Pair{OldIdx: i, NewIdx: best, Renamed: old[i].Identifier() != new[best].Identifier()})
		delete(oldRemaining, i)
		delete(newRemaining, best)
	}

	return pairs
}

// matchSimilarity greedily pairs remaining same-kind nodes whose
// similarity score is ≥ threshold, highest first, each used at most
// once, tie-broken by positional distance. For large candidate sets it
// builds a MinHash/LSH index to avoid an O(n²) pairwise scan.
func matchSimilarity(
	old, new []sourcetree.Node,
	oldRemaining, newRemaining map[int]struct{},
	pairs []Pair,
	threshold float64,
) []Pair {
	byKind := make(map[sourcetree.Kind][]int)
	for j := range newRemaining {
		k := new[j].Kind()
		byKind[k] = append(byKind[k], j)
	}

	type candidate struct {
		oldIdx, newIdx int
		score          float64
	}

	var candidates []candidate

	for i := range oldRemaining {
		o := old[i]

		sameKind := byKind[o.Kind()]
		if len(sameKind) == 0 {
			continue
		}

		if len(sameKind) >= lshCandidateThreshold {
			for _, j := range lshCandidates(o, new, sameKind) {
				if score := similarity(o, new[j]); score >= threshold {
					candidates = append(candidates, candidate{i, j, score})
				}
			}

			continue
		}

		for _, j := range sameKind {
			if score := similarity(o, new[j]); score >= threshold {
				candidates = append(candidates, candidate{i, j, score})
			}
		}
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}

		return abs(candidates[a].oldIdx-candidates[a].newIdx) < abs(candidates[b].oldIdx-candidates[b].newIdx)
	})

	for _, c := range candidates {
		if _, ok := oldRemaining[c.oldIdx]; !ok {
			continue
		}

		if _, ok := newRemaining[c.newIdx]; !ok {
			continue
		}

		pairs = append(pairs, Pair{
			OldIdx:  c.oldIdx,
			NewIdx:  c.newIdx,
			Renamed: old[c.oldIdx].Identifier() != new[c.newIdx].Identifier(),
		})
		delete(oldRemaining, c.oldIdx)
		delete(newRemaining, c.newIdx)
	}

	return pairs
}

// lshCandidates narrows sameKind down to the nodes whose MinHash
// signature lands in the same LSH band as o, instead of scoring every
// same-kind node on the new side.
func lshCandidates(o sourcetree.Node, new []sourcetree.Node, sameKind []int) []int {
	index, err := lsh.New(lshBands, lshRowsPerBand)
	if err != nil {
		return sameKind
	}

	for _, j := range sameKind {
		sig, sigErr := signatureOf(new[j])
		if sigErr != nil {
			continue
		}

		_ = index.Insert(strconv.Itoa(j), sig)
	}

	oSig, err := signatureOf(o)
	if err != nil {
		return sameKind
	}

	ids, err := index.Query(oSig)
	if err != nil || len(ids) == 0 {
		return sameKind
	}

	out := make([]int, 0, len(ids))

	for _, id := range ids {
		if idx, convErr := strconv.Atoi(id); convErr == nil {
			out = append(out, idx)
		}
	}

	return out
}

func signatureOf(n sourcetree.Node) (*minhash.Signature, error) {
	sig, err := minhash.New(minhashPermutations)
	if err != nil {
		return nil, err
	}

	body, _ := n.Body()

	for _, token := range tokenize(body + n.Identifier() + n.Signature()) {
		sig.Add([]byte(token))
	}

	return sig, nil
}

// similarity scores o and n in [0,1] using content hash equality,
// child-count proximity and a normalised token-bag overlap, per §4.3
// step 3.
func similarity(o, n sourcetree.Node) float64 {
	if o.Hash() == n.Hash() {
		return 1
	}

	const (
		childWeight = 0.3
		tokenWeight = 0.7
	)

	childScore := childCountScore(len(o.Children()), len(n.Children()))

	oBody, _ := o.Body()
	nBody, _ := n.Body()
	tokenScore := tokenOverlap(tokenize(oBody), tokenize(nBody))

	return childWeight*childScore + tokenWeight*tokenScore
}

func childCountScore(a, b int) float64 {
	if a == 0 && b == 0 {
		return 1
	}

	maxV, minV := a, b
	if minV > maxV {
		maxV, minV = minV, maxV
	}

	if maxV == 0 {
		return 1
	}

	return float64(minV) / float64(maxV)
}

func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	var intersection int

	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1
	}

	return float64(intersection) / float64(union)
}

func tokenize(text string) []string {
	var tokens []string

	start := -1

	isWordByte := func(b byte) bool {
		return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
	}

	for i := range len(text) {
		if isWordByte(text[i]) {
			if start == -1 {
				start = i
			}

			continue
		}

		if start != -1 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
	}

	if start != -1 {
		tokens = append(tokens, text[start:])
	}

	return tokens
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}

