package sourcetree

import "hash/fnv"

// ContentHash returns a deterministic hash of text, used by Node
// implementations to satisfy Node.Hash (64-bit FNV-1a). The tree differ's
// fast paths treat equal hashes as identical content without comparing
// the source text.
func ContentHash(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))

	return h.Sum64()
}

// CombineHash folds an ordered sequence of child hashes into a parent
// hash together with the parent's own content hash, so that a change
// anywhere below a node changes every ancestor's hash (needed for the
// fast-path short-circuit in the tree differ).
func CombineHash(self uint64, children ...uint64) uint64 {
	h := self

	for _, c := range children {
		// FNV-style mixing: multiply by the prime, fold in the child.
		h *= 1099511628211
		h ^= c
	}

	return h
}
