package sourcetree

// fileNode is a synthetic root wrapping a Tree's top-level declarations
// so every Parser output has exactly one Node per side for Diff to
// hash-compare and recurse into, regardless of how many top-level
// declarations the file contains.
type fileNode struct {
	path     string
	children []Node
	span     Span
	hash     uint64
}

// NewFileNode builds the synthetic per-file root Diff expects. roots are
// the Tree's top-level declarations (Tree.Roots).
func NewFileNode(path string, roots []Node) Node {
	span := Span{StartLine: 1, EndLine: 1, StartCol: 1, EndCol: 1}

	childHashes := make([]uint64, 0, len(roots))

	for _, r := range roots {
		s := r.Span()
		if s.EndLine > span.EndLine {
			span.EndLine = s.EndLine
		}

		childHashes = append(childHashes, r.Hash())
	}

	return &fileNode{
		path:     path,
		children: roots,
		span:     span,
		hash:     CombineHash(ContentHash(path), childHashes...),
	}
}

func (n *fileNode) Kind() Kind             { return KindOther }
func (n *fileNode) Identifier() string     { return n.path }
func (n *fileNode) Signature() string      { return "" }
func (n *fileNode) Visibility() Visibility { return VisibilityUnknown }
func (n *fileNode) Span() Span             { return n.span }
func (n *fileNode) Hash() uint64           { return n.hash }
func (n *fileNode) Children() []Node       { return n.children }
func (n *fileNode) Body() (string, bool)   { return "", false }
