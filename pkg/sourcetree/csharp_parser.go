package sourcetree

import (
	"context"
	"fmt"
	"sync"

	forest "github.com/alexaandru/go-sitter-forest"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// csharpNodeKinds maps tree-sitter's C# grammar node types to the
// structural Kind vocabulary the differ understands. Anything absent
// from this table collapses to KindOther (and is not walked further
// unless it is a container the grammar nests declarations inside, such
// as a declaration_list).
var csharpNodeKinds = map[string]Kind{
	"namespace_declaration":            KindNamespace,
	"file_scoped_namespace_declaration": KindNamespace,
	"class_declaration":                KindClass,
	"interface_declaration":            KindInterface,
	"struct_declaration":               KindStruct,
	"record_declaration":               KindRecord,
	"record_struct_declaration":        KindRecord,
	"enum_declaration":                 KindEnum,
	"method_declaration":               KindMethod,
	"constructor_declaration":          KindMethod,
	"destructor_declaration":           KindMethod,
	"operator_declaration":             KindMethod,
	"property_declaration":             KindProperty,
	"indexer_declaration":              KindProperty,
	"event_declaration":                KindProperty,
	"field_declaration":                KindField,
	"event_field_declaration":          KindField,
}

// csharpContainerKinds are grammar node types that never themselves
// become a Node but whose children must still be visited to reach the
// declarations nested inside (e.g. a class body's declaration_list).
var csharpContainerKinds = map[string]bool{
	"compilation_unit":    true,
	"declaration_list":    true,
	"global_statement":    true,
}

// CSharpParser parses C#-family source (C#, and grammars close enough
// to reuse the same node-type table) into a sourcetree.Tree via
// tree-sitter.
type CSharpParser struct {
	language *sitter.Language
	pool     sync.Pool
	initOnce sync.Once
	initErr  error
}

// NewCSharpParser constructs a CSharpParser. The tree-sitter language
// is resolved lazily on first Parse call so construction never fails.
func NewCSharpParser() *CSharpParser {
	return &CSharpParser{}
}

func (p *CSharpParser) Language() string { return "C#" }

func (p *CSharpParser) Extensions() []string { return []string{".cs"} }

func (p *CSharpParser) ensureInit() error {
	p.initOnce.Do(func() {
		var lang *sitter.Language

		func() {
			defer func() {
				_ = recover() //nolint:errcheck // forest.GetLanguage panics for unregistered names
			}()

			lang = forest.GetLanguage("c_sharp")
		}()

		if lang == nil {
			p.initErr = fmt.Errorf("sourcetree: tree-sitter grammar c_sharp not available")
			return
		}

		p.language = lang
		p.pool = sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		}
	})

	return p.initErr
}

// Parse implements Parser.
func (p *CSharpParser) Parse(ctx context.Context, path string, content []byte, _ string) (*Tree, error) {
	if err := p.ensureInit(); err != nil {
		return nil, &ParseError{Path: path, Reason: err}
	}

	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, &ParseError{Path: path, Reason: fmt.Errorf("sourcetree: parser pool returned unexpected type")}
	}
	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, &ParseError{Path: path, Reason: fmt.Errorf("sourcetree: empty parse tree")}
	}

	w := &csharpWalker{source: content}
	roots := w.walkChildren(root)

	return &Tree{
		Path:           path,
		Language:       p.Language(),
		Roots:          roots,
		WhitespaceMode: WhitespaceModeFor(path, content),
	}, nil
}

// csharpWalker turns a tree-sitter parse into sourcetree.Node values.
// It is created fresh per Parse call; it is not safe for concurrent use.
type csharpWalker struct {
	source []byte
}

// walkChildren visits n's children, producing one Node per declaration
// and recursing through container nodes to reach nested declarations.
func (w *csharpWalker) walkChildren(n sitter.Node) []Node {
	var out []Node

	count := n.NamedChildCount()

	for i := range count {
		child := n.NamedChild(i)
		if child.IsNull() {
			continue
		}

		typ := child.Type()

		if kind, ok := csharpNodeKinds[typ]; ok {
			out = append(out, w.buildNode(child, kind))
			continue
		}

		if csharpContainerKinds[typ] {
			out = append(out, w.walkChildren(child)...)
			continue
		}

		out = append(out, w.walkChildren(child)...)
	}

	return out
}

func (w *csharpWalker) buildNode(n sitter.Node, kind Kind) Node {
	identifier := w.fieldText(n, "name")
	if identifier == "" && kind == KindField {
		identifier = w.firstDeclaratorName(n)
	}

	visibility := w.visibilityOf(n)
	signature := w.signatureOf(n, kind)
	span := w.spanOf(n)
	body := w.textOf(n)

	var children []Node
	if bodyNode := n.ChildByFieldName("body"); !bodyNode.IsNull() {
		children = w.walkChildren(bodyNode)
	} else {
		children = w.walkChildren(n)
	}

	return &csharpNode{
		kind:       kind,
		identifier: identifier,
		signature:  signature,
		visibility: visibility,
		span:       span,
		hash:       ContentHash(body),
		children:   children,
		body:       body,
	}
}

func (w *csharpWalker) fieldText(n sitter.Node, field string) string {
	fieldNode := n.ChildByFieldName(field)
	if fieldNode.IsNull() {
		return ""
	}

	return w.textOf(fieldNode)
}

// firstDeclaratorName handles field_declaration, whose name lives on a
// nested variable_declarator rather than directly on a "name" field.
func (w *csharpWalker) firstDeclaratorName(n sitter.Node) string {
	count := n.NamedChildCount()

	for i := range count {
		child := n.NamedChild(i)
		if child.Type() != "variable_declaration" {
			continue
		}

		declCount := child.NamedChildCount()

		for j := range declCount {
			decl := child.NamedChild(j)
			if decl.Type() != "variable_declarator" {
				continue
			}

			return w.fieldText(decl, "name")
		}
	}

	return ""
}

// signatureOf builds the canonical signature for members: everything
// between the declaration's start and its body/init, so a parameter
// rename or type change shows up while the body does not.
func (w *csharpWalker) signatureOf(n sitter.Node, kind Kind) string {
	if !kind.IsLeafMember() {
		return ""
	}

	start := n.StartByte()
	end := n.EndByte()

	if bodyNode := n.ChildByFieldName("body"); !bodyNode.IsNull() {
		end = bodyNode.StartByte()
	}

	return w.sliceBytes(start, end)
}

func (w *csharpWalker) visibilityOf(n sitter.Node) Visibility {
	count := n.NamedChildCount()

	for i := range count {
		child := n.NamedChild(i)
		if child.Type() != "modifier" {
			continue
		}

		switch w.textOf(child) {
		case "public":
			return VisibilityPublic
		case "private":
			return VisibilityPrivate
		case "protected", "protected internal", "private protected":
			return VisibilityProtected
		case "internal":
			return VisibilityInternal
		}
	}

	return VisibilityUnknown
}

func (w *csharpWalker) spanOf(n sitter.Node) Span {
	start := n.StartPoint()
	end := n.EndPoint()

	return Span{
		StartLine: int(start.Row) + 1,
		EndLine:   int(end.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndCol:    int(end.Column) + 1,
	}
}

func (w *csharpWalker) textOf(n sitter.Node) string {
	return w.sliceBytes(n.StartByte(), n.EndByte())
}

func (w *csharpWalker) sliceBytes(start, end uint) string {
	if int(end) > len(w.source) || start > end {
		return ""
	}

	return string(w.source[start:end])
}

// csharpNode is the concrete Node implementation produced by CSharpParser.
type csharpNode struct {
	kind       Kind
	identifier string
	signature  string
	visibility Visibility
	span       Span
	hash       uint64
	children   []Node
	body       string
}

func (n *csharpNode) Kind() Kind             { return n.kind }
func (n *csharpNode) Identifier() string     { return n.identifier }
func (n *csharpNode) Signature() string      { return n.signature }
func (n *csharpNode) Visibility() Visibility { return n.visibility }
func (n *csharpNode) Span() Span             { return n.span }
func (n *csharpNode) Hash() uint64           { return n.hash }
func (n *csharpNode) Children() []Node       { return n.children }
func (n *csharpNode) Body() (string, bool)   { return n.body, true }
