package sourcetree

import (
	"context"
	"regexp"
	"strings"
)

// vbDeclRe recognizes VB-like block declarations by their opening
// keyword line: Namespace/Class/Interface/Structure/Enum/Module at any
// indentation, capturing the visibility modifier (if any) and name.
// VB has no tree-sitter grammar in the pack, so this keyword-driven
// scanner (indentation is ignored) stands in for a real parse: it is deliberately
// conservative, only ever nesting a block inside the block whose
// matching End line has not yet been seen.
var vbDeclRe = regexp.MustCompile(
	`(?i)^\s*(Public|Private|Protected|Friend|Protected Friend)?\s*(?:(Partial|MustInherit|NotInheritable|Shared)\s+)*(Namespace|Class|Interface|Structure|Enum|Module)\s+([A-Za-z_][A-Za-z0-9_.]*)`,
)

var vbMemberRe = regexp.MustCompile(
	`(?i)^\s*(Public|Private|Protected|Friend|Protected Friend)?\s*(?:(Shared|Overridable|Overrides|MustOverride|ReadOnly)\s+)*(Sub|Function|Property)\s+([A-Za-z_][A-Za-z0-9_]*)`,
)

var vbEndRe = regexp.MustCompile(`(?i)^\s*End\s+(Namespace|Class|Interface|Structure|Enum|Module|Sub|Function|Property)\b`)

// VBParser implements Parser for VB-like source using line-oriented
// keyword scanning rather than a grammar, per spec §1's
// "fallback: any text file" clause extended to VB's explicit
// End block keywords.
type VBParser struct{}

// NewVBParser constructs a VBParser.
func NewVBParser() *VBParser { return &VBParser{} }

func (p *VBParser) Language() string    { return "VB.NET" }
func (p *VBParser) Extensions() []string { return []string{".vb"} }

func (p *VBParser) Parse(_ context.Context, path string, content []byte, _ string) (*Tree, error) {
	lines := splitLinesKeepEnds(string(content))

	var stack []*vbBuilder

	root := &vbBuilder{kind: KindOther}

	stack = append(stack, root)

	for i, line := range lines {
		lineNo := i + 1

		if m := vbDeclRe.FindStringSubmatch(line); m != nil {
			kind := vbBlockKind(m[3])
			b := &vbBuilder{
				kind:       kind,
				identifier: m[4],
				visibility: vbVisibility(m[1]),
				startLine:  lineNo,
				raw:        line,
			}
			stack[len(stack)-1].children = append(stack[len(stack)-1].children, b)
			stack = append(stack, b)

			continue
		}

		if m := vbMemberRe.FindStringSubmatch(line); m != nil {
			b := &vbBuilder{
				kind:       KindMethod,
				identifier: m[4],
				visibility: vbVisibility(m[1]),
				startLine:  lineNo,
				raw:        strings.TrimRight(line, "\r\n"),
				signature:  strings.TrimSpace(strings.TrimRight(line, "\r\n")),
			}

			if strings.Contains(strings.ToLower(m[3]), "property") {
				b.kind = KindProperty
			}

			stack[len(stack)-1].children = append(stack[len(stack)-1].children, b)

			if !strings.Contains(strings.ToLower(line), "end") {
				stack = append(stack, b)
			} else {
				b.endLine = lineNo
			}

			continue
		}

		if vbEndRe.MatchString(line) && len(stack) > 1 {
			top := stack[len(stack)-1]
			top.endLine = lineNo
			stack = stack[:len(stack)-1]
		}
	}

	for _, b := range stack[1:] {
		if b.endLine == 0 {
			b.endLine = len(lines)
		}
	}

	return &Tree{
		Path:           path,
		Language:       p.Language(),
		Roots:          root.build(lines),
		WhitespaceMode: WhitespaceModeFor(path, content),
	}, nil
}

func vbBlockKind(keyword string) Kind {
	switch strings.ToLower(keyword) {
	case "namespace":
		return KindNamespace
	case "class":
		return KindClass
	case "interface":
		return KindInterface
	case "structure":
		return KindStruct
	case "enum":
		return KindEnum
	case "module":
		return KindClass
	default:
		return KindOther
	}
}

func vbVisibility(modifier string) Visibility {
	switch strings.ToLower(modifier) {
	case "public":
		return VisibilityPublic
	case "private":
		return VisibilityPrivate
	case "protected", "protected friend":
		return VisibilityProtected
	case "friend":
		return VisibilityInternal
	default:
		return VisibilityUnknown
	}
}

// vbBuilder accumulates one declaration while scanning; build() turns
// it (and its children) into immutable Node values once line ranges are
// known.
type vbBuilder struct {
	kind       Kind
	identifier string
	visibility Visibility
	signature  string
	startLine  int
	endLine    int
	raw        string
	children   []*vbBuilder
}

func (b *vbBuilder) build(lines []string) []Node {
	out := make([]Node, 0, len(b.children))

	for _, c := range b.children {
		out = append(out, c.toNode(lines))
	}

	return out
}

func (b *vbBuilder) toNode(lines []string) Node {
	end := b.endLine
	if end == 0 {
		end = b.startLine
	}

	body := joinRange(lines, b.startLine, end)

	return &fallbackNode{
		kind:       b.kind,
		identifier: b.identifier,
		signature:  b.signature,
		visibility: b.visibility,
		span:       Span{StartLine: b.startLine, EndLine: end, StartCol: 1, EndCol: len(b.raw) + 1},
		hash:       ContentHash(body),
		children:   b.build(lines),
		body:       body,
	}
}

// TextParser is the Registry's fallback for any file whose language has
// no structural Parser: the whole file becomes a single KindOther node
// named by its path, so it still participates in Added/Removed/Modified detection at
// file granularity.
type TextParser struct{}

// NewTextParser constructs a TextParser.
func NewTextParser() *TextParser { return &TextParser{} }

func (p *TextParser) Language() string    { return "Text" }
func (p *TextParser) Extensions() []string { return nil }

func (p *TextParser) Parse(_ context.Context, path string, content []byte, _ string) (*Tree, error) {
	lines := splitLinesKeepEnds(string(content))
	endLine := len(lines)

	if endLine == 0 {
		endLine = 1
	}

	root := &fallbackNode{
		kind:       KindOther,
		identifier: path,
		span:       Span{StartLine: 1, EndLine: endLine, StartCol: 1, EndCol: 1},
		hash:       ContentHash(string(content)),
		body:       string(content),
	}

	return &Tree{
		Path:           path,
		Language:       p.Language(),
		Roots:          []Node{root},
		WhitespaceMode: WhitespaceModeFor(path, content),
	}, nil
}

// fallbackNode is the shared Node implementation for VBParser and
// TextParser, both of which determine structure by scanning text
// rather than a grammar.
type fallbackNode struct {
	kind       Kind
	identifier string
	signature  string
	visibility Visibility
	span       Span
	hash       uint64
	children   []Node
	body       string
}

func (n *fallbackNode) Kind() Kind             { return n.kind }
func (n *fallbackNode) Identifier() string     { return n.identifier }
func (n *fallbackNode) Signature() string      { return n.signature }
func (n *fallbackNode) Visibility() Visibility { return n.visibility }
func (n *fallbackNode) Span() Span             { return n.span }
func (n *fallbackNode) Hash() uint64           { return n.hash }
func (n *fallbackNode) Children() []Node       { return n.children }
func (n *fallbackNode) Body() (string, bool)   { return n.body, true }

func splitLinesKeepEnds(s string) []string {
	if s == "" {
		return nil
	}

	var lines []string

	start := 0

	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}

	if start < len(s) {
		lines = append(lines, s[start:])
	}

	return lines
}

// joinRange concatenates lines[start-1:end] (1-based, inclusive).
func joinRange(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}

	if end > len(lines) {
		end = len(lines)
	}

	if start > end {
		return ""
	}

	var b strings.Builder

	for _, l := range lines[start-1 : end] {
		b.WriteString(l)
	}

	return b.String()
}
