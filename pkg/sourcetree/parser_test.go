package sourcetree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	lang string
	exts []string
}

func (p stubParser) Language() string    { return p.lang }
func (p stubParser) Extensions() []string { return p.exts }

func (p stubParser) Parse(_ context.Context, path string, _ []byte, _ string) (*Tree, error) {
	return &Tree{Path: path, Language: p.lang}, nil
}

func TestRegistry_LookupByExtension(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubParser{lang: "Ruby", exts: []string{".rb"}})

	p, ok := r.Lookup("Widget.rb", "")
	require.True(t, ok)
	assert.Equal(t, "Ruby", p.Language())
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubParser{lang: "Ruby", exts: []string{".rb"}})

	_, ok := r.Lookup("Widget.RB", "")
	assert.True(t, ok)
}

func TestRegistry_LangHintTakesPriorityOverExtension(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubParser{lang: "Ruby", exts: []string{".rb"}})
	r.Register(stubParser{lang: "Crystal", exts: []string{".cr"}})

	p, ok := r.Lookup("Widget.rb", "Crystal")
	require.True(t, ok)
	assert.Equal(t, "Crystal", p.Language())
}

func TestRegistry_FallbackUsedWhenNoMatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.SetFallback(stubParser{lang: "Text"})

	p, ok := r.Lookup("Widget.unknownext", "")
	require.True(t, ok)
	assert.Equal(t, "Text", p.Language())
}

func TestRegistry_NoMatchAndNoFallback(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	_, ok := r.Lookup("Widget.unknownext", "")
	assert.False(t, ok)
}

func TestRegistry_LaterRegisterReplacesEarlierForSameExtension(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubParser{lang: "Old", exts: []string{".x"}})
	r.Register(stubParser{lang: "New", exts: []string{".x"}})

	p, ok := r.Lookup("f.x", "")
	require.True(t, ok)
	assert.Equal(t, "New", p.Language())
}

func TestRegistry_Parse_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	_, err := r.Parse(context.Background(), "f.unknown", nil, "")

	var parseErr *ParseError

	require.ErrorAs(t, err, &parseErr)
	assert.True(t, errors.Is(err, errUnsupportedLanguage))
}

func TestRegistry_Parse_DispatchesToRegisteredParser(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(stubParser{lang: "Ruby", exts: []string{".rb"}})

	tree, err := r.Parse(context.Background(), "f.rb", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Ruby", tree.Language)
}

func TestNewDefaultRegistry_ResolvesCSharpVBAndFallback(t *testing.T) {
	t.Parallel()

	r := NewDefaultRegistry()

	p, ok := r.Lookup("Widget.cs", "")
	require.True(t, ok)
	assert.Equal(t, "C#", p.Language())

	p, ok = r.Lookup("Module1.vb", "")
	require.True(t, ok)
	assert.Equal(t, "VB.NET", p.Language())

	p, ok = r.Lookup("notes.txt", "")
	require.True(t, ok)
	assert.Equal(t, "Text", p.Language())
}
