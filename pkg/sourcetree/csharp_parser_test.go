package sourcetree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSharpParser_ClassWithMethodAndField(t *testing.T) {
	t.Parallel()

	src := []byte(`namespace Acme {
    public class Widget {
        private int count;

        public int Compute() {
            return count;
        }
    }
}
`)

	p := NewCSharpParser()

	tree, err := p.Parse(context.Background(), "Widget.cs", src, "")
	require.NoError(t, err)

	require.Len(t, tree.Roots, 1)

	ns := tree.Roots[0]
	assert.Equal(t, KindNamespace, ns.Kind())
	assert.Equal(t, "Acme", ns.Identifier())

	require.Len(t, ns.Children(), 1)

	class := ns.Children()[0]
	assert.Equal(t, KindClass, class.Kind())
	assert.Equal(t, "Widget", class.Identifier())
	assert.Equal(t, VisibilityPublic, class.Visibility())

	var methodFound, fieldFound bool

	for _, member := range class.Children() {
		switch member.Kind() {
		case KindMethod:
			methodFound = true
			assert.Equal(t, "Compute", member.Identifier())
			assert.Equal(t, VisibilityPublic, member.Visibility())
			assert.Contains(t, member.Signature(), "Compute")
		case KindField:
			fieldFound = true
			assert.Equal(t, VisibilityPrivate, member.Visibility())
		}
	}

	assert.True(t, methodFound, "expected a method declaration among class members")
	assert.True(t, fieldFound, "expected a field declaration among class members")
}

func TestCSharpParser_EmptyFileYieldsNoRoots(t *testing.T) {
	t.Parallel()

	p := NewCSharpParser()

	tree, err := p.Parse(context.Background(), "Empty.cs", []byte(""), "")
	require.NoError(t, err)
	assert.Empty(t, tree.Roots)
}

func TestCSharpParser_LanguageAndExtensions(t *testing.T) {
	t.Parallel()

	p := NewCSharpParser()

	assert.Equal(t, "C#", p.Language())
	assert.Equal(t, []string{".cs"}, p.Extensions())
}

func TestCSharpParser_HashDiffersWhenBodyChanges(t *testing.T) {
	t.Parallel()

	p := NewCSharpParser()

	first := `public class Widget { public int Compute() { return 1; } }`
	second := `public class Widget { public int Compute() { return 2; } }`

	treeA, err := p.Parse(context.Background(), "a.cs", []byte(first), "")
	require.NoError(t, err)

	treeB, err := p.Parse(context.Background(), "b.cs", []byte(second), "")
	require.NoError(t, err)

	require.Len(t, treeA.Roots, 1)
	require.Len(t, treeB.Roots, 1)
	assert.NotEqual(t, treeA.Roots[0].Hash(), treeB.Roots[0].Hash())
}
