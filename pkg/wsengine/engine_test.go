package wsengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode_KnownNames(t *testing.T) {
	t.Parallel()

	cases := map[string]Mode{
		"exact":                   Exact,
		"ignore_leading_trailing": IgnoreLeadingTrailing,
		"ignore_all":              IgnoreAll,
		"language_aware":          LanguageAware,
	}

	for name, want := range cases {
		got, err := ParseMode(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseMode_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseMode("bogus")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestEqual_Exact(t *testing.T) {
	t.Parallel()

	eq, err := Equal("a\n", "a \n", Exact, "f.cs")
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = Equal("a\n", "a\n", Exact, "f.cs")
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestEqual_IgnoreLeadingTrailing(t *testing.T) {
	t.Parallel()

	eq, err := Equal("  a\n", "a\n", IgnoreLeadingTrailing, "f.cs")
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal("a\n", "b\n", IgnoreLeadingTrailing, "f.cs")
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestEqual_IgnoreAll(t *testing.T) {
	t.Parallel()

	eq, err := Equal("a b\tc\n", "abc", IgnoreAll, "f.cs")
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestEqual_LanguageAware_PythonStaysExact(t *testing.T) {
	t.Parallel()

	eq, err := Equal("  a\n", "a\n", LanguageAware, "script.py")
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestEqual_LanguageAware_CSharpIgnoresIndent(t *testing.T) {
	t.Parallel()

	eq, err := Equal("  a\n", "a\n", LanguageAware, "Program.cs")
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestEqual_UnknownMode(t *testing.T) {
	t.Parallel()

	_, err := Equal("a", "a", Mode(99), "f.cs")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestLanguageMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Exact, LanguageMode("script.py"))
	assert.Equal(t, Exact, LanguageMode("Makefile"))
	assert.Equal(t, Exact, LanguageMode("build.yaml"))
	assert.Equal(t, IgnoreLeadingTrailing, LanguageMode("Program.cs"))
	assert.Equal(t, Exact, LanguageMode(""))
	assert.Equal(t, Exact, LanguageMode("noext"))
}

func TestClassify_SubstantiveChangeReturnsZero(t *testing.T) {
	t.Parallel()

	issue, err := Classify("foo\n", "bar\n", IgnoreAll, "f.cs")
	require.NoError(t, err)
	assert.Zero(t, issue)
}

func TestClassify_IndentationChanged(t *testing.T) {
	t.Parallel()

	issue, err := Classify("  a\n", "    a\n", IgnoreLeadingTrailing, "f.cs")
	require.NoError(t, err)
	assert.True(t, issue.Has(IndentationChanged))
}

func TestClassify_MixedTabsSpaces(t *testing.T) {
	t.Parallel()

	issue, err := Classify("\t a\n", "  a\n", IgnoreAll, "f.cs")
	require.NoError(t, err)
	assert.True(t, issue.Has(MixedTabsSpaces))
}

func TestClassify_TrailingWhitespace(t *testing.T) {
	t.Parallel()

	issue, err := Classify("a  \n", "a\n", IgnoreAll, "f.cs")
	require.NoError(t, err)
	assert.True(t, issue.Has(TrailingWhitespace))
}

func TestClassify_LineEndingChanged(t *testing.T) {
	t.Parallel()

	issue, err := Classify("a\r\n", "a\n", IgnoreAll, "f.cs")
	require.NoError(t, err)
	assert.True(t, issue.Has(LineEndingChanged))
}

func TestClassify_UnknownMode(t *testing.T) {
	t.Parallel()

	_, err := Classify("a", "a", Mode(99), "f.cs")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestIssue_Has(t *testing.T) {
	t.Parallel()

	issue := IndentationChanged | TrailingWhitespace

	assert.True(t, issue.Has(IndentationChanged))
	assert.True(t, issue.Has(TrailingWhitespace))
	assert.False(t, issue.Has(MixedTabsSpaces))
	assert.False(t, issue.Has(LineEndingChanged))
}
