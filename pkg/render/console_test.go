package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_WritesSummaryAndFilesTables(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := Console(&buf, sampleMultiFileResult(), ConsoleOptions{NoColor: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Files Added")
	assert.Contains(t, out, "Calculator.cs")
	assert.Contains(t, out, "Logger.cs")
	assert.Contains(t, out, "Broken.cs")
	assert.Contains(t, out, "parse error")
}

func TestConsole_Verbose_IncludesChangeTables(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := Console(&buf, sampleMultiFileResult(), ConsoleOptions{NoColor: true, Verbose: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Acme.Math")
	assert.Contains(t, out, "Calculator")
	assert.Contains(t, out, "Multiply")
}

func TestConsoleFile_SingleResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := ConsoleFile(&buf, sampleDiffResult(), "Calculator.cs", "Calculator.cs", ConsoleOptions{NoColor: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Calculator.cs -> Calculator.cs")
	assert.Contains(t, out, "Multiply")
}

func TestHumanizeGeneratedAt_ZeroIsUnknown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", humanizeGeneratedAt(0))
}
