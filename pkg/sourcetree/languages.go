package sourcetree

import (
	"path"
	"strings"

	enry "github.com/src-d/enry/v2"

	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// DetectLanguage returns enry's best-guess language name for a file.
// Content-based analysis only runs when the extension alone is
// ambiguous; enry.GetLanguage already applies that fast path
// internally, matching the teacher's languageByExtension-then-enry
// fallback in pkg/analyzers/plumbing/languages.go.
func DetectLanguage(filePath string, content []byte) string {
	return enry.GetLanguage(path.Base(filePath), content)
}

// WhitespaceModeFor resolves the LanguageAware whitespace mode for a
// file by delegating to wsengine's extension table. content is not used
// for detection; an extension-less path resolves to Exact.
func WhitespaceModeFor(path string, content []byte) wsengine.Mode {
	if strings.TrimSpace(path) == "" && len(content) == 0 {
		return wsengine.Exact
	}

	return wsengine.LanguageMode(path)
}
