package render

import (
	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
)

// sampleChanges builds a small, realistic change tree: a Modified
// namespace containing a Modified class with one Added method
// (BreakingPublicApi) and one Modified method (NonBreaking).
func sampleChanges() []*resultmodel.Change {
	added := resultmodel.NewChangeBuilder(sourcetree.KindMethod, resultmodel.Added, "Multiply").
		WithNewLocation(sourcetree.Span{StartLine: 10, EndLine: 12, StartCol: 1, EndCol: 1}).
		WithNewContent("public int Multiply(int a, int b) => a * b;").
		WithVisibility(sourcetree.VisibilityPublic).
		WithImpact(impact.BreakingPublicApi, "New public member").
		Build()

	modifiedMethod := resultmodel.NewChangeBuilder(sourcetree.KindMethod, resultmodel.Modified, "Add").
		WithOldLocation(sourcetree.Span{StartLine: 3, EndLine: 5, StartCol: 1, EndCol: 1}).
		WithNewLocation(sourcetree.Span{StartLine: 3, EndLine: 6, StartCol: 1, EndCol: 1}).
		WithOldContent("public int Add(int a, int b) => a + b;").
		WithNewContent("public int Add(int a, int b)\n{\n    return a + b;\n}").
		WithVisibility(sourcetree.VisibilityPublic).
		WithImpact(impact.NonBreaking).
		Build()

	class := resultmodel.NewChangeBuilder(sourcetree.KindClass, resultmodel.Modified, "Calculator").
		WithVisibility(sourcetree.VisibilityPublic).
		WithImpact(impact.NonBreaking).
		AddChild(modifiedMethod).
		AddChild(added).
		Build()

	namespace := resultmodel.NewChangeBuilder(sourcetree.KindNamespace, resultmodel.Modified, "Acme.Math").
		WithVisibility(sourcetree.VisibilityPublic).
		WithImpact(impact.NonBreaking).
		AddChild(class).
		Build()

	return []*resultmodel.Change{namespace}
}

func sampleDiffResult() *resultmodel.DiffResult {
	changes := sampleChanges()

	return &resultmodel.DiffResult{
		Mode:        resultmodel.ModeFilePair,
		Changes:     changes,
		Stats:       resultmodel.ComputeStats(changes),
		GeneratedAt: 1700000000,
	}
}

func sampleMultiFileResult() *resultmodel.MultiFileResult {
	modified := resultmodel.FileEntry{
		OldPath: "Calculator.cs",
		NewPath: "Calculator.cs",
		Status:  resultmodel.FileModified,
		Result:  sampleDiffResult(),
	}

	added := resultmodel.FileEntry{
		NewPath: "Logger.cs",
		Status:  resultmodel.FileAdded,
		Result: &resultmodel.DiffResult{
			Mode: resultmodel.ModeFolder,
			Stats: resultmodel.Stats{
				Total: 1, Added: 1, NonBreaking: 1,
			},
			GeneratedAt: 1700000010,
		},
	}

	errored := resultmodel.FileEntry{
		OldPath: "Broken.cs",
		NewPath: "Broken.cs",
		Status:  resultmodel.FileError,
		Error:   "parse error: unexpected token",
	}

	files := []resultmodel.FileEntry{modified, added, errored}

	return &resultmodel.MultiFileResult{
		ComparisonMode: resultmodel.ComparisonFolder,
		OldRoot:        "old/",
		NewRoot:        "new/",
		Files:          files,
		Summary:        resultmodel.ComputeSummary(files),
	}
}
