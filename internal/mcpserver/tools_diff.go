package mcpserver

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sourcelens/semdiff/pkg/driver"
	"github.com/sourcelens/semdiff/pkg/filterengine"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
	"github.com/sourcelens/semdiff/pkg/treediff"
	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// handleDiffFiles processes diff_files tool calls: it parses old_code and
// new_code as a single file pair and returns the structural Change tree.
func handleDiffFiles(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input DiffFilesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateDiffFilesInput(input)
	if err != nil {
		return errorResult(err)
	}

	mode, err := resolveMode(input.WhitespaceMode)
	if err != nil {
		return errorResult(err)
	}

	registry := sourcetree.NewDefaultRegistry()
	filename := syntheticFilename(input.Language)

	oldRoot, err := parseOptional(ctx, registry, filename, input.Language, input.OldCode)
	if err != nil {
		return errorResult(fmt.Errorf("parse old_code: %w", err))
	}

	newRoot, err := parseOptional(ctx, registry, filename, input.Language, input.NewCode)
	if err != nil {
		return errorResult(fmt.Errorf("parse new_code: %w", err))
	}

	profiles := input.BuildProfiles
	if len(profiles) == 0 {
		profiles = []string{""}
	}

	perProfile := make(map[string][]*resultmodel.Change, len(profiles))

	for _, profile := range profiles {
		opts := treediff.Options{
			WhitespaceMode:      mode,
			SimilarityThreshold: input.SimilarityThreshold,
			MoveThreshold:       input.MoveThreshold,
			IncludeContent:      input.IncludeContent,
			Profile:             profile,
			Path:                filename,
		}

		perProfile[profile] = treediff.Diff(oldRoot, newRoot, opts)
	}

	changes := treediff.MergeProfiles(perProfile)

	result := &resultmodel.DiffResult{
		Mode:        resultmodel.ModeFilePair,
		Profiles:    input.BuildProfiles,
		Changes:     changes,
		Stats:       resultmodel.ComputeStats(changes),
		GeneratedAt: time.Now().Unix(),
	}

	return jsonResult(result)
}

// handleDiffRefs processes diff_refs tool calls: it resolves a Git ref
// range against repo_path and diffs every changed path.
func handleDiffRefs(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input DiffRefsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateDiffRefsInput(input)
	if err != nil {
		return errorResult(err)
	}

	mode, err := resolveMode(input.WhitespaceMode)
	if err != nil {
		return errorResult(err)
	}

	filter, err := filterengine.Compile(input.IncludeGlobs, input.ExcludeGlobs)
	if err != nil {
		return errorResult(fmt.Errorf("compile filter: %w", err))
	}

	d, err := driver.New(driver.Options{
		Registry:    sourcetree.NewDefaultRegistry(),
		Filter:      filter,
		DiffOptions: treediff.Options{WhitespaceMode: mode},
		Concurrency: input.Concurrency,
	})
	if err != nil {
		return errorResult(err)
	}

	multiResult, err := d.DiffRefRange(ctx, input.RepoPath, input.Range)
	if err != nil {
		return errorResult(fmt.Errorf("diff ref range: %w", err))
	}

	return jsonResult(multiResult)
}

func resolveMode(s string) (wsengine.Mode, error) {
	if s == "" {
		return wsengine.LanguageAware, nil
	}

	return wsengine.ParseMode(s)
}

// parseOptional parses code into a file-level root node, or returns nil
// when code is empty (a legitimate Added/Removed signal, matching
// driver.parseSide).
func parseOptional(ctx context.Context, registry *sourcetree.Registry, filename, langHint, code string) (sourcetree.Node, error) {
	if code == "" {
		return nil, nil //nolint:nilnil // absence is Added/Removed, not an error
	}

	tree, err := registry.Parse(ctx, filename, []byte(code), langHint)
	if err != nil {
		return nil, err
	}

	return sourcetree.NewFileNode(filename, tree.Roots), nil
}
