package mcpserver

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameDiffFiles = "diff_files"
	ToolNameDiffRefs  = "diff_refs"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates that old_code and new_code are both empty.
	ErrEmptyCode = errors.New("old_code and new_code must not both be empty")
	// ErrEmptyLanguage indicates the language parameter is empty.
	ErrEmptyLanguage = errors.New("language parameter is required and must not be empty")
	// ErrCodeTooLarge indicates a code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrEmptyRepoPath indicates the repo_path parameter is empty.
	ErrEmptyRepoPath = errors.New("repo_path parameter is required and must not be empty")
	// ErrEmptyRange indicates the range parameter is empty.
	ErrEmptyRange = errors.New("range parameter is required and must not be empty")
)

// DiffFilesInput is the input schema for the diff_files tool.
type DiffFilesInput struct {
	OldCode             string   `json:"old_code,omitempty"             jsonschema:"previous version of the source (empty means the file is newly added)"`
	NewCode             string   `json:"new_code,omitempty"             jsonschema:"new version of the source (empty means the file was removed)"`
	Language            string   `json:"language"                       jsonschema:"programming language (e.g. csharp vb)"`
	WhitespaceMode      string   `json:"whitespace_mode,omitempty"      jsonschema:"one of exact, ignore_leading_trailing, ignore_all, language_aware"`
	SimilarityThreshold float64  `json:"similarity_threshold,omitempty" jsonschema:"0..1 threshold for move/rename matching (default 0.8)"`
	MoveThreshold       int      `json:"move_threshold,omitempty"       jsonschema:"sibling-slot delta above which a match is reported Moved (default 1)"`
	IncludeContent      bool     `json:"include_content,omitempty"      jsonschema:"retain old/new body text on leaf changes"`
	BuildProfiles       []string `json:"build_profiles,omitempty"       jsonschema:"optional build-profile tags to diff under and merge"`
}

// DiffRefsInput is the input schema for the diff_refs tool.
type DiffRefsInput struct {
	RepoPath       string   `json:"repo_path"                 jsonschema:"absolute path to a Git repository"`
	Range          string   `json:"range"                     jsonschema:"a ref range expression, e.g. main..feature or HEAD~1..HEAD"`
	WhitespaceMode string   `json:"whitespace_mode,omitempty" jsonschema:"one of exact, ignore_leading_trailing, ignore_all, language_aware"`
	IncludeGlobs   []string `json:"include_globs,omitempty"   jsonschema:"glob patterns selecting which changed paths to diff"`
	ExcludeGlobs   []string `json:"exclude_globs,omitempty"   jsonschema:"glob patterns excluding changed paths from the diff"`
	Concurrency    int      `json:"concurrency,omitempty"     jsonschema:"bounded worker pool size (default 8)"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateDiffFilesInput(input DiffFilesInput) error {
	if input.OldCode == "" && input.NewCode == "" {
		return ErrEmptyCode
	}

	if input.Language == "" {
		return ErrEmptyLanguage
	}

	if len(input.OldCode) > MaxCodeInputBytes || len(input.NewCode) > MaxCodeInputBytes {
		return fmt.Errorf("%w: max %d bytes", ErrCodeTooLarge, MaxCodeInputBytes)
	}

	return nil
}

func validateDiffRefsInput(input DiffRefsInput) error {
	if input.RepoPath == "" {
		return ErrEmptyRepoPath
	}

	if input.Range == "" {
		return ErrEmptyRange
	}

	return nil
}

// syntheticFilename creates a filename from a language identifier for the parser.
func syntheticFilename(language string) string {
	return "code." + language
}
