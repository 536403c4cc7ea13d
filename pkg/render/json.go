package render

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sourcelens/semdiff/pkg/resultmodel"
)

// Metadata is the machine-readable document's metadata block, per
// spec §6: "{ schema_tag, metadata: {version, generated_at, mode,
// profiles}, summary, files: [...] }".
type Metadata struct {
	Version     string   `json:"version"`
	GeneratedAt int64    `json:"generated_at"`
	Mode        string   `json:"mode"`
	Profiles    []string `json:"profiles,omitempty"`
}

// Document is the canonical machine-readable rendering of a
// MultiFileResult (or of a single DiffResult wrapped by JSONFile).
// Nesting is always hierarchical; flatten() is exposed only as a
// helper view, never as this document's shape, per §6/§9.
type Document struct {
	SchemaTag string     `json:"schema_tag"`
	Metadata  Metadata   `json:"metadata"`
	Summary   summaryDTO `json:"summary"`
	Files     []fileDTO  `json:"files"`
}

func modeName(m resultmodel.ComparisonMode) string {
	switch m {
	case resultmodel.ComparisonRef:
		return "ref"
	default:
		return "folder"
	}
}

// JSON renders a MultiFileResult as the canonical machine-readable
// document, pretty-printed.
func JSON(result *resultmodel.MultiFileResult) ([]byte, error) {
	doc := toDocument(result)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: marshal document: %w", err)
	}

	return out, nil
}

// JSONFile renders a single-file DiffResult (diff_files-style calls,
// where there is no MultiFileResult wrapper) as the same document
// shape, with one synthetic file entry.
func JSONFile(result *resultmodel.DiffResult, oldPath, newPath string) ([]byte, error) {
	entry := resultmodel.FileEntry{
		OldPath: oldPath,
		NewPath: newPath,
		Status:  fileStatusFor(result),
		Result:  result,
	}

	summary := resultmodel.ComputeSummary([]resultmodel.FileEntry{entry})

	doc := Document{
		SchemaTag: schemaTag,
		Metadata: Metadata{
			Version:     renderVersion(),
			GeneratedAt: result.GeneratedAt,
			Mode:        "file_pair",
			Profiles:    result.Profiles,
		},
		Summary: summaryToDTO(summary),
		Files:   []fileDTO{fileEntryToDTO(entry)},
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: marshal document: %w", err)
	}

	return out, nil
}

func fileStatusFor(result *resultmodel.DiffResult) resultmodel.FileStatus {
	if result.Stats.Total == 0 {
		return resultmodel.FileUnchanged
	}

	return resultmodel.FileModified
}

func toDocument(result *resultmodel.MultiFileResult) Document {
	files := make([]fileDTO, len(result.Files))
	for i, f := range result.Files {
		files[i] = fileEntryToDTO(f)
	}

	return Document{
		SchemaTag: schemaTag,
		Metadata: Metadata{
			Version:     renderVersion(),
			GeneratedAt: summaryGeneratedAt(result),
			Mode:        modeName(result.ComparisonMode),
			Profiles:    collectProfiles(result),
		},
		Summary: summaryToDTO(result.Summary),
		Files:   files,
	}
}

// summaryGeneratedAt takes the newest per-file GeneratedAt stamp, since
// MultiFileResult itself carries no single timestamp (files fan out
// across a worker pool and finish at different times).
func summaryGeneratedAt(result *resultmodel.MultiFileResult) int64 {
	var latest int64

	for _, f := range result.Files {
		if f.Result != nil && f.Result.GeneratedAt > latest {
			latest = f.Result.GeneratedAt
		}
	}

	return latest
}

// collectProfiles unions the build profiles seen across every file,
// sorted, for the document-level metadata.profiles field.
func collectProfiles(result *resultmodel.MultiFileResult) []string {
	seen := make(map[string]struct{})

	var out []string

	for _, f := range result.Files {
		if f.Result == nil {
			continue
		}

		for _, p := range f.Result.Profiles {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}

				out = append(out, p)
			}
		}
	}

	return out
}

// FlattenChanges returns the flatten(changes) helper view required by
// §6 for legacy consumers: a pre-order sequence of every Change DTO,
// including descendants, with Children always nil so the view cannot
// be mistaken for the hierarchical document.
func FlattenChanges(changes []*resultmodel.Change) []*changeDTO {
	flat := resultmodel.Flatten(changes)

	out := make([]*changeDTO, len(flat))

	for i, c := range flat {
		dto := changeToDTO(c)
		dto.Children = nil
		out[i] = dto
	}

	return out
}

// ValidateDocument checks raw JSON bytes against the embedded machine-
// readable schema (schemaJSON, in schema.go), returning the schema
// validation errors found, if any.
func ValidateDocument(documentJSON []byte) ([]gojsonschema.ResultError, error) {
	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(documentJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("render: schema validation: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	return result.Errors(), nil
}
