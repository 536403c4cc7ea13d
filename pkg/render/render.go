// Package render turns the in-memory DiffResult / MultiFileResult tree
// (pkg/resultmodel) into bytes: a machine-readable JSON schema, an HTML
// document or embeddable fragment, a unified-diff text view, and a
// console report, per spec §6's rendering contracts.
//
// Renderers are read-only consumers of the result tree. None of them
// re-derive impact or caveats; they format what the classifier already
// decided, matching §4.2's "one decision table" rule.
package render

import (
	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
	"github.com/sourcelens/semdiff/pkg/version"
	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// schemaTag identifies the machine-readable document shape so consumers
// can version their parsers independently of the semdiff release.
const schemaTag = "semdiff.diff/v1"

// changeDTO is the JSON/console wire shape of a resultmodel.Change. It
// exists because Change carries no json tags of its own (§9 "Ownership
// of large text" keeps the in-memory type render-agnostic).
type changeDTO struct {
	Kind               string       `json:"kind"`
	Type               string       `json:"type"`
	Name               string       `json:"name"`
	OldLocation        *spanDTO     `json:"old_location,omitempty"`
	NewLocation        *spanDTO     `json:"new_location,omitempty"`
	OldContent         string       `json:"old_content,omitempty"`
	NewContent         string       `json:"new_content,omitempty"`
	Impact             string       `json:"impact"`
	Visibility         string       `json:"visibility"`
	ApplicableProfiles []string     `json:"applicable_profiles,omitempty"`
	WhitespaceIssues   []string     `json:"whitespace_issues,omitempty"`
	Caveats            []string     `json:"caveats,omitempty"`
	Children           []*changeDTO `json:"children,omitempty"`
}

type spanDTO struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
	StartCol  int `json:"start_col"`
	EndCol    int `json:"end_col"`
}

// statsDTO is the JSON/console wire shape of resultmodel.Stats.
type statsDTO struct {
	Total            int `json:"total"`
	Added            int `json:"added"`
	Removed          int `json:"removed"`
	Modified         int `json:"modified"`
	BreakingPublic   int `json:"breaking_public"`
	BreakingInternal int `json:"breaking_internal"`
	NonBreaking      int `json:"non_breaking"`
	FormattingOnly   int `json:"formatting_only"`
}

// summaryDTO is the JSON/console wire shape of resultmodel.Summary.
type summaryDTO struct {
	statsDTO
	FilesAdded    int `json:"files_added"`
	FilesRemoved  int `json:"files_removed"`
	FilesModified int `json:"files_modified"`
	FilesErrored  int `json:"files_errored"`
}

// fileDTO is the JSON/console wire shape of one resultmodel.FileEntry.
type fileDTO struct {
	OldPath  string       `json:"old_path,omitempty"`
	NewPath  string       `json:"new_path,omitempty"`
	Status   string       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Changes  []*changeDTO `json:"changes,omitempty"`
	Stats    *statsDTO    `json:"stats,omitempty"`
	Profiles []string     `json:"profiles,omitempty"`
}

// spanToDTO converts a *sourcetree.Span, passing through nil.
func spanToDTO(s *sourcetree.Span) *spanDTO {
	if s == nil {
		return nil
	}

	return &spanDTO{StartLine: s.StartLine, EndLine: s.EndLine, StartCol: s.StartCol, EndCol: s.EndCol}
}

// whitespaceIssueNames lists the Issue bits in a stable, documented order.
var whitespaceIssueNames = []struct {
	bit  wsengine.Issue
	name string
}{
	{wsengine.IndentationChanged, "IndentationChanged"},
	{wsengine.MixedTabsSpaces, "MixedTabsSpaces"},
	{wsengine.TrailingWhitespace, "TrailingWhitespace"},
	{wsengine.LineEndingChanged, "LineEndingChanged"},
}

// issueNames expands an Issue bitset into its named bits, in fixed order.
func issueNames(issue wsengine.Issue) []string {
	var names []string

	for _, entry := range whitespaceIssueNames {
		if issue.Has(entry.bit) {
			names = append(names, entry.name)
		}
	}

	return names
}

func changeToDTO(c *resultmodel.Change) *changeDTO {
	dto := &changeDTO{
		Kind:               c.Kind.String(),
		Type:               c.Type.String(),
		Name:               c.Name,
		OldLocation:        spanToDTO(c.OldLocation),
		NewLocation:        spanToDTO(c.NewLocation),
		Impact:             c.Impact.String(),
		Visibility:         c.Visibility.String(),
		ApplicableProfiles: c.ProfileSet(),
		WhitespaceIssues:   issueNames(c.WhitespaceIssues),
		Caveats:            c.Caveats,
	}

	if c.HasOldContent {
		dto.OldContent = c.OldContent
	}

	if c.HasNewContent {
		dto.NewContent = c.NewContent
	}

	if len(c.Children) > 0 {
		dto.Children = make([]*changeDTO, len(c.Children))
		for i, child := range c.Children {
			dto.Children[i] = changeToDTO(child)
		}
	}

	return dto
}

func changesToDTO(changes []*resultmodel.Change) []*changeDTO {
	if len(changes) == 0 {
		return nil
	}

	out := make([]*changeDTO, len(changes))
	for i, c := range changes {
		out[i] = changeToDTO(c)
	}

	return out
}

func statsToDTO(s resultmodel.Stats) statsDTO {
	return statsDTO{
		Total:            s.Total,
		Added:            s.Added,
		Removed:          s.Removed,
		Modified:         s.Modified,
		BreakingPublic:   s.BreakingPublic,
		BreakingInternal: s.BreakingInternal,
		NonBreaking:      s.NonBreaking,
		FormattingOnly:   s.FormattingOnly,
	}
}

func summaryToDTO(s resultmodel.Summary) summaryDTO {
	return summaryDTO{
		statsDTO:      statsToDTO(s.Stats),
		FilesAdded:    s.FilesAdded,
		FilesRemoved:  s.FilesRemoved,
		FilesModified: s.FilesModified,
		FilesErrored:  s.FilesErrored,
	}
}

func fileEntryToDTO(f resultmodel.FileEntry) fileDTO {
	dto := fileDTO{
		OldPath: f.OldPath,
		NewPath: f.NewPath,
		Status:  f.Status.String(),
		Error:   f.Error,
	}

	if f.Result != nil {
		dto.Changes = changesToDTO(f.Result.Changes)
		stats := statsToDTO(f.Result.Stats)
		dto.Stats = &stats
		dto.Profiles = f.Result.Profiles
	}

	return dto
}

// impactCounts extracts the four impact-level counters from a Stats in
// the fixed presentation order charts and tables use throughout this
// package (most to least severe).
func impactCounts(s resultmodel.Stats) [4]int {
	return [4]int{s.BreakingPublic, s.BreakingInternal, s.NonBreaking, s.FormattingOnly}
}

// impactLabels names the four impact.Impact levels in the same order as
// impactCounts, for chart axes and table headers.
var impactLabels = [4]string{
	impact.BreakingPublicApi.String(),
	impact.BreakingInternalApi.String(),
	impact.NonBreaking.String(),
	impact.FormattingOnly.String(),
}

// renderVersion reports the semdiff version stamped into rendered
// metadata, defaulting to the build-time version.Version.
func renderVersion() string {
	return version.Version
}
