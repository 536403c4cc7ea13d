package resultmodel

import "github.com/sourcelens/semdiff/pkg/impact"

// Mode is the comparison mode a DiffResult was produced under.
type Mode int

// Per-file comparison modes.
const (
	ModeFilePair Mode = iota
	ModeFolder
	ModeRef
)

// Stats aggregates Change counts by type and by impact across an entire
// tree, walked including nested descendants — each Change counts once
// per §3's DiffResult definition.
type Stats struct {
	Total             int
	Added             int
	Removed           int
	Modified          int
	BreakingPublic    int
	BreakingInternal  int
	NonBreaking       int
	FormattingOnly    int
}

// Add folds one Change's own counters into s (not its children; callers
// walk the tree and call Add once per node).
func (s *Stats) Add(c *Change) {
	s.Total++

	switch c.Type {
	case Added:
		s.Added++
	case Removed:
		s.Removed++
	case Modified, Moved, Renamed:
		s.Modified++
	}

	switch c.Impact {
	case impact.BreakingPublicApi:
		s.BreakingPublic++
	case impact.BreakingInternalApi:
		s.BreakingInternal++
	case impact.NonBreaking:
		s.NonBreaking++
	case impact.FormattingOnly:
		s.FormattingOnly++
	}
}

// Merge adds other's counters into s in place, used when summing
// per-file stats into a MultiFileResult summary.
func (s *Stats) Merge(other Stats) {
	s.Total += other.Total
	s.Added += other.Added
	s.Removed += other.Removed
	s.Modified += other.Modified
	s.BreakingPublic += other.BreakingPublic
	s.BreakingInternal += other.BreakingInternal
	s.NonBreaking += other.NonBreaking
	s.FormattingOnly += other.FormattingOnly
}

// ComputeStats walks changes (and every descendant) and returns the
// aggregated Stats, per the "Stats consistency" property of §8.
func ComputeStats(changes []*Change) Stats {
	var s Stats

	var walk func([]*Change)

	walk = func(cs []*Change) {
		for _, c := range cs {
			s.Add(c)
			walk(c.Children)
		}
	}

	walk(changes)

	return s
}

// DiffResult is the per-file-pair output of the differ.
type DiffResult struct {
	Mode        Mode
	OldPath     string
	NewPath     string
	Profiles    []string
	Changes     []*Change
	Stats       Stats
	GeneratedAt int64 // unix seconds, stamped by the caller (driver), never by core logic
}

// Flatten returns a pre-order view of a change tree for legacy
// consumers. It is a view only: callers MUST NOT treat its output as the
// canonical document form (§6, §9 "Tree vs flat view").
func Flatten(changes []*Change) []*Change {
	var out []*Change

	var walk func([]*Change)

	walk = func(cs []*Change) {
		for _, c := range cs {
			out = append(out, c)
			walk(c.Children)
		}
	}

	walk(changes)

	return out
}

// FileStatus is the per-file status in a MultiFileResult.
type FileStatus int

// File-level statuses.
const (
	FileUnchanged FileStatus = iota
	FileAdded
	FileRemoved
	FileModified
	FileRenamed
	FileError
)

func (s FileStatus) String() string {
	switch s {
	case FileAdded:
		return "Added"
	case FileRemoved:
		return "Removed"
	case FileModified:
		return "Modified"
	case FileRenamed:
		return "Renamed"
	case FileError:
		return "Error"
	default:
		return "Unchanged"
	}
}

// FileEntry is one row of a MultiFileResult.files vector.
type FileEntry struct {
	OldPath string
	NewPath string
	Status  FileStatus
	Result  *DiffResult
	Error   string
}

// Summary aggregates a MultiFileResult's per-file stats plus file-level
// counts, per §4.7 "Aggregation".
type Summary struct {
	Stats
	FilesAdded    int
	FilesRemoved  int
	FilesModified int
	FilesErrored  int
}

// ComparisonMode distinguishes folder-mode from ref-range multi-file
// runs, per §3's MultiFileResult shape.
type ComparisonMode int

// Multi-file comparison modes.
const (
	ComparisonFolder ComparisonMode = iota
	ComparisonRef
)

// MultiFileResult is the aggregate output of the MultiFileDriver.
type MultiFileResult struct {
	ComparisonMode ComparisonMode
	RefRange       string
	OldRoot        string
	NewRoot        string
	Files          []FileEntry
	Summary        Summary
}

// ComputeSummary builds the Summary for a completed file list.
func ComputeSummary(files []FileEntry) Summary {
	var sum Summary

	for _, f := range files {
		switch f.Status {
		case FileAdded:
			sum.FilesAdded++
		case FileRemoved:
			sum.FilesRemoved++
		case FileModified, FileRenamed:
			sum.FilesModified++
		case FileError:
			sum.FilesErrored++
		}

		if f.Result != nil {
			sum.Stats.Merge(f.Result.Stats)
		}
	}

	return sum
}
