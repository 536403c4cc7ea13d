package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sourcelens/semdiff/pkg/impact"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
)

// ConsoleOptions configures the console renderer.
type ConsoleOptions struct {
	// NoColor disables ANSI color codes regardless of the terminal.
	NoColor bool
	// Verbose includes each file's full change table; otherwise only
	// the aggregate summary and per-file status line are printed.
	Verbose bool
}

// colorForImpact maps an impact level to the color its count is printed
// in, matching the severity palette the teacher's renderer package uses
// for issue values (red = worst, green = harmless).
func colorForImpact(i impact.Impact) *color.Color {
	switch i {
	case impact.BreakingPublicApi:
		return color.New(color.FgRed, color.Bold)
	case impact.BreakingInternalApi:
		return color.New(color.FgYellow)
	case impact.NonBreaking:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgGreen)
	}
}

// Console writes a human-readable report of a MultiFileResult to w.
func Console(w io.Writer, result *resultmodel.MultiFileResult, opts ConsoleOptions) error {
	restore := applyNoColor(opts.NoColor)
	defer restore()

	fmt.Fprintf(w, "Generated %s\n\n", humanizeGeneratedAt(summaryGeneratedAt(result)))

	writeSummaryTable(w, result.Summary)

	fmt.Fprintln(w)

	writeFilesTable(w, result.Files)

	if opts.Verbose {
		for _, f := range result.Files {
			if f.Result == nil || len(f.Result.Changes) == 0 {
				continue
			}

			fmt.Fprintf(w, "\n%s:\n", changeFileLabel(f))
			writeChangesTable(w, f.Result.Changes)
		}
	}

	return nil
}

// ConsoleFile writes a human-readable report of a single DiffResult.
func ConsoleFile(w io.Writer, result *resultmodel.DiffResult, oldPath, newPath string, opts ConsoleOptions) error {
	restore := applyNoColor(opts.NoColor)
	defer restore()

	fmt.Fprintf(w, "%s -> %s\n", oldPath, newPath)
	writeStatsTable(w, result.Stats)

	if len(result.Changes) > 0 {
		fmt.Fprintln(w)
		writeChangesTable(w, result.Changes)
	}

	return nil
}

// applyNoColor forces color.NoColor when requested and returns a closure
// that restores the prior global value, since fatih/color's enable flag
// is process-wide (matching the teacher's `color.NoColor = true` override
// in cmd/uast/validate.go).
func applyNoColor(noColor bool) func() {
	prev := color.NoColor

	if noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	return func() { color.NoColor = prev } //nolint:reassign // restore on exit
}

func newStyledTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.Style().Format.Row = text.FormatDefault

	return tbl
}

func writeSummaryTable(w io.Writer, s resultmodel.Summary) {
	tbl := newStyledTable(w)
	tbl.AppendHeader(table.Row{"Files Added", "Files Removed", "Files Modified", "Files Errored"})
	tbl.AppendRow(table.Row{
		humanize.Comma(int64(s.FilesAdded)),
		humanize.Comma(int64(s.FilesRemoved)),
		humanize.Comma(int64(s.FilesModified)),
		humanize.Comma(int64(s.FilesErrored)),
	})
	tbl.Render()

	fmt.Fprintln(w)
	writeStatsTable(w, s.Stats)
}

func writeStatsTable(w io.Writer, s resultmodel.Stats) {
	tbl := newStyledTable(w)
	tbl.AppendHeader(table.Row{"Total", "Added", "Removed", "Modified",
		impactLabels[0], impactLabels[1], impactLabels[2], impactLabels[3]})

	counts := impactCounts(s)
	tbl.AppendRow(table.Row{
		humanize.Comma(int64(s.Total)),
		humanize.Comma(int64(s.Added)),
		humanize.Comma(int64(s.Removed)),
		humanize.Comma(int64(s.Modified)),
		colorForImpact(impact.BreakingPublicApi).Sprint(counts[0]),
		colorForImpact(impact.BreakingInternalApi).Sprint(counts[1]),
		colorForImpact(impact.NonBreaking).Sprint(counts[2]),
		colorForImpact(impact.FormattingOnly).Sprint(counts[3]),
	})
	tbl.Render()
}

func writeFilesTable(w io.Writer, files []resultmodel.FileEntry) {
	if len(files) == 0 {
		return
	}

	tbl := newStyledTable(w)
	tbl.AppendHeader(table.Row{"File", "Status", "Changes", "Error"})

	for _, f := range files {
		total := 0
		if f.Result != nil {
			total = f.Result.Stats.Total
		}

		tbl.AppendRow(table.Row{changeFileLabel(f), f.Status.String(), humanize.Comma(int64(total)), f.Error})
	}

	tbl.AppendFooter(table.Row{"", "", "Total: " + humanize.Comma(int64(len(files))) + " files", ""})
	tbl.Render()
}

func changeFileLabel(f resultmodel.FileEntry) string {
	switch {
	case f.OldPath == f.NewPath:
		return f.NewPath
	case f.OldPath == "":
		return f.NewPath
	case f.NewPath == "":
		return f.OldPath
	default:
		return f.OldPath + " -> " + f.NewPath
	}
}

func writeChangesTable(w io.Writer, changes []*resultmodel.Change) {
	tbl := newStyledTable(w)
	tbl.AppendHeader(table.Row{"Kind", "Type", "Name", "Impact", "Visibility", "Caveats"})

	var walk func([]*resultmodel.Change, int)

	walk = func(cs []*resultmodel.Change, depth int) {
		for _, c := range cs {
			name := strings.Repeat("  ", depth) + c.Name
			tbl.AppendRow(table.Row{
				c.Kind.String(),
				c.Type.String(),
				name,
				colorForImpact(c.Impact).Sprint(c.Impact.String()),
				c.Visibility.String(),
				strings.Join(c.Caveats, "; "),
			})
			walk(c.Children, depth+1)
		}
	}

	walk(changes, 0)
	tbl.Render()
}

// humanizeGeneratedAt renders a unix-seconds timestamp as a relative,
// human-friendly age ("3 minutes ago"), falling back to "unknown" for the
// zero value (a file whose diff never completed).
func humanizeGeneratedAt(unixSeconds int64) string {
	if unixSeconds == 0 {
		return "unknown"
	}

	return humanize.Time(time.Unix(unixSeconds, 0))
}
