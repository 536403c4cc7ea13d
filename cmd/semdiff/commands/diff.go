// Package commands provides CLI command implementations for semdiff.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sourcelens/semdiff/internal/config"
	diffmetrics "github.com/sourcelens/semdiff/internal/observability"
	"github.com/sourcelens/semdiff/pkg/driver"
	"github.com/sourcelens/semdiff/pkg/filterengine"
	"github.com/sourcelens/semdiff/pkg/observability"
	"github.com/sourcelens/semdiff/pkg/render"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
	"github.com/sourcelens/semdiff/pkg/treediff"
	"github.com/sourcelens/semdiff/pkg/version"
	"github.com/sourcelens/semdiff/pkg/wsengine"
)

// ErrChangesFound is returned by RunE to signal the §6 exit-code-1 case
// ("changes present") to main, without cobra treating it as a real
// failure: it is never printed, only matched with errors.Is.
var ErrChangesFound = errors.New("semdiff: changes found")

// ErrRangeRequiresOneArg is returned when --range is combined with the
// two-path folder-mode argument form.
var ErrRangeRequiresOneArg = errors.New("semdiff: --range takes exactly one positional argument (the repository path)")

// ErrFolderModeRequiresTwoArgs is returned when folder mode (no --range)
// is invoked without exactly old-root and new-root.
var ErrFolderModeRequiresTwoArgs = errors.New("semdiff: folder mode takes exactly two positional arguments (old-root new-root)")

const (
	folderModeArgCount = 2
	rangeModeArgCount  = 1
)

// DiffCommand holds the flags for the diff command.
type DiffCommand struct {
	cfgFile string

	rangeExpr string

	whitespaceMode      string
	impactFilter        string
	includeNonImpactful bool
	includeFormatting   bool
	includeContent      bool
	buildProfiles       []string
	similarityThreshold float64
	moveThreshold       int

	concurrency    int
	perFileTimeout int
	recursive      bool

	includeGlobs []string
	excludeGlobs []string

	format          string
	output          string
	schemaCheck     bool
	checkInvariants bool
	noColor         bool
	verbose         bool
	fragment        bool
	stylesheet      string
	title           string
	unifiedContext  int
}

// NewDiffCommand creates the diff command. cfgFile is the root
// command's shared --config persistent flag.
func NewDiffCommand(cfgFile *string) *cobra.Command {
	dc := &DiffCommand{}

	cmd := &cobra.Command{
		Use:   "diff <old-root> <new-root>",
		Short: "Compare two source trees or a VCS ref-range",
		Long: `diff compares either two directory trees (folder mode,
two positional arguments) or a single repository across a ref-range
(ref-range mode, --range plus one positional repository path).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dc.cfgFile = *cfgFile

			return dc.run(cmd, args)
		},
	}

	cmd.Flags().StringVar(&dc.rangeExpr, "range", "", "VCS ref-range (e.g. HEAD~1..HEAD); enables ref-range mode")

	cmd.Flags().StringVar(&dc.whitespaceMode, "whitespace-mode", "", "exact, ignore_leading_trailing, ignore_all, or language_aware")
	cmd.Flags().StringVar(&dc.impactFilter, "impact-filter", "", "All, NonBreaking, BreakingInternal, or BreakingPublic")
	cmd.Flags().BoolVar(&dc.includeNonImpactful, "include-non-impactful", true, "include NonBreaking changes")
	cmd.Flags().BoolVar(&dc.includeFormatting, "include-formatting", false, "include FormattingOnly changes")
	cmd.Flags().BoolVar(&dc.includeContent, "include-content", false, "retain old/new body text on leaf changes")
	cmd.Flags().StringSliceVar(&dc.buildProfiles, "build-profile", nil, "build-profile tag(s) to diff and merge (repeatable)")
	cmd.Flags().Float64Var(&dc.similarityThreshold, "similarity-threshold", 0, "NodeMatcher similarity floor in [0,1]")
	cmd.Flags().IntVar(&dc.moveThreshold, "move-threshold", 0, "sibling-index delta above which a match is reported Moved")

	cmd.Flags().IntVar(&dc.concurrency, "concurrency", 0, "bounded worker pool size")
	cmd.Flags().IntVar(&dc.perFileTimeout, "per-file-timeout-ms", 0, "per-file diff timeout in milliseconds")
	cmd.Flags().BoolVar(&dc.recursive, "recursive", true, "recurse into subdirectories in folder mode")

	cmd.Flags().StringSliceVar(&dc.includeGlobs, "include", nil, "include glob pattern(s) (repeatable)")
	cmd.Flags().StringSliceVar(&dc.excludeGlobs, "exclude", nil, "exclude glob pattern(s) (repeatable)")

	cmd.Flags().StringVarP(&dc.format, "format", "f", "", "json, html, unified, or console")
	cmd.Flags().StringVarP(&dc.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&dc.schemaCheck, "schema-check", false, "validate the json document against its schema before emitting it")
	cmd.Flags().BoolVar(&dc.checkInvariants, "debug-check-invariants", false,
		"verify §3 result-tree invariants (no-duplicate, containment, coherence) before rendering")
	cmd.Flags().BoolVar(&dc.noColor, "no-color", false, "disable ANSI color in console output")
	cmd.Flags().BoolVarP(&dc.verbose, "verbose", "v", false, "include every file's change table in console output")
	cmd.Flags().BoolVar(&dc.fragment, "fragment", false, "emit an embeddable HTML fragment instead of a full document")
	cmd.Flags().StringVar(&dc.stylesheet, "stylesheet", "", "external stylesheet filename for HTML output (default roslyn-diff.css)")
	cmd.Flags().StringVar(&dc.title, "title", "", "document title for HTML document mode")
	cmd.Flags().IntVar(&dc.unifiedContext, "context", 0, "unified-diff context line count")

	return cmd
}

func (dc *DiffCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(dc.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dc.applyFlagOverrides(cmd, cfg)

	result, err := dc.diff(cmd.Context(), cfg, args)
	if err != nil {
		return err
	}

	if cfg.Render.CheckInvariants {
		if err := checkResultInvariants(result); err != nil {
			return fmt.Errorf("invariant check: %w", err)
		}
	}

	if err := dc.renderResult(result, cfg); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if result.Summary.Total > 0 {
		return ErrChangesFound
	}

	return nil
}

// applyFlagOverrides merges explicitly-set flags onto the loaded
// config. Flags left at their cobra default never override a config
// file value; cmd.Flags().Changed distinguishes "left alone" from
// "set to the zero value on purpose".
func (dc *DiffCommand) applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("whitespace-mode") {
		cfg.Diff.WhitespaceMode = dc.whitespaceMode
	}

	if flags.Changed("impact-filter") {
		cfg.Diff.ImpactFilter = dc.impactFilter
	}

	if flags.Changed("include-non-impactful") {
		cfg.Diff.IncludeNonImpactful = dc.includeNonImpactful
	}

	if flags.Changed("include-formatting") {
		cfg.Diff.IncludeFormatting = dc.includeFormatting
	}

	if flags.Changed("include-content") {
		cfg.Diff.IncludeContent = dc.includeContent
	}

	if flags.Changed("build-profile") {
		cfg.Diff.BuildProfiles = dc.buildProfiles
	}

	if flags.Changed("similarity-threshold") {
		cfg.Diff.SimilarityThreshold = dc.similarityThreshold
	}

	if flags.Changed("move-threshold") {
		cfg.Diff.MoveThreshold = dc.moveThreshold
	}

	if flags.Changed("concurrency") {
		cfg.Driver.ConcurrencyLimit = dc.concurrency
	}

	if flags.Changed("per-file-timeout-ms") {
		cfg.Driver.PerFileTimeoutMS = dc.perFileTimeout
	}

	if flags.Changed("recursive") {
		cfg.Driver.Recursive = dc.recursive
	}

	if flags.Changed("include") {
		cfg.Filter.IncludeGlobs = dc.includeGlobs
	}

	if flags.Changed("exclude") {
		cfg.Filter.ExcludeGlobs = dc.excludeGlobs
	}

	if flags.Changed("format") {
		cfg.Render.Format = dc.format
	}

	if flags.Changed("schema-check") {
		cfg.Render.SchemaCheck = dc.schemaCheck
	}

	if flags.Changed("debug-check-invariants") {
		cfg.Render.CheckInvariants = dc.checkInvariants
	}
}

func (dc *DiffCommand) diff(ctx context.Context, cfg *config.Config, args []string) (*resultmodel.MultiFileResult, error) {
	mode, err := wsengine.ParseMode(cfg.Diff.WhitespaceMode)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	impactFilter, err := resultmodel.ParseImpactFilter(cfg.Diff.ImpactFilter)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	filter, err := filterengine.Compile(cfg.Filter.IncludeGlobs, cfg.Filter.ExcludeGlobs)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = cfg.Observability.ServiceName
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(ctx); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	metrics, err := diffmetrics.NewDiffMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	resultFilter := resultmodel.FilterOptions{
		Impact:              impactFilter,
		IncludeNonImpactful: cfg.Diff.IncludeNonImpactful,
		IncludeFormatting:   cfg.Diff.IncludeFormatting,
	}

	baseOpts := driver.Options{
		Registry:       sourcetree.NewDefaultRegistry(),
		Filter:         filter,
		Concurrency:    cfg.Driver.ConcurrencyLimit,
		PerFileTimeout: time.Duration(cfg.Driver.PerFileTimeoutMS) * time.Millisecond,
		Recursive:      cfg.Driver.Recursive,
		Logger:         providers.Logger,
		Tracer:         providers.Tracer,
		Metrics:        metrics,
		DiffOptions: treediff.Options{
			WhitespaceMode:      mode,
			SimilarityThreshold: cfg.Diff.SimilarityThreshold,
			MoveThreshold:       cfg.Diff.MoveThreshold,
			IncludeContent:      cfg.Diff.IncludeContent,
		},
	}

	run := func(opts driver.Options) (*resultmodel.MultiFileResult, error) {
		drv, buildErr := driver.New(opts)
		if buildErr != nil {
			return nil, fmt.Errorf("build driver: %w", buildErr)
		}

		if dc.rangeExpr != "" {
			if len(args) != rangeModeArgCount {
				return nil, ErrRangeRequiresOneArg
			}

			return drv.DiffRefRange(ctx, args[0], dc.rangeExpr)
		}

		if len(args) != folderModeArgCount {
			return nil, ErrFolderModeRequiresTwoArgs
		}

		return drv.DiffFolder(ctx, args[0], args[1])
	}

	if len(cfg.Diff.BuildProfiles) <= 1 {
		opts := baseOpts
		opts.ResultFilter = resultFilter
		opts.DiffOptions.Profile = firstProfile(cfg.Diff.BuildProfiles)

		return run(opts)
	}

	return dc.diffMultiProfile(cfg.Diff.BuildProfiles, baseOpts, resultFilter, run)
}

// diffMultiProfile runs the differ once per configured build profile
// (leaving ResultFilter unapplied at this stage so filtering never
// interacts with the merge) and coalesces each file's per-profile
// change trees with treediff.MergeProfiles, per §4.8. The impact/
// formatting/non-impactful filter is applied once, after the merge, so
// a change that only clears the filter's bar under some profiles still
// keeps its ApplicableProfiles annotation intact before pruning.
func (dc *DiffCommand) diffMultiProfile(
	profiles []string,
	baseOpts driver.Options,
	resultFilter resultmodel.FilterOptions,
	run func(driver.Options) (*resultmodel.MultiFileResult, error),
) (*resultmodel.MultiFileResult, error) {
	perProfile := make(map[string]*resultmodel.MultiFileResult, len(profiles))

	var template *resultmodel.MultiFileResult

	for _, profile := range profiles {
		opts := baseOpts
		opts.DiffOptions.Profile = profile

		result, err := run(opts)
		if err != nil {
			return nil, err
		}

		perProfile[profile] = result

		if template == nil {
			template = result
		}
	}

	files := mergeFileEntries(profiles, perProfile, template, resultFilter)
	summary := resultmodel.ComputeSummary(files)

	merged := *template
	merged.Files = files
	merged.Summary = summary

	return &merged, nil
}

// mergeFileEntries walks template's file list (stable across profiles:
// every profile run walks the same repository state) and, for each
// path, merges the per-profile change trees produced for it.
func mergeFileEntries(
	profiles []string,
	perProfile map[string]*resultmodel.MultiFileResult,
	template *resultmodel.MultiFileResult,
	resultFilter resultmodel.FilterOptions,
) []resultmodel.FileEntry {
	out := make([]resultmodel.FileEntry, len(template.Files))

	for i, entry := range template.Files {
		changesByProfile := make(map[string][]*resultmodel.Change, len(profiles))

		for _, profile := range profiles {
			other := perProfile[profile].Files[i]
			if other.Result != nil {
				changesByProfile[profile] = other.Result.Changes
			}
		}

		merged := entry
		if entry.Result != nil {
			mergedChanges := resultmodel.ApplyFilter(treediff.MergeProfiles(changesByProfile), resultFilter)

			result := *entry.Result
			result.Profiles = profiles
			result.Changes = mergedChanges
			result.Stats = resultmodel.ComputeStats(mergedChanges)
			merged.Result = &result
		}

		out[i] = merged
	}

	return out
}

// checkResultInvariants runs resultmodel.CheckInvariants over every
// file's change tree, backing the --debug-check-invariants flag.
func checkResultInvariants(result *resultmodel.MultiFileResult) error {
	for _, entry := range result.Files {
		if entry.Result == nil {
			continue
		}

		if err := resultmodel.CheckInvariants(entry.Result.Changes); err != nil {
			return fmt.Errorf("%s: %w", entry.NewPath, err)
		}
	}

	return nil
}

func (dc *DiffCommand) renderResult(result *resultmodel.MultiFileResult, cfg *config.Config) error {
	w := os.Stdout

	if dc.output != "" {
		f, createErr := os.Create(dc.output)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}

		defer f.Close()

		return dc.write(f, result, cfg)
	}

	return dc.write(w, result, cfg)
}

func (dc *DiffCommand) write(w *os.File, result *resultmodel.MultiFileResult, cfg *config.Config) error {
	switch cfg.Render.Format {
	case "html":
		out, err := render.HTML(result, render.HTMLOptions{Fragment: dc.fragment, Stylesheet: dc.stylesheet, Title: dc.title})
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(w, out)

		return err
	case "unified":
		for _, f := range result.Files {
			if f.Result == nil || len(f.Result.Changes) == 0 {
				continue
			}

			fmt.Fprint(w, render.Unified(f.Result.Changes, f.OldPath, f.NewPath, render.UnifiedOptions{Context: dc.unifiedContext}))
		}

		return nil
	case "console":
		return render.Console(w, result, render.ConsoleOptions{NoColor: dc.noColor, Verbose: dc.verbose})
	default:
		return dc.writeJSON(w, result, cfg)
	}
}

func (dc *DiffCommand) writeJSON(w *os.File, result *resultmodel.MultiFileResult, cfg *config.Config) error {
	doc, err := render.JSON(result)
	if err != nil {
		return err
	}

	if cfg.Render.SchemaCheck {
		issues, validateErr := render.ValidateDocument(doc)
		if validateErr != nil {
			return fmt.Errorf("schema validation: %w", validateErr)
		}

		if len(issues) > 0 {
			return fmt.Errorf("%w: %d schema violation(s), first: %s", errSchemaInvalid, len(issues), issues[0])
		}
	}

	_, err = w.Write(doc)

	return err
}

var errSchemaInvalid = errors.New("semdiff: rendered document failed its own schema")

// firstProfile returns the first configured build-profile tag, or ""
// for a single-profile run. With two or more configured profiles,
// diffMultiProfile takes over instead and this is unused.
func firstProfile(profiles []string) string {
	if len(profiles) == 0 {
		return ""
	}

	return profiles[0]
}
