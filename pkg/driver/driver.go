// Package driver implements MultiFileDriver (component C7): it fans a
// single-file-pair Diff out across a folder tree or a ref-range, bounds
// concurrency, applies a per-file timeout, and aggregates the results
// into one MultiFileResult, per spec §4.7.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sourcelens/semdiff/internal/observability"
	"github.com/sourcelens/semdiff/pkg/filterengine"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
	"github.com/sourcelens/semdiff/pkg/treediff"
	"github.com/sourcelens/semdiff/pkg/vcsref"
)

// Sentinel errors surfaced when a driver call cannot even start.
var (
	ErrNoRegistry    = errors.New("driver: no parser registry configured")
	ErrInvalidConfig = errors.New("driver: invalid configuration")
)

const (
	defaultConcurrency    = 8
	defaultPerFileTimeout = 30 * time.Second
)

// Options configures one Driver.
type Options struct {
	Registry       *sourcetree.Registry
	Filter         *filterengine.Filter
	DiffOptions    treediff.Options
	Concurrency    int
	PerFileTimeout time.Duration
	Recursive      bool
	Logger         *slog.Logger

	// Tracer is the OTel tracer used for per-file spans. When nil, falls
	// back to otel.Tracer(tracerName).
	Tracer trace.Tracer

	// Metrics records per-run driver stats. A nil Metrics is a no-op.
	Metrics *observability.DiffMetrics

	// ResultFilter prunes each file's change tree per §6's impact_filter/
	// include_non_impactful/include_formatting knobs before stats are
	// computed, so filtered-out changes never skew Summary counts. The
	// zero value is unfiltered (resultmodel.FilterOptions.IsZero).
	ResultFilter resultmodel.FilterOptions
}

// tracerName is the default OTel tracer name for the driver package.
const tracerName = "semdiff.driver"

// Driver runs Diff across many files and aggregates the outcome.
type Driver struct {
	opts Options
	log  *slog.Logger
}

// New builds a Driver, defaulting Concurrency/PerFileTimeout/Recursive/
// Logger when left zero.
func New(opts Options) (*Driver, error) {
	if opts.Registry == nil {
		return nil, ErrNoRegistry
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	if opts.PerFileTimeout <= 0 {
		opts.PerFileTimeout = defaultPerFileTimeout
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Driver{opts: opts, log: opts.Logger}, nil
}

// tracer returns the configured tracer, falling back to the global provider.
func (d *Driver) tracer() trace.Tracer {
	if d.opts.Tracer != nil {
		return d.opts.Tracer
	}

	return otel.Tracer(tracerName)
}

// filePair is one unit of work: a path plus the old/new bytes to diff.
// Either side may be nil to represent Added/Removed at the file level.
type filePair struct {
	oldPath, newPath string
	oldContent       []byte
	newContent       []byte
	hasOld, hasNew   bool
}

// DiffFolder walks oldRoot and newRoot, matches files by relative path,
// and diffs every matched or one-sided pair, per §4.7 "Folder mode".
func (d *Driver) DiffFolder(ctx context.Context, oldRoot, newRoot string) (*resultmodel.MultiFileResult, error) {
	oldFiles, err := d.listFiles(oldRoot)
	if err != nil {
		return nil, fmt.Errorf("driver: walking old root: %w", err)
	}

	newFiles, err := d.listFiles(newRoot)
	if err != nil {
		return nil, fmt.Errorf("driver: walking new root: %w", err)
	}

	pairs := d.pairUp(oldRoot, newRoot, oldFiles, newFiles)

	files := d.runAll(ctx, pairs)
	summary := resultmodel.ComputeSummary(files)

	d.recordRun(ctx, files, summary)

	return &resultmodel.MultiFileResult{
		ComparisonMode: resultmodel.ComparisonFolder,
		OldRoot:        oldRoot,
		NewRoot:        newRoot,
		Files:          files,
		Summary:        summary,
	}, nil
}

// DiffRefRange resolves rangeExpr against the repository at repoPath and
// diffs every changed path, per §4.7 "Ref-range mode".
func (d *Driver) DiffRefRange(ctx context.Context, repoPath, rangeExpr string) (*resultmodel.MultiFileResult, error) {
	resolver, err := vcsref.Open(repoPath)
	if err != nil {
		return nil, err
	}
	defer resolver.Close()

	entries, err := resolver.Resolve(rangeExpr)
	if err != nil {
		return nil, err
	}

	pairs := make([]filePair, 0, len(entries))

	for _, e := range entries {
		if !d.included(e.Path) {
			continue
		}

		pairs = append(pairs, filePair{
			oldPath:    e.OldPath,
			newPath:    e.Path,
			oldContent: e.OldBlob,
			newContent: e.NewBlob,
			hasOld:     e.HasOld,
			hasNew:     e.HasNew,
		})
	}

	files := d.runAll(ctx, pairs)
	summary := resultmodel.ComputeSummary(files)

	d.recordRun(ctx, files, summary)

	return &resultmodel.MultiFileResult{
		ComparisonMode: resultmodel.ComparisonRef,
		RefRange:       rangeExpr,
		Files:          files,
		Summary:        summary,
	}, nil
}

// recordRun reports this run's stats to Options.Metrics, a no-op when unset.
func (d *Driver) recordRun(ctx context.Context, files []resultmodel.FileEntry, summary resultmodel.Summary) {
	d.opts.Metrics.RecordRun(ctx, observability.DiffRunStats{
		FilesProcessed:   int64(len(files)),
		ChangesFound:     int64(summary.BreakingPublic + summary.BreakingInternal + summary.NonBreaking),
		BreakingPublic:   int64(summary.BreakingPublic),
		BreakingInternal: int64(summary.BreakingInternal),
	})
}

// listFiles returns every regular file under root, relative to root,
// sorted, honoring Options.Recursive and the configured Filter.
func (d *Driver) listFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{filepath.Base(root)}, nil
	}

	var out []string

	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if entry.IsDir() {
			if rel != "." && !d.opts.Recursive {
				return fs.SkipDir
			}

			return nil
		}

		if d.included(rel) {
			out = append(out, rel)
		}

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(out)

	return out, nil
}

func (d *Driver) included(relPath string) bool {
	if d.opts.Filter == nil {
		return true
	}

	return d.opts.Filter.Match(relPath)
}

// pairUp matches old/new file lists by relative path, producing the
// deterministic, lexicographically-ordered work list §4.7 requires.
func (d *Driver) pairUp(oldRoot, newRoot string, oldFiles, newFiles []string) []filePair {
	oldSet := make(map[string]bool, len(oldFiles))
	for _, f := range oldFiles {
		oldSet[f] = true
	}

	newSet := make(map[string]bool, len(newFiles))
	for _, f := range newFiles {
		newSet[f] = true
	}

	all := make(map[string]bool, len(oldFiles)+len(newFiles))
	for _, f := range oldFiles {
		all[f] = true
	}

	for _, f := range newFiles {
		all[f] = true
	}

	rels := make([]string, 0, len(all))
	for f := range all {
		rels = append(rels, f)
	}

	sort.Strings(rels)

	pairs := make([]filePair, 0, len(rels))

	for _, rel := range rels {
		p := filePair{oldPath: rel, newPath: rel}

		if oldSet[rel] {
			p.hasOld = true

			if content, err := os.ReadFile(filepath.Join(oldRoot, rel)); err == nil {
				p.oldContent = content
			}
		}

		if newSet[rel] {
			p.hasNew = true

			if content, err := os.ReadFile(filepath.Join(newRoot, rel)); err == nil {
				p.newContent = content
			}
		}

		pairs = append(pairs, p)
	}

	return pairs
}

// runAll dispatches pairs across a bounded worker pool, honoring
// per-file timeouts and overall cancellation, and returns FileEntries in
// the same deterministic order pairs was given in.
func (d *Driver) runAll(ctx context.Context, pairs []filePair) []resultmodel.FileEntry {
	results := make([]resultmodel.FileEntry, len(pairs))

	sem := make(chan struct{}, d.opts.Concurrency)

	var wg sync.WaitGroup

	for i, p := range pairs {
		select {
		case <-ctx.Done():
			results[i] = d.errorEntry(p, ctx.Err())
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)

		go func(idx int, pair filePair) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = d.runOne(ctx, pair)
		}(i, p)
	}

	wg.Wait()

	return results
}

func (d *Driver) runOne(ctx context.Context, p filePair) resultmodel.FileEntry {
	spanCtx, span := d.tracer().Start(ctx, "semdiff.driver.file",
		trace.WithAttributes(
			attribute.String("semdiff.old_path", p.oldPath),
			attribute.String("semdiff.new_path", p.newPath),
		),
	)
	defer span.End()

	fileCtx, cancel := context.WithTimeout(spanCtx, d.opts.PerFileTimeout)
	defer cancel()

	oldRoot, oldErr := d.parseSide(fileCtx, p.oldPath, p.oldContent, p.hasOld)
	if oldErr != nil {
		return d.errorEntry(p, oldErr)
	}

	newRoot, newErr := d.parseSide(fileCtx, p.newPath, p.newContent, p.hasNew)
	if newErr != nil {
		return d.errorEntry(p, newErr)
	}

	opts := d.opts.DiffOptions
	opts.Path = p.newPath

	if opts.Path == "" {
		opts.Path = p.oldPath
	}

	changes := treediff.Diff(oldRoot, newRoot, opts)
	changes = resultmodel.ApplyFilter(changes, d.opts.ResultFilter)

	status := fileStatus(p, changes)

	result := &resultmodel.DiffResult{
		Mode:        resultmodel.ModeFolder,
		OldPath:     p.oldPath,
		NewPath:     p.newPath,
		Profiles:    profilesOf(opts),
		Changes:     changes,
		Stats:       resultmodel.ComputeStats(changes),
		GeneratedAt: time.Now().Unix(),
	}

	return resultmodel.FileEntry{
		OldPath: p.oldPath,
		NewPath: p.newPath,
		Status:  status,
		Result:  result,
	}
}

func profilesOf(opts treediff.Options) []string {
	if opts.Profile == "" {
		return nil
	}

	return []string{opts.Profile}
}

func (d *Driver) parseSide(ctx context.Context, path string, content []byte, has bool) (sourcetree.Node, error) {
	if !has {
		return nil, nil //nolint:nilnil // absence on one side is a legitimate Added/Removed signal, not an error
	}

	tree, err := d.opts.Registry.Parse(ctx, path, content, "")
	if err != nil {
		return nil, err
	}

	return fileRootNode(path, tree), nil
}

// fileRootNode wraps a Tree's top-level declarations in a single
// synthetic file-level node so treediff.Diff always has one root per
// side to hash-compare and recurse into.
func fileRootNode(path string, tree *sourcetree.Tree) sourcetree.Node {
	return sourcetree.NewFileNode(path, tree.Roots)
}

func (d *Driver) errorEntry(p filePair, err error) resultmodel.FileEntry {
	d.log.Error("driver: file diff failed", "old_path", p.oldPath, "new_path", p.newPath, "error", err)

	return resultmodel.FileEntry{
		OldPath: p.oldPath,
		NewPath: p.newPath,
		Status:  resultmodel.FileError,
		Error:   err.Error(),
	}
}

func fileStatus(p filePair, changes []*resultmodel.Change) resultmodel.FileStatus {
	switch {
	case !p.hasOld && p.hasNew:
		return resultmodel.FileAdded
	case p.hasOld && !p.hasNew:
		return resultmodel.FileRemoved
	case len(changes) == 0:
		return resultmodel.FileUnchanged
	default:
		return resultmodel.FileModified
	}
}
