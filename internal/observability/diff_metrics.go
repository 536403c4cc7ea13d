package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesProcessedTotal = "semdiff.driver.files.processed.total"
	metricChangesFoundTotal   = "semdiff.driver.changes.found.total"
	metricBreakingTotal       = "semdiff.driver.changes.breaking.total"
	metricCacheHitsTotal      = "semdiff.parse.cache.hits.total"
	metricCacheMissesTotal    = "semdiff.parse.cache.misses.total"

	attrImpact = "impact"
)

// DiffMetrics holds OTel instruments for the multi-file driver's
// diff-specific gauges, distinct from the generic RED metrics in
// metrics.go.
type DiffMetrics struct {
	filesProcessed metric.Int64Counter
	changesFound   metric.Int64Counter
	breakingTotal  metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
}

// DiffRunStats summarizes one MultiFileDriver run for metrics recording.
type DiffRunStats struct {
	FilesProcessed   int64
	ChangesFound     int64
	BreakingPublic   int64
	BreakingInternal int64
	ParseCacheHits   int64
	ParseCacheMisses int64
}

// NewDiffMetrics creates diff metric instruments from the given meter.
func NewDiffMetrics(mt metric.Meter) (*DiffMetrics, error) {
	b := newMetricBuilder(mt)

	dm := &DiffMetrics{
		filesProcessed: b.counter(metricFilesProcessedTotal, "Total files processed by the driver", "{file}"),
		changesFound:   b.counter(metricChangesFoundTotal, "Total Change nodes found", "{change}"),
		breakingTotal:  b.counter(metricBreakingTotal, "Total breaking changes found, by impact level", "{change}"),
		cacheHits:      b.counter(metricCacheHitsTotal, "Parse cache hits", "{hit}"),
		cacheMisses:    b.counter(metricCacheMissesTotal, "Parse cache misses", "{miss}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return dm, nil
}

// RecordRun records driver statistics for a completed multi-file run.
// Safe to call on a nil receiver (no-op).
func (dm *DiffMetrics) RecordRun(ctx context.Context, stats DiffRunStats) {
	if dm == nil {
		return
	}

	dm.filesProcessed.Add(ctx, stats.FilesProcessed)
	dm.changesFound.Add(ctx, stats.ChangesFound)

	if stats.BreakingPublic > 0 {
		dm.breakingTotal.Add(ctx, stats.BreakingPublic, metric.WithAttributes(attribute.String(attrImpact, "breaking_public_api")))
	}

	if stats.BreakingInternal > 0 {
		dm.breakingTotal.Add(ctx, stats.BreakingInternal, metric.WithAttributes(attribute.String(attrImpact, "breaking_internal_api")))
	}

	dm.cacheHits.Add(ctx, stats.ParseCacheHits)
	dm.cacheMisses.Add(ctx, stats.ParseCacheMisses)
}
