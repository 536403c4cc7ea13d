// Package config defines semdiff's Config struct and its validation,
// loaded by LoadConfig (viper-backed, see loader.go).
package config

import (
	"errors"
	"fmt"

	"github.com/sourcelens/semdiff/pkg/resultmodel"
)

// Config is the top-level configuration struct for semdiff.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Diff           DiffConfig           `mapstructure:"diff"`
	Driver         DriverConfig         `mapstructure:"driver"`
	Filter         FilterConfig         `mapstructure:"filter"`
	Render         RenderConfig         `mapstructure:"render"`
	Observability  ObservabilityConfig `mapstructure:"observability"`
}

// DiffConfig holds the per-file-pair differ knobs of spec §6.
type DiffConfig struct {
	WhitespaceMode      string   `mapstructure:"whitespace_mode"`
	ImpactFilter        string   `mapstructure:"impact_filter"`
	IncludeNonImpactful bool     `mapstructure:"include_non_impactful"`
	IncludeFormatting   bool     `mapstructure:"include_formatting"`
	IncludeContent      bool     `mapstructure:"include_content"`
	BuildProfiles       []string `mapstructure:"build_profiles"`
	SimilarityThreshold float64  `mapstructure:"similarity_threshold"`
	MoveThreshold       int      `mapstructure:"move_threshold"`
}

// DriverConfig holds the MultiFileDriver's concurrency/timeout knobs.
type DriverConfig struct {
	ConcurrencyLimit int    `mapstructure:"concurrency_limit"`
	PerFileTimeoutMS int    `mapstructure:"per_file_timeout_ms"`
	Recursive        bool   `mapstructure:"recursive"`
}

// FilterConfig holds the FilterEngine's include/exclude glob lists.
type FilterConfig struct {
	IncludeGlobs []string `mapstructure:"include_globs"`
	ExcludeGlobs []string `mapstructure:"exclude_globs"`
}

// RenderConfig selects and configures the output renderer.
type RenderConfig struct {
	Format          string `mapstructure:"format"`
	SchemaCheck     bool   `mapstructure:"schema_check"`
	CheckInvariants bool   `mapstructure:"check_invariants"`
}

// ObservabilityConfig holds tracing/metrics exporter knobs.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	MetricsAddr    string `mapstructure:"metrics_addr"`
	LogLevel       string `mapstructure:"log_level"`
}

const similarityThresholdMax = 1.0

// Sentinel errors for configuration validation.
var (
	ErrInvalidWhitespaceMode      = errors.New("diff.whitespace_mode must be one of exact, ignore_leading_trailing, ignore_all, language_aware")
	ErrInvalidSimilarityThreshold = errors.New("diff.similarity_threshold must be between 0 and 1")
	ErrInvalidMoveThreshold       = errors.New("diff.move_threshold must be non-negative")
	ErrInvalidConcurrencyLimit    = errors.New("driver.concurrency_limit must be positive")
	ErrInvalidPerFileTimeout      = errors.New("driver.per_file_timeout_ms must be positive")
	ErrInvalidRenderFormat        = errors.New("render.format must be one of json, html, unified, inline, console")
	ErrInvalidImpactFilter        = errors.New("diff.impact_filter must be one of All, NonBreaking, BreakingInternal, BreakingPublic")
)

var validWhitespaceModes = map[string]bool{
	"exact": true, "ignore_leading_trailing": true, "ignore_all": true, "language_aware": true,
}

var validRenderFormats = map[string]bool{
	"json": true, "html": true, "unified": true, "inline": true, "console": true,
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Diff.WhitespaceMode != "" && !validWhitespaceModes[c.Diff.WhitespaceMode] {
		return ErrInvalidWhitespaceMode
	}

	if c.Diff.SimilarityThreshold < 0 || c.Diff.SimilarityThreshold > similarityThresholdMax {
		return ErrInvalidSimilarityThreshold
	}

	if c.Diff.MoveThreshold < 0 {
		return ErrInvalidMoveThreshold
	}

	if c.Driver.ConcurrencyLimit <= 0 {
		return ErrInvalidConcurrencyLimit
	}

	if c.Driver.PerFileTimeoutMS <= 0 {
		return ErrInvalidPerFileTimeout
	}

	if c.Render.Format != "" && !validRenderFormats[c.Render.Format] {
		return ErrInvalidRenderFormat
	}

	if _, parseErr := resultmodel.ParseImpactFilter(c.Diff.ImpactFilter); parseErr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImpactFilter, parseErr)
	}

	return nil
}
