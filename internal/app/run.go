package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/specialistvlad/recipegrid/internal/ctxlog"
	"github.com/specialistvlad/recipegrid/internal/fsutil"
	"github.com/specialistvlad/recipegrid/internal/recipe"
	"github.com/specialistvlad/recipegrid/internal/series"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
)

// recipeExtension selects recipe files inside a directory.
const recipeExtension = ".json"

// ErrRecipesFailed is returned by Process when at least one recipe was rejected.
var ErrRecipesFailed = errors.New("one or more recipes failed")

// Outcome is the result document for one recipe.
type Outcome struct {
	File     string              `json:"file,omitempty"`
	Recipe   *recipe.Canonical   `json:"recipe,omitempty"`
	Entries  []seriesstore.Entry `json:"entries,omitempty"`
	Notes    []string            `json:"notes,omitempty"`
	Warnings []string            `json:"warnings,omitempty"`
	Series   series.Annual       `json:"series,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Process runs every recipe found at path, a single file or a directory
// searched recursively for *.json files, and writes one JSON document per
// recipe to the output. With evaluate false it stops after the sanity
// checks. A rejected recipe does not stop the others.
func (a *App) Process(ctx context.Context, path string, evaluate bool) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Process started.", "path", path, "evaluate", evaluate)

	files, err := fsutil.ResolvePath(path, recipeExtension)
	if err != nil {
		return fmt.Errorf("failed to resolve recipe path '%s': %w", path, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s recipe files found at %s", recipeExtension, path)
	}
	logger.Info("Found recipe files to process.", "count", len(files), "path", path)

	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")

	failed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := a.processFile(ctx, file, evaluate)
		if err != nil {
			var rErr *recipe.Error
			if !errors.As(err, &rErr) {
				return fmt.Errorf("failed to process %s: %w", file, err)
			}
			failed++
			logger.Error("Recipe rejected.", "file", file, "error", err)
			out = &Outcome{Error: err.Error()}
		}
		out.File = file
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to write result for %s: %w", file, err)
		}
	}

	logger.Info("Recipes processed.", "total", len(files), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRecipesFailed, failed, len(files))
	}
	return nil
}

func (a *App) processFile(ctx context.Context, file string, evaluate bool) (*Outcome, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return a.execute(ctxlog.WithLogger(ctx, a.logger.With("file", file)), json.RawMessage(data), evaluate)
}

// execute runs one recipe on a fresh engine, records metrics and logs the
// notes and warnings the engine returned.
func (a *App) execute(ctx context.Context, input any, evaluate bool) (*Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	eng := a.engine()

	prepared, err := eng.Prepare(ctx, input)
	recipesPrepared.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	for _, note := range prepared.Notes {
		logger.Info("Recipe note.", "note", note)
	}
	for _, w := range prepared.Warnings {
		logger.Warn("Sanity check warning.", "warning", w)
	}
	warningsTotal.WithLabelValues("sanity").Add(float64(len(prepared.Warnings)))

	out := &Outcome{
		Recipe:   prepared.Recipe,
		Entries:  prepared.Entries,
		Notes:    prepared.Notes,
		Warnings: prepared.Warnings,
	}
	if !evaluate {
		return out, nil
	}

	start := time.Now()
	res, err := eng.Evaluate(ctx, prepared.Recipe)
	evaluationDuration.Observe(time.Since(start).Seconds())
	evaluationsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	for _, w := range res.Warnings {
		logger.Warn("Evaluation warning.", "warning", w)
	}
	warningsTotal.WithLabelValues("evaluation").Add(float64(len(res.Warnings)))

	out.Series = res.Series
	out.Warnings = append(out.Warnings, res.Warnings...)
	logger.Debug("Recipe evaluated.", "resolved_years", res.Series.Resolved())
	return out, nil
}
