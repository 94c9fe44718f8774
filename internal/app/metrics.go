package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/specialistvlad/recipegrid/internal/recipe"
)

var (
	recipesPrepared = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipegrid_recipes_prepared_total",
		Help: "Recipes validated, parsed and renamed, by result",
	}, []string{"result"})

	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipegrid_evaluations_total",
		Help: "Recipe evaluations by result",
	}, []string{"result"})

	warningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipegrid_warnings_total",
		Help: "Advisory warnings by source",
	}, []string{"source"})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recipegrid_evaluation_duration_seconds",
		Help:    "Time to evaluate a canonical recipe over every year",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})
)

// resultLabel maps an error to a low-cardinality metric label.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var rErr *recipe.Error
	if !errors.As(err, &rErr) {
		return "internal"
	}
	switch rErr.Kind {
	case recipe.KindInvalidFormat:
		return "invalid_format"
	case recipe.KindEquation:
		return "equation"
	case recipe.KindVariables:
		return "variables"
	case recipe.KindVectorTransform:
		return "vector_transform"
	default:
		return "internal"
	}
}
