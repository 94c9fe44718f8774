// Package engine is the orchestration layer of the recipe system. It turns
// untrusted recipe input into a canonical recipe and, on request, into the
// annual series the recipe describes.
//
// # Pipeline
//
//	input ─► Validate ─► Parse ─► Rename ─► commit entries ─► Sanity ─► Evaluate
//
//  1. Validate checks the shape of the raw recipe (recipe.Validate).
//  2. Parse coerces every variable to a scalar or a series reference and
//     stages the entries created for vectors and inline series.
//  3. Rename assigns canonical names A, B, ... and rewrites the equation.
//  4. The staged entries are written to the series store. Nothing is written
//     for a recipe rejected by steps 1 to 3.
//  5. Sanity checks produce advisory warnings.
//  6. Evaluate computes the equation for every year of the domain.
//
// The engine returns notes and warnings as data and never logs. Callers own
// the series store; one engine may be shared by concurrent callers as long
// as the store is safe for concurrent use.
package engine
