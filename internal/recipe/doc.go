// Package recipe turns an untrusted recipe (an equation plus named, loosely
// typed variables) into a canonical recipe the evaluator can run.
//
// The pipeline is:
//
//	Validate  untrusted input -> *RawRecipe          (shape only, no coercion)
//	Parser    *RawRecipe      -> *Parsed             (coercion, series materialization)
//	Rename    *Parsed         -> *Canonical + notes  (collision-free names, equation rewrite)
//
// Every step fails fast with an *Error of one of four kinds. Series created
// while parsing are staged on Parsed.Pending and are only written to a store
// by the caller once the whole recipe has been accepted.
package recipe
