// Package expr parses recipe equations into hcl.Expression values.
//
// The language is deliberately small:
//
//	expr    := term (("+" | "-") term)*
//	term    := unary (("*" | "/") unary)*
//	unary   := ("+" | "-") unary | power
//	power   := primary ("^" unary)?
//	primary := NUMBER | "${" NAME "}" | "(" expr ")"
//
// Exponentiation is right associative and binds tighter than unary minus,
// so -2^2 is -(2^2) and 2^3^2 is 2^(3^2).
//
// Every node implements hcl.Expression. A ${NAME} reference is a root
// traversal, resolved against hcl.EvalContext.Variables, so callers build
// one evaluation scope per year and call Value on the same tree.
//
// Values are numbers. A null operand makes the whole result null without a
// diagnostic. Division by zero and non-finite results are error diagnostics
// scoped to the operator that produced them.
package expr
