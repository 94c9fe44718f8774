package expr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Parse parses src into an expression tree. filename only labels the
// ranges in diagnostics.
func Parse(src, filename string) (hcl.Expression, hcl.Diagnostics) {
	toks, diags := scan([]byte(src), filename)
	if diags.HasErrors() {
		return nil, diags
	}

	p := &parser{toks: toks}
	e, diags := p.expr()
	if diags.HasErrors() {
		return nil, diags
	}
	if tok := p.peek(); tok.typ != tokEOF {
		return nil, hcl.Diagnostics{unexpected(tok, "an operator or the end of the expression")}
	}
	return e, nil
}

// References returns the names referenced by e, once each, in order of
// first appearance.
func References(e hcl.Expression) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, t := range e.Variables() {
		name := t.RootName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.typ != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expr() (hcl.Expression, hcl.Diagnostics) {
	left, diags := p.term()
	if diags.HasErrors() {
		return nil, diags
	}
	for op := p.peek(); op.typ == tokPlus || op.typ == tokMinus; op = p.peek() {
		p.next()
		right, diags := p.term()
		if diags.HasErrors() {
			return nil, diags
		}
		left = newBinary(op, left, right)
	}
	return left, nil
}

func (p *parser) term() (hcl.Expression, hcl.Diagnostics) {
	left, diags := p.unary()
	if diags.HasErrors() {
		return nil, diags
	}
	for op := p.peek(); op.typ == tokStar || op.typ == tokSlash; op = p.peek() {
		p.next()
		right, diags := p.unary()
		if diags.HasErrors() {
			return nil, diags
		}
		left = newBinary(op, left, right)
	}
	return left, nil
}

func (p *parser) unary() (hcl.Expression, hcl.Diagnostics) {
	op := p.peek()
	if op.typ != tokPlus && op.typ != tokMinus {
		return p.power()
	}
	p.next()
	operand, diags := p.unary()
	if diags.HasErrors() {
		return nil, diags
	}
	return &unaryExpr{
		negate:  op.typ == tokMinus,
		operand: operand,
		rng:     hcl.RangeBetween(op.rng, operand.Range()),
		opRange: op.rng,
	}, nil
}

func (p *parser) power() (hcl.Expression, hcl.Diagnostics) {
	base, diags := p.primary()
	if diags.HasErrors() {
		return nil, diags
	}
	op := p.peek()
	if op.typ != tokCaret {
		return base, nil
	}
	p.next()
	exp, diags := p.unary()
	if diags.HasErrors() {
		return nil, diags
	}
	return newBinary(op, base, exp), nil
}

func (p *parser) primary() (hcl.Expression, hcl.Diagnostics) {
	tok := p.next()
	switch tok.typ {
	case tokNumber:
		return &numberExpr{val: tok.num, rng: tok.rng}, nil

	case tokRef:
		trav := hcl.Traversal{hcl.TraverseRoot{Name: tok.text, SrcRange: tok.rng}}
		return &refExpr{traversal: trav, rng: tok.rng}, nil

	case tokLParen:
		inner, diags := p.expr()
		if diags.HasErrors() {
			return nil, diags
		}
		closing := p.next()
		if closing.typ != tokRParen {
			return nil, hcl.Diagnostics{unexpected(closing, `a closing ")"`)}
		}
		return &parenExpr{inner: inner, rng: hcl.RangeBetween(tok.rng, closing.rng)}, nil

	default:
		return nil, hcl.Diagnostics{unexpected(tok, `a number, a ${name} reference or "("`)}
	}
}

func unexpected(tok token, want string) *hcl.Diagnostic {
	rng := tok.rng
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid expression",
		Detail:   fmt.Sprintf("Expected %s, found %s.", want, tok.typ),
		Subject:  &rng,
	}
}
