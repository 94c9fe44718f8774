package expr

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokRef
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
)

func (t tokenType) String() string {
	switch t {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number"
	case tokRef:
		return "reference"
	case tokPlus:
		return `"+"`
	case tokMinus:
		return `"-"`
	case tokStar:
		return `"*"`
	case tokSlash:
		return `"/"`
	case tokCaret:
		return `"^"`
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

var operators = map[byte]tokenType{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'^': tokCaret,
	'(': tokLParen,
	')': tokRParen,
}

type token struct {
	typ  tokenType
	text string // number lexeme or reference name
	num  float64
	rng  hcl.Range
}

type scanner struct {
	src      []byte
	filename string
	pos      hcl.Pos
}

func (s *scanner) eof() bool {
	return s.pos.Byte >= len(s.src)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos.Byte]
}

func (s *scanner) advance() {
	b := s.src[s.pos.Byte]
	s.pos.Byte++
	switch {
	case b == '\n':
		s.pos.Line++
		s.pos.Column = 1
	case b&0xC0 != 0x80:
		s.pos.Column++
	}
}

func (s *scanner) rangeFrom(start hcl.Pos) hcl.Range {
	return hcl.Range{Filename: s.filename, Start: start, End: s.pos}
}

func (s *scanner) errorAt(start hcl.Pos, summary, detail string) *hcl.Diagnostic {
	rng := s.rangeFrom(start)
	return &hcl.Diagnostic{Severity: hcl.DiagError, Summary: summary, Detail: detail, Subject: &rng}
}

// scan splits src into tokens. The last token is always tokEOF.
func scan(src []byte, filename string) ([]token, hcl.Diagnostics) {
	s := &scanner{src: src, filename: filename, pos: hcl.Pos{Line: 1, Column: 1}}

	var toks []token
	for {
		for !s.eof() && isSpace(s.peek()) {
			s.advance()
		}
		start := s.pos
		if s.eof() {
			return append(toks, token{typ: tokEOF, rng: s.rangeFrom(start)}), nil
		}

		b := s.peek()
		switch {
		case b == '$':
			tok, diag := s.reference()
			if diag != nil {
				return nil, hcl.Diagnostics{diag}
			}
			toks = append(toks, tok)

		case isDigit(b) || b == '.':
			tok, diag := s.number()
			if diag != nil {
				return nil, hcl.Diagnostics{diag}
			}
			toks = append(toks, tok)

		default:
			typ, ok := operators[b]
			if !ok {
				r, _ := utf8.DecodeRune(s.src[s.pos.Byte:])
				s.advance()
				return nil, hcl.Diagnostics{s.errorAt(start, "Invalid character", fmt.Sprintf("The character %q is not valid in an equation.", r))}
			}
			s.advance()
			toks = append(toks, token{typ: typ, text: string(b), rng: s.rangeFrom(start)})
		}
	}
}

func (s *scanner) reference() (token, *hcl.Diagnostic) {
	start := s.pos
	s.advance()
	if s.peek() != '{' {
		return token{}, s.errorAt(start, "Invalid reference", `A variable reference must have the form ${name}.`)
	}
	s.advance()

	nameStart := s.pos.Byte
	for !s.eof() && s.peek() != '}' {
		s.advance()
	}
	if s.eof() {
		return token{}, s.errorAt(start, "Unterminated reference", `A variable reference is missing its closing "}".`)
	}
	name := string(s.src[nameStart:s.pos.Byte])
	s.advance()

	if name == "" {
		return token{}, s.errorAt(start, "Empty reference", `A variable reference must name a variable.`)
	}
	return token{typ: tokRef, text: name, rng: s.rangeFrom(start)}, nil
}

func (s *scanner) number() (token, *hcl.Diagnostic) {
	start := s.pos
	digits := func() int {
		n := 0
		for !s.eof() && isDigit(s.peek()) {
			s.advance()
			n++
		}
		return n
	}

	digits()
	if s.peek() == '.' {
		s.advance()
		if digits() == 0 {
			return token{}, s.errorAt(start, "Invalid number", "A decimal point must be followed by at least one digit.")
		}
	}
	if b := s.peek(); b == 'e' || b == 'E' {
		s.advance()
		if b := s.peek(); b == '+' || b == '-' {
			s.advance()
		}
		if digits() == 0 {
			return token{}, s.errorAt(start, "Invalid number", "An exponent must have at least one digit.")
		}
	}

	text := string(s.src[start.Byte:s.pos.Byte])
	f, _ := strconv.ParseFloat(text, 64)
	if math.IsInf(f, 0) {
		return token{}, s.errorAt(start, "Invalid number", fmt.Sprintf("%s cannot be represented as a finite number.", text))
	}
	return token{typ: tokNumber, text: text, num: f, rng: s.rangeFrom(start)}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
