package recipe

import (
	"fmt"
	"strings"
)

const (
	nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// maxNameAttempts bounds the search for a free canonical name.
	maxNameAttempts = 10000
)

// nameGenerator hands out canonical names A..Z, then AA, AB, ... in order.
type nameGenerator struct {
	next int
	used map[string]struct{}
}

func newNameGenerator() *nameGenerator {
	return &nameGenerator{used: make(map[string]struct{})}
}

// Next returns the next unused name, or ErrNameExhausted.
func (g *nameGenerator) Next() (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := canonicalName(g.next)
		g.next++
		if _, taken := g.used[name]; taken {
			continue
		}
		g.used[name] = struct{}{}
		return name, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNameExhausted, maxNameAttempts)
}

// canonicalName maps 0..25 onto the alphabet and continues in bijective
// base 26 past it: 26 -> AA, 27 -> AB, 52 -> BA.
func canonicalName(i int) string {
	if i < len(nameAlphabet) {
		return nameAlphabet[i : i+1]
	}
	var buf []byte
	for n := i + 1; n > 0; n /= len(nameAlphabet) {
		n--
		buf = append(buf, nameAlphabet[n%len(nameAlphabet)])
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return string(buf)
}

// Rename assigns canonical names in declaration order and rewrites every
// ${original} token in the equation to ${canonical}. It returns notes for
// variables that the equation never references; an unused variable is legal.
func Rename(p *Parsed) (*Canonical, []string, error) {
	gen := newNameGenerator()
	// Canonical names never shadow an original one.
	for _, pv := range p.Variables {
		gen.used[pv.Name] = struct{}{}
	}
	out := &Canonical{Name: p.Name}
	mapping := make(map[string]string, len(p.Variables))
	originals := make([]string, 0, len(p.Variables))

	for _, pv := range p.Variables {
		name, err := gen.Next()
		if err != nil {
			return nil, nil, err
		}
		mapping[pv.Name] = name
		originals = append(originals, pv.Name)
		out.Variables = append(out.Variables, Binding{Name: name, Original: pv.Name, Variable: pv.Canonical})
	}
	if len(out.Variables) == 0 {
		return nil, nil, variableErr("", "no variables left after renaming")
	}

	eq, used := rewriteReferences(p.Eq, originals, mapping)
	if strings.TrimSpace(eq) == "" {
		return nil, nil, equationErr(nil, "equation is empty after renaming")
	}
	out.Eq = eq

	var notes []string
	for _, name := range originals {
		if !used[name] {
			notes = append(notes, fmt.Sprintf("variable %q is not referenced in the equation", name))
		}
	}
	return out, notes, nil
}

// rewriteReferences replaces each ${original} token with ${mapping[original]}
// in a single left-to-right pass. Tokens are compared as plain text, longest
// first, and replaced text is never scanned again, so a new name can't be
// captured by a later substitution.
func rewriteReferences(eq string, originals []string, mapping map[string]string) (string, map[string]bool) {
	tokens := referenceTokens(originals)
	byToken := make(map[string]string, len(originals))
	for _, name := range originals {
		byToken[refOpen+name+refClose] = name
	}

	used := make(map[string]bool)
	var b strings.Builder
	rest := eq
	for {
		i := strings.Index(rest, refOpen)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		rest = rest[i:]

		tok, ok := matchToken(rest, tokens)
		if !ok {
			b.WriteString(refOpen)
			rest = rest[len(refOpen):]
			continue
		}
		name := byToken[tok]
		used[name] = true
		b.WriteString(refOpen + mapping[name] + refClose)
		rest = rest[len(tok):]
	}
	return b.String(), used
}
