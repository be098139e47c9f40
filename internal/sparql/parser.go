package sparql

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// Parse parses a SELECT query.
func Parse(text string) (*Query, error) {
	toks, err := newLexer(text).tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, q: &Query{Prefixes: make(map[string]string)}}
	if err := p.parseQuery(); err != nil {
		return nil, err
	}
	return p.q, nil
}

// MustParse is Parse for query text known at compile time.
func MustParse(text string) *Query {
	q, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return q
}

type parser struct {
	toks []token
	pos  int
	q    *Query
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokKeyword && t.text == word
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expectPunct(s string) error {
	if t := p.next(); t.kind != tokPunct || t.text != s {
		return p.errorf(t, "expected %q, found %s", s, t)
	}
	return nil
}

func (p *parser) parseQuery() error {
	if err := p.parsePrologue(); err != nil {
		return err
	}
	if err := p.parseSelect(); err != nil {
		return err
	}
	if err := p.parseWhere(); err != nil {
		return err
	}
	if t := p.peek(); t.kind != tokEOF {
		return p.errorf(t, "unsupported trailing %s", t)
	}

	if p.q.Star {
		p.q.Vars = nil
		for _, v := range p.q.PatternVars() {
			if !strings.HasPrefix(v, "_:") {
				p.q.Vars = append(p.q.Vars, v)
			}
		}
	}
	return nil
}

func (p *parser) parsePrologue() error {
	for {
		switch {
		case p.isKeyword("BASE"):
			p.next()
			t := p.next()
			if t.kind != tokIRI {
				return p.errorf(t, "BASE expects an IRI, found %s", t)
			}
			p.q.Base = p.resolve(t.text)
		case p.isKeyword("PREFIX"):
			p.next()
			t := p.next()
			if t.kind != tokPName || !strings.HasSuffix(t.text, ":") {
				return p.errorf(t, "PREFIX expects a prefix name ending in ':', found %s", t)
			}
			iri := p.next()
			if iri.kind != tokIRI {
				return p.errorf(iri, "PREFIX %s expects an IRI, found %s", t.text, iri)
			}
			p.q.Prefixes[strings.TrimSuffix(t.text, ":")] = p.resolve(iri.text)
		default:
			return nil
		}
	}
}

func (p *parser) parseSelect() error {
	if t := p.next(); t.kind != tokKeyword || t.text != "SELECT" {
		return p.errorf(t, "expected SELECT, found %s", t)
	}
	switch {
	case p.isKeyword("DISTINCT"):
		p.next()
		p.q.Distinct = true
	case p.isKeyword("REDUCED"):
		p.next()
		p.q.Reduced = true
	}

	if p.isPunct("*") {
		p.next()
		p.q.Star = true
		return nil
	}

	seen := make(map[string]bool)
	for p.peek().kind == tokVar {
		t := p.next()
		if seen[t.text] {
			return p.errorf(t, "variable ?%s projected twice", t.text)
		}
		seen[t.text] = true
		p.q.Vars = append(p.q.Vars, t.text)
	}
	if len(p.q.Vars) == 0 {
		return p.errorf(p.peek(), "SELECT expects '*' or variables, found %s", p.peek())
	}
	return nil
}

func (p *parser) parseWhere() error {
	if p.isKeyword("WHERE") {
		p.next()
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.isPunct("}") {
		if err := p.parseTriples(); err != nil {
			return err
		}
		if p.isPunct(".") {
			p.next()
			continue
		}
		if !p.isPunct("}") {
			return p.errorf(p.peek(), "expected '.' or '}', found %s", p.peek())
		}
	}
	return p.expectPunct("}")
}

// parseTriples reads one subject with its ';' and ',' separated
// predicate-object lists.
func (p *parser) parseTriples() error {
	subject, err := p.parseNode(false)
	if err != nil {
		return err
	}
	for {
		pred, plus, err := p.parseVerb()
		if err != nil {
			return err
		}
		for {
			object, err := p.parseNode(true)
			if err != nil {
				return err
			}
			p.q.Patterns = append(p.q.Patterns, Pattern{
				Subject:   subject,
				Predicate: pred,
				Object:    object,
				OneOrMore: plus,
			})
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
		if !p.isPunct(";") {
			return nil
		}
		for p.isPunct(";") {
			p.next()
		}
		if p.isPunct(".") || p.isPunct("}") {
			return nil
		}
	}
}

func (p *parser) parseVerb() (Term, bool, error) {
	t := p.peek()
	switch {
	case t.kind == tokKeyword && t.text == "a":
		p.next()
		return Term{Kind: IRI, Value: rdfType}, false, nil
	case t.kind == tokVar:
		p.next()
		if p.isPunct("+") {
			return Term{}, false, p.errorf(p.peek(), "path modifier on variable ?%s", t.text)
		}
		return Term{Kind: Var, Value: t.text}, false, nil
	case t.kind == tokIRI || t.kind == tokPName:
		iri, err := p.parseIRI()
		if err != nil {
			return Term{}, false, err
		}
		plus := false
		if p.isPunct("+") {
			p.next()
			plus = true
		} else if p.isPunct("*") {
			return Term{}, false, p.errorf(p.peek(), "zero-or-more paths are not supported")
		}
		return iri, plus, nil
	}
	return Term{}, false, p.errorf(t, "expected predicate, found %s", t)
}

func (p *parser) parseIRI() (Term, error) {
	t := p.next()
	switch t.kind {
	case tokIRI:
		return Term{Kind: IRI, Value: p.resolve(t.text)}, nil
	case tokPName:
		prefix, local, _ := strings.Cut(t.text, ":")
		ns, ok := p.q.Prefixes[prefix]
		if !ok {
			return Term{}, p.errorf(t, "undefined prefix %q", prefix)
		}
		return Term{Kind: IRI, Value: ns + local}, nil
	}
	return Term{}, p.errorf(t, "expected IRI, found %s", t)
}

func (p *parser) parseNode(allowLiteral bool) (Term, error) {
	t := p.peek()
	switch t.kind {
	case tokVar:
		p.next()
		return Term{Kind: Var, Value: t.text}, nil
	case tokBlank:
		p.next()
		return Term{Kind: Blank, Value: t.text}, nil
	case tokIRI, tokPName:
		return p.parseIRI()
	}
	if !allowLiteral {
		return Term{}, p.errorf(t, "expected subject, found %s", t)
	}

	switch {
	case t.kind == tokString:
		p.next()
		lit := Term{Kind: Literal, Value: t.text}
		switch {
		case p.peek().kind == tokLangTag:
			lit.Lang = strings.ToLower(p.next().text)
		case p.isPunct("^^"):
			p.next()
			dt, err := p.parseIRI()
			if err != nil {
				return Term{}, err
			}
			lit.Datatype = dt.Value
		}
		return lit, nil
	case t.kind == tokNumber:
		p.next()
		dt := xsdInteger
		if strings.Contains(t.text, ".") {
			dt = xsdDecimal
		}
		return Term{Kind: Literal, Value: t.text, Datatype: dt}, nil
	case t.kind == tokKeyword && (t.text == "TRUE" || t.text == "FALSE"):
		p.next()
		return Term{Kind: Literal, Value: strings.ToLower(t.text), Datatype: xsdBoolean}, nil
	}
	return Term{}, p.errorf(t, "expected object, found %s", t)
}

// resolve makes iri absolute against the BASE declared so far.
func (p *parser) resolve(iri string) string {
	if p.q.Base == "" {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	base, err := url.Parse(p.q.Base)
	if err != nil {
		return iri
	}
	return base.ResolveReference(ref).String()
}
