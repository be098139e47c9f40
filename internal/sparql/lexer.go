package sparql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokKeyword
	tokVar
	tokIRI
	tokPName
	tokBlank
	tokString
	tokLangTag
	tokNumber
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokKeyword:
		return "keyword"
	case tokVar:
		return "variable"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlank:
		return "blank node"
	case tokString:
		return "string"
	case tokLangTag:
		return "language tag"
	case tokNumber:
		return "number"
	default:
		return "punctuation"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  Pos
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}

// Pos is a 1-based line and column in the query text.
type Pos struct {
	Line, Col int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// SyntaxError reports malformed or unsupported query text.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sparql: %s: %s", e.Pos, e.Msg)
}

var keywords = map[string]bool{
	"PREFIX": true, "BASE": true, "SELECT": true, "DISTINCT": true,
	"REDUCED": true, "WHERE": true, "TRUE": true, "FALSE": true,
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) errorf(p Pos, format string, args ...any) error {
	return &SyntaxError{Pos: p, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekRune() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpace() {
	for l.off < len(l.src) {
		r := l.peekRune()
		switch {
		case r == '#':
			for l.off < len(l.src) && l.peekRune() != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) tokens() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	pos := Pos{Line: l.line, Col: l.col}
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: pos}, nil
	}

	r := l.peekRune()
	switch {
	case r == '?' || r == '$':
		l.advance()
		name := l.takeWhile(isNameRune)
		if name == "" {
			return token{}, l.errorf(pos, "empty variable name")
		}
		return token{kind: tokVar, text: name, pos: pos}, nil

	case r == '<':
		l.advance()
		start := l.off
		for {
			c := l.peekRune()
			if c == -1 || c == '\n' {
				return token{}, l.errorf(pos, "unterminated IRI")
			}
			if c == '>' {
				break
			}
			if c == ' ' || c == '"' || c == '{' || c == '}' {
				return token{}, l.errorf(pos, "invalid character %q in IRI", c)
			}
			l.advance()
		}
		text := l.src[start:l.off]
		l.advance()
		return token{kind: tokIRI, text: text, pos: pos}, nil

	case r == '"' || r == '\'':
		s, err := l.lexString(pos)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, pos: pos}, nil

	case r == '@':
		l.advance()
		tag := l.takeWhile(func(c rune) bool { return c == '-' || isASCIIAlnum(c) })
		if tag == "" {
			return token{}, l.errorf(pos, "empty language tag")
		}
		return token{kind: tokLangTag, text: tag, pos: pos}, nil

	case r == '_' && strings.HasPrefix(l.src[l.off:], "_:"):
		l.advance()
		l.advance()
		label := l.takeWhile(isNameRune)
		if label == "" {
			return token{}, l.errorf(pos, "empty blank node label")
		}
		return token{kind: tokBlank, text: label, pos: pos}, nil

	case r == '^' && strings.HasPrefix(l.src[l.off:], "^^"):
		l.advance()
		l.advance()
		return token{kind: tokPunct, text: "^^", pos: pos}, nil

	case r == '+' || r == '-' || unicode.IsDigit(r):
		if num := l.lexNumber(); num != "" {
			return token{kind: tokNumber, text: num, pos: pos}, nil
		}
		l.advance()
		return token{kind: tokPunct, text: string(r), pos: pos}, nil

	case strings.ContainsRune("{}.;,*()", r):
		l.advance()
		return token{kind: tokPunct, text: string(r), pos: pos}, nil

	case isNameStart(r) || r == ':':
		word := l.lexPName()
		if strings.Contains(word, ":") {
			return token{kind: tokPName, text: word, pos: pos}, nil
		}
		if upper := strings.ToUpper(word); keywords[upper] {
			return token{kind: tokKeyword, text: upper, pos: pos}, nil
		}
		if word == "a" {
			return token{kind: tokKeyword, text: "a", pos: pos}, nil
		}
		return token{}, l.errorf(pos, "unexpected word %q", word)
	}

	return token{}, l.errorf(pos, "unexpected character %q", r)
}

func (l *lexer) takeWhile(ok func(rune) bool) string {
	start := l.off
	for l.off < len(l.src) && ok(l.peekRune()) {
		l.advance()
	}
	return l.src[start:l.off]
}

// lexPName reads a prefixed name or bare word. A trailing '.' is left for
// the triple terminator.
func (l *lexer) lexPName() string {
	start := l.off
	for l.off < len(l.src) {
		c := l.peekRune()
		if c == '.' {
			rest := l.src[l.off+1:]
			nr, _ := utf8.DecodeRuneInString(rest)
			if rest == "" || !(isNameRune(nr) || nr == ':') {
				break
			}
		} else if !(isNameRune(c) || c == ':') {
			break
		}
		l.advance()
	}
	return l.src[start:l.off]
}

// lexNumber reads an integer or decimal literal, or returns "" and consumes
// nothing when the input is a bare sign.
func (l *lexer) lexNumber() string {
	rest := l.src[l.off:]
	i := 0
	if i < len(rest) && (rest[i] == '+' || rest[i] == '-') {
		i++
	}
	digits := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
		digits++
	}
	if i < len(rest)-1 && rest[i] == '.' && rest[i+1] >= '0' && rest[i+1] <= '9' {
		i++
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	for range i {
		l.advance()
	}
	return rest[:i]
}

func (l *lexer) lexString(pos Pos) (string, error) {
	quote := l.advance()
	long := strings.HasPrefix(l.src[l.off:], string([]rune{quote, quote}))
	if long {
		l.advance()
		l.advance()
	}

	var sb strings.Builder
	closing := string(quote)
	if long {
		closing = strings.Repeat(closing, 3)
	}
	for {
		if l.off >= len(l.src) {
			return "", l.errorf(pos, "unterminated string")
		}
		if strings.HasPrefix(l.src[l.off:], closing) {
			for range closing {
				l.advance()
			}
			return sb.String(), nil
		}
		c := l.advance()
		if c == '\n' && !long {
			return "", l.errorf(pos, "newline in string")
		}
		if c != '\\' {
			sb.WriteRune(c)
			continue
		}
		if l.off >= len(l.src) {
			return "", l.errorf(pos, "unterminated escape")
		}
		switch e := l.advance(); e {
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '"', '\'', '\\':
			sb.WriteRune(e)
		default:
			return "", l.errorf(pos, "unsupported escape \\%c", e)
		}
	}
}

func isASCIIAlnum(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
