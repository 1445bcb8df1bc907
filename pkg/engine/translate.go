package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Formula translation
// ---------------------------------------------------------------------------

// Formulas are written in infix notation, e.g. "(#width - 2) * 0.5 + height".
// translate turns them into a zygomys s-expression. Variable names become
// symbols through symbolFor, and every number is written as a float so
// that zygomys never performs integer division.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int // 1-based column
}

// tokenize splits a formula into tokens. Identifiers may start with a
// letter, '_', '#' (increments) or '@' (custom measurements).
func tokenize(formula string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(formula) {
		r, size := utf8.DecodeRuneInString(formula[i:])
		col := utf8.RuneCountInString(formula[:i]) + 1
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			toks = append(toks, token{tokLParen, "(", col})
			i += size
		case r == ')':
			toks = append(toks, token{tokRParen, ")", col})
			i += size
		case strings.ContainsRune("+-*/", r):
			toks = append(toks, token{tokOp, string(r), col})
			i += size
		case isDigit(r) || r == '.':
			j := scanNumber(formula, i)
			toks = append(toks, token{tokNumber, formula[i:j], col})
			i = j
		case isIdentStart(r):
			j := i + size
			for j < len(formula) {
				r2, s2 := utf8.DecodeRuneInString(formula[j:])
				if !isIdentChar(r2) {
					break
				}
				j += s2
			}
			toks = append(toks, token{tokIdent, formula[i:j], col})
			i = j
		default:
			return nil, &FormulaError{Formula: formula, Pos: col, Message: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{tokEOF, "", utf8.RuneCountInString(formula) + 1})
	return toks, nil
}

// scanNumber returns the end of the number starting at i: digits with an
// optional fraction and exponent.
func scanNumber(s string, i int) int {
	for i < len(s) && (isDigit(rune(s[i])) || s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(rune(s[j])) {
			for j < len(s) && isDigit(rune(s[j])) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '#' || r == '@'
}

func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// symbolFor maps a variable name to a zygomys symbol. Characters outside
// [A-Za-z0-9] are hex-escaped so distinct names never collide.
func symbolFor(name string) string {
	var b strings.Builder
	b.WriteString("v_")
	for _, c := range []byte(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

// floatLiteral formats v so that zygomys reads it as a float. Negative
// values are written as a subtraction from zero.
func floatLiteral(v float64) string {
	if v == 0 {
		return "0.0"
	}
	if v < 0 {
		return "(- 0.0 " + floatLiteral(-v) + ")"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// compiled is a translated formula ready to run.
type compiled struct {
	expr string   // prefix s-expression
	vars []string // distinct variable names in order of appearance
}

type parser struct {
	formula string
	toks    []token
	pos     int
	vars    []string
	seen    map[string]bool
}

// translate parses an infix formula into a compiled s-expression.
func translate(formula string) (*compiled, error) {
	if strings.TrimSpace(formula) == "" {
		return nil, &FormulaError{Formula: formula, Pos: 1, Message: "empty formula"}
	}
	toks, err := tokenize(formula)
	if err != nil {
		return nil, err
	}
	p := &parser{formula: formula, toks: toks, seen: make(map[string]bool)}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return &compiled{expr: expr, vars: p.vars}, nil
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
	return &FormulaError{Formula: p.formula, Pos: t.pos, Message: fmt.Sprintf(format, args...)}
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (string, error) {
	left, err := p.term()
	if err != nil {
		return "", err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return "", err
		}
		left = "(" + t.text + " " + left + " " + right + ")"
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) term() (string, error) {
	left, err := p.unary()
	if err != nil {
		return "", err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return "", err
		}
		left = "(" + t.text + " " + left + " " + right + ")"
	}
}

// unary := ('-' | '+') unary | primary
func (p *parser) unary() (string, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return "", err
		}
		if t.text == "+" {
			return operand, nil
		}
		return "(- 0.0 " + operand + ")", nil
	}
	return p.primary()
}

// primary := number | identifier | '(' expr ')'
func (p *parser) primary() (string, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return "", p.errorf(t, "malformed number %q", t.text)
		}
		return floatLiteral(v), nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return "", p.errorf(t, "function %q is not supported", t.text)
		}
		if !p.seen[t.text] {
			p.seen[t.text] = true
			p.vars = append(p.vars, t.text)
		}
		return symbolFor(t.text), nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return "", err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return "", p.errorf(closing, "expected ')'")
		}
		return inner, nil
	case tokEOF:
		return "", p.errorf(t, "unexpected end of formula")
	default:
		return "", p.errorf(t, "unexpected %q", t.text)
	}
}
