package template

import (
	"fmt"
	"strings"

	"layerweave/internal/config"
)

// exprParser evaluates conditional expressions of the form
// func(arg, ...) over a fixed function set:
//
//	pack(name)       active-pack membership
//	config(path)     config-value truthiness
//	eq(path, value)  config-value equality
//	exists(path)     config-value existence
//	env(NAME)        environment-flag presence
//	not(expr)        negation
//	and(expr, ...)   conjunction
//	or(expr, ...)    disjunction
//
// Unknown function names are a hard error. Unresolved operands (a config
// path that does not exist) evaluate to false, never to an error.
type exprParser struct {
	doc    string
	expr   string
	offset int // byte offset of the enclosing directive, for error values
	pos    int
	ctx    *config.Context
}

func evalExpr(doc, expr string, offset int, ctx *config.Context) (bool, error) {
	p := &exprParser{doc: doc, expr: expr, offset: offset, ctx: ctx}
	v, err := p.parseExpr()
	if err != nil {
		return false, err
	}
	p.skipSpace()
	if p.pos != len(p.expr) {
		return false, fmt.Errorf("%s: trailing input in conditional expression %q", doc, expr)
	}
	return v, nil
}

func (p *exprParser) parseExpr() (bool, error) {
	p.skipSpace()
	name := p.readIdent()
	if name == "" {
		return false, fmt.Errorf("%s: expected function name in conditional expression %q", p.doc, p.expr)
	}
	if err := p.expect('('); err != nil {
		return false, err
	}

	var result bool
	switch name {
	case "pack":
		arg, err := p.readLiteral()
		if err != nil {
			return false, err
		}
		result = p.ctx.PackActive(arg)

	case "config":
		arg, err := p.readLiteral()
		if err != nil {
			return false, err
		}
		v, ok := p.ctx.Lookup(arg)
		result = ok && config.Truthy(v)

	case "exists":
		arg, err := p.readLiteral()
		if err != nil {
			return false, err
		}
		_, result = p.ctx.Lookup(arg)

	case "env":
		arg, err := p.readLiteral()
		if err != nil {
			return false, err
		}
		_, result = p.ctx.LookupEnv(arg)

	case "eq":
		path, err := p.readLiteral()
		if err != nil {
			return false, err
		}
		if err := p.expect(','); err != nil {
			return false, err
		}
		want, err := p.readLiteral()
		if err != nil {
			return false, err
		}
		got, ok := p.ctx.LookupString(path)
		result = ok && got == want

	case "not":
		v, err := p.parseExpr()
		if err != nil {
			return false, err
		}
		result = !v

	case "and", "or":
		vals, err := p.parseExprList()
		if err != nil {
			return false, err
		}
		result = name == "and"
		for _, v := range vals {
			if name == "and" {
				result = result && v
			} else {
				result = result || v
			}
		}

	default:
		return false, &UnknownFunctionError{Doc: p.doc, Name: name, Expr: p.expr, Offset: p.offset}
	}

	if err := p.expect(')'); err != nil {
		return false, err
	}
	return result, nil
}

func (p *exprParser) parseExprList() ([]bool, error) {
	var vals []bool
	for {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)

		p.skipSpace()
		if p.pos < len(p.expr) && p.expr[p.pos] == ',' {
			p.pos++
			continue
		}
		return vals, nil
	}
}

func (p *exprParser) readIdent() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.expr) {
		c := p.expr[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.expr[start:p.pos]
}

// readLiteral reads a bare argument up to the next comma or closing
// parenthesis. Optional surrounding quotes are stripped.
func (p *exprParser) readLiteral() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.expr) {
		c := p.expr[p.pos]
		if c == ',' || c == ')' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("%s: expected argument in conditional expression %q", p.doc, p.expr)
	}
	lit := strings.TrimSpace(p.expr[start:p.pos])
	lit = strings.Trim(lit, `"'`)
	return lit, nil
}

func (p *exprParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.expr) || p.expr[p.pos] != c {
		return fmt.Errorf("%s: expected %q in conditional expression %q", p.doc, string(c), p.expr)
	}
	p.pos++
	return nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.expr) && (p.expr[p.pos] == ' ' || p.expr[p.pos] == '\t') {
		p.pos++
	}
}
