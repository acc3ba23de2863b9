package rql

import (
	"fmt"
	"strconv"
	"strings"
)

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != eofToken {
		p.pos++
	}
	return t
}

func (p *parser) accept(word string) bool {
	if p.peek().is(word) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(word string) error {
	if !p.accept(word) {
		return fmt.Errorf("expected %s near %q", strings.ToUpper(word), p.peek().raw())
	}
	return nil
}

func (p *parser) ident(what string) (string, error) {
	t := p.next()
	if t.kind != identToken || isReserved(t.text) {
		return "", fmt.Errorf("expected %s near %q", what, t.raw())
	}
	return strings.ToLower(t.text), nil
}

var reserved = map[string]struct{}{
	"select": {}, "from": {}, "where": {}, "and": {}, "or": {}, "order": {}, "by": {},
	"asc": {}, "desc": {}, "limit": {}, "as": {}, "is": {}, "not": {}, "null": {},
	"in": {}, "like": {}, "join": {}, "union": {}, "group": {}, "having": {},
}

func isReserved(word string) bool {
	_, ok := reserved[strings.ToLower(word)]
	return ok
}

// parseSelect parses a full statement.
func parseSelect(toks []token) (*Select, error) {
	p := &parser{toks: toks}
	if err := p.expect("select"); err != nil {
		return nil, err
	}

	stmt := &Select{}
	if p.accept("*") {
		stmt.Star = true
	} else {
		for {
			proj, err := p.projection()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, proj)
			if !p.accept(",") {
				break
			}
		}
	}

	if err := p.expect("from"); err != nil {
		return nil, err
	}
	table, err := p.ident("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if p.accept("where") {
		for {
			pred, err := p.predicate()
			if err != nil {
				return nil, err
			}
			stmt.Where = append(stmt.Where, pred)
			if p.peek().is("or") {
				return nil, fmt.Errorf("OR is not supported")
			}
			if !p.accept("and") {
				break
			}
		}
	}

	if p.accept("order") {
		if err := p.expect("by"); err != nil {
			return nil, err
		}
		col, err := p.ident("ORDER BY column")
		if err != nil {
			return nil, err
		}
		ob := &OrderBy{Column: col, Desc: true}
		if p.accept("asc") {
			ob.Desc = false
		} else {
			p.accept("desc")
		}
		stmt.OrderBy = ob
	}

	if p.accept("limit") {
		t := p.next()
		n, err := strconv.Atoi(t.text)
		if t.kind != numberToken || err != nil {
			return nil, fmt.Errorf("LIMIT must be an integer near %q", t.raw())
		}
		stmt.Limit = &n
	}

	p.accept(";")
	if t := p.peek(); t.kind != eofToken {
		return nil, fmt.Errorf("unexpected %q", t.raw())
	}
	return stmt, nil
}

// projection parses one select item up to the next top-level comma or FROM.
func (p *parser) projection() (Projection, error) {
	var parts []token
	depth := 0
	for {
		t := p.peek()
		if t.kind == eofToken {
			return Projection{}, fmt.Errorf("missing FROM clause")
		}
		if depth == 0 && (t.is(",") || t.is("from") || t.is("as")) {
			break
		}
		if t.is("(") {
			depth++
		}
		if t.is(")") {
			depth--
		}
		parts = append(parts, p.next())
	}
	if len(parts) == 0 {
		return Projection{}, fmt.Errorf("empty select item near %q", p.peek().raw())
	}

	var proj Projection
	if len(parts) == 1 && parts[0].kind == identToken && !isReserved(parts[0].text) {
		proj.Column = strings.ToLower(parts[0].text)
	} else {
		proj.Expr = joinRaw(parts)
	}

	if p.accept("as") {
		alias, err := p.ident("alias")
		if err != nil {
			return Projection{}, err
		}
		proj.Alias = alias
	}
	return proj, nil
}

// joinRaw rebuilds expression text with spacing only between operands.
func joinRaw(parts []token) string {
	var b strings.Builder
	for i, t := range parts {
		if i > 0 {
			prev := parts[i-1]
			if !prev.is("(") && !t.is("(") && !t.is(")") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.raw())
	}
	return b.String()
}

func (p *parser) predicate() (Predicate, error) {
	col, err := p.ident("column")
	if err != nil {
		return Predicate{}, err
	}
	pred := Predicate{Column: col}

	switch {
	case p.accept("is"):
		if p.accept("not") {
			pred.Op = OpIsNotNull
		} else {
			pred.Op = OpIsNull
		}
		if err := p.expect("null"); err != nil {
			return Predicate{}, err
		}
		return pred, nil

	case p.accept("not"):
		switch {
		case p.accept("in"):
			pred.Op = OpNotIn
			pred.Values, err = p.valueList()
		case p.accept("like"):
			pred.Op = OpNotLike
			pred.Values, err = p.likePattern()
		default:
			err = fmt.Errorf("expected IN or LIKE after NOT")
		}
		return pred, err

	case p.accept("in"):
		pred.Op = OpIn
		pred.Values, err = p.valueList()
		return pred, err

	case p.accept("like"):
		pred.Op = OpLike
		pred.Values, err = p.likePattern()
		return pred, err
	}

	t := p.next()
	switch t.text {
	case "=":
		pred.Op = OpEq
	case "!=", "<>":
		pred.Op = OpNe
	case ">":
		pred.Op = OpGt
	case "<":
		pred.Op = OpLt
	case ">=":
		pred.Op = OpGe
	case "<=":
		pred.Op = OpLe
	default:
		return Predicate{}, fmt.Errorf("unsupported operator near %q", t.raw())
	}
	v, err := p.value()
	if err != nil {
		return Predicate{}, err
	}
	pred.Values = []string{v}
	return pred, nil
}

func (p *parser) value() (string, error) {
	t := p.next()
	switch t.kind {
	case stringToken, numberToken:
		return t.text, nil
	case identToken:
		if t.is("true") || t.is("false") {
			return strings.ToLower(t.text), nil
		}
	}
	return "", fmt.Errorf("expected literal value near %q", t.raw())
}

func (p *parser) likePattern() ([]string, error) {
	t := p.next()
	if t.kind != stringToken {
		return nil, fmt.Errorf("LIKE requires a quoted pattern near %q", t.raw())
	}
	return []string{t.text}, nil
}

func (p *parser) valueList() ([]string, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var vals []string
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.accept(")") {
			return vals, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}
