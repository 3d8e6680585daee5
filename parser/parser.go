// Package parser implements the precedence-climbing recursive-descent
// parser of §4.1: a PEG-style combinator grammar yielding tokens inline
// with parsing (via the lexer in lexer.go), producing an ast.Expr tree.
// Mirrors the teacher's Parser struct / Parse(name, src) entry point.
package parser

import (
	"strconv"

	"github.com/rubiojr/scopc/ast"
	"github.com/rubiojr/scopc/errs"
)

// Parser parses a single scopc source unit into an ast.Expr tree.
type Parser struct {
	lex *Lexer
	f   *ast.Factory
}

// New creates a Parser for a named source buffer.
func New(file, src string) *Parser {
	return &Parser{lex: NewLexer(file, src), f: ast.NewFactory()}
}

// Parse parses src (named file for diagnostics) and returns the top-level
// expression. Per §1, a source unit is a single top-level function
// literal, but Parse accepts any `expression` so callers (the @import#m:
// path, tests) can parse sub-expressions too.
func Parse(file, src string) (ast.Expr, error) {
	p := New(file, src)
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != tEOF {
		return nil, p.errorf(tok.Where, "unexpected trailing token after expression")
	}
	return e, nil
}

func (p *Parser) where(w Where) ast.Where { return ast.Where{File: w.File, Line: w.Line, Col: w.Col} }

func (p *Parser) errorf(w Where, format string, args ...any) error {
	return errs.Parsef(errs.Pos{File: w.File, Line: w.Line, Col: w.Col}, format, args...)
}

func (p *Parser) peek() (Token, error) { return p.lex.Peek() }
func (p *Parser) next() (Token, error) { return p.lex.Next() }
func (p *Parser) expect(k TokKind, what string) (Token, error) {
	t, err := p.next()
	if err != nil {
		return t, err
	}
	if t.Kind != k {
		return t, p.errorf(t.Where, "expected %s", what)
	}
	return t, nil
}

// expression := ret_expr
func (p *Parser) parseExpression() (ast.Expr, error) { return p.parseRet() }

// ret_expr := '|>' assign_expr | assign_expr
func (p *Parser) parseRet() (ast.Expr, error) {
	if tok, err := p.peek(); err != nil {
		return nil, err
	} else if tok.Kind == tPipeGt {
		p.next()
		val, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return p.f.Op(p.where(tok.Where), ast.OpRet, val), nil
	}
	return p.parseAssign()
}

// assign_expr := cond_expr ('=' assign_expr)?
func (p *Parser) parseAssign() (ast.Expr, error) {
	lhs, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if tok, err := p.peek(); err != nil {
		return nil, err
	} else if tok.Kind == tAssign {
		p.next()
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return p.f.Assign(p.where(tok.Where), lhs, rhs), nil
	}
	return lhs, nil
}

// cond_expr := lor_expr ('?' lor_expr ':' lor_expr)*
func (p *Parser) parseCond() (ast.Expr, error) {
	cond, err := p.parseLor()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != tQuestion {
			return cond, nil
		}
		p.next()
		then, err := p.parseLor()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tColon, "':' in conditional expression"); err != nil {
			return nil, err
		}
		els, err := p.parseLor()
		if err != nil {
			return nil, err
		}
		cond = p.f.Op(p.where(tok.Where), ast.OpCond, cond, then, els)
	}
}

func (p *Parser) leftAssoc(next func() (ast.Expr, error), ops map[TokKind]ast.OpTag) (ast.Expr, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		tag, ok := ops[tok.Kind]
		if !ok {
			return lhs, nil
		}
		p.next()
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		lhs = p.f.Op(p.where(tok.Where), tag, lhs, rhs)
	}
}

func (p *Parser) parseLor() (ast.Expr, error) {
	return p.leftAssoc(p.parseLand, map[TokKind]ast.OpTag{tOrOr: ast.OpLor})
}
func (p *Parser) parseLand() (ast.Expr, error) {
	return p.leftAssoc(p.parseIor, map[TokKind]ast.OpTag{tAndAnd: ast.OpLand})
}
func (p *Parser) parseIor() (ast.Expr, error) {
	return p.leftAssoc(p.parseIxor, map[TokKind]ast.OpTag{tPipe: ast.OpIor})
}
func (p *Parser) parseIxor() (ast.Expr, error) {
	return p.leftAssoc(p.parseIand, map[TokKind]ast.OpTag{tCaret: ast.OpIxor})
}
func (p *Parser) parseIand() (ast.Expr, error) {
	return p.leftAssoc(p.parseCmp, map[TokKind]ast.OpTag{tAmp: ast.OpIand})
}

// cmp_expr := shift_expr (('>'|'<'|'>='|'<='|'=='|'!=') shift_expr)*
func (p *Parser) parseCmp() (ast.Expr, error) {
	return p.leftAssoc(p.parseShift, map[TokKind]ast.OpTag{
		tGt: ast.OpGt, tLt: ast.OpLt, tGe: ast.OpGtq, tLe: ast.OpLtq,
		tEqEq: ast.OpEeq, tNotEq: ast.OpNeq,
	})
}

// shift_expr := add_expr (('<<'|'>>') add_expr)*
func (p *Parser) parseShift() (ast.Expr, error) {
	return p.leftAssoc(p.parseAdd, map[TokKind]ast.OpTag{tShl: ast.OpShl, tShr: ast.OpShr})
}

// add_expr := mul_expr (('+'|'-'|'%') mul_expr)*
func (p *Parser) parseAdd() (ast.Expr, error) {
	return p.leftAssoc(p.parseMul, map[TokKind]ast.OpTag{tPlus: ast.OpAdd, tMinus: ast.OpSub, tPercent: ast.OpRem})
}

// mul_expr := pre_sinop (('*'|'/'|'**') pre_sinop)*
func (p *Parser) parseMul() (ast.Expr, error) {
	return p.leftAssoc(p.parsePreSinop, map[TokKind]ast.OpTag{tStar: ast.OpMul, tSlash: ast.OpDiv, tPow: ast.OpPow})
}

// pre_sinop := ('!'|'~'|'++'|'--')? post_sinop
func (p *Parser) parsePreSinop() (ast.Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case tBang:
		p.next()
		operand, err := p.parsePreSinop()
		if err != nil {
			return nil, err
		}
		return p.f.Op(p.where(tok.Where), ast.OpLnot, operand), nil
	case tTilde:
		p.next()
		operand, err := p.parsePreSinop()
		if err != nil {
			return nil, err
		}
		return p.f.Op(p.where(tok.Where), ast.OpInot, operand), nil
	case tInc, tDec:
		p.next()
		operand, err := p.parsePreSinop()
		if err != nil {
			return nil, err
		}
		return p.f.ExpandIncDec(p.where(tok.Where), operand, tok.Kind == tInc), nil
	}
	return p.parsePostSinop()
}

// post_sinop := call_expr ('++'|'--')?
func (p *Parser) parsePostSinop() (ast.Expr, error) {
	e, err := p.parseCall()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == tInc || tok.Kind == tDec {
		p.next()
		return p.f.ExpandIncDec(p.where(tok.Where), e, tok.Kind == tInc), nil
	}
	return e, nil
}

// call_expr := attr_expr (('(' args ')') | ('[' expression ']'))*
func (p *Parser) parseCall() (ast.Expr, error) {
	e, err := p.parseAttr()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case tLParen:
			p.next()
			args, argsWhere, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			argList := p.f.ArgList(argsWhere, args)
			e = p.f.Call(p.where(tok.Where), e, argList)
		case tLBracket:
			p.next()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tRBracket, "']'"); err != nil {
				return nil, err
			}
			e = p.f.Op(p.where(tok.Where), ast.OpAt, e, idx)
		default:
			return e, nil
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, ast.Where, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, ast.Where{}, err
	}
	where := p.where(tok.Where)
	var args []ast.Expr
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, where, err
		}
		if tok.Kind == tRParen {
			p.next()
			return args, where, nil
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, where, err
		}
		args = append(args, e)
		tok, err = p.peek()
		if err != nil {
			return nil, where, err
		}
		if tok.Kind == tComma {
			p.next()
			continue
		}
		if _, err := p.expect(tRParen, "')'"); err != nil {
			return nil, where, err
		}
		return args, where, nil
	}
}

// attr_expr := dot_expr ('#' identifier (':' attribute_val)?)*
func (p *Parser) parseAttr() (ast.Expr, error) {
	e, err := p.parseDot()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != tHash {
			return e, nil
		}
		p.next()
		key, err := p.expect(tIdent, "attribute name after '#'")
		if err != nil {
			return nil, err
		}
		val := ""
		if colon, err := p.peek(); err != nil {
			return nil, err
		} else if colon.Kind == tColon {
			p.next()
			v, err := p.parseAttributeVal()
			if err != nil {
				return nil, err
			}
			val = v
		}
		e.Attrs().SetAttribute(key.Text, val)
	}
}

// attribute_val is the free-form right-hand side of #key:val — an
// identifier-shaped token run (type names like "i32", "ptr", or a variable
// name for #typeof), so it is lexed the same way an identifier is, with
// trailing '*' allowed for pointer-type suffixes.
func (p *Parser) parseAttributeVal() (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	switch tok.Kind {
	case tIdent:
		val := tok.Text
		for {
			nx, err := p.peek()
			if err != nil {
				return "", err
			}
			switch nx.Kind {
			case tStar:
				val += "*"
			case tPow:
				val += "**"
			default:
				return val, nil
			}
			p.next()
		}
	case tInt:
		return tok.Text, nil
	case tString:
		return tok.Text, nil
	default:
		return "", p.errorf(tok.Where, "expected attribute value")
	}
}

// dot_expr := primary (('.:'|'.='|'.') struct_key)*
func (p *Parser) parseDot() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		var tag ast.OpTag
		switch tok.Kind {
		case tDot:
			tag = ast.OpDot
		case tDotColon:
			tag = ast.OpOdot
		case tDotEq:
			tag = ast.OpAdot
		default:
			return e, nil
		}
		p.next()
		key, err := p.parseStructKey()
		if err != nil {
			return nil, err
		}
		e = p.f.Op(p.where(tok.Where), tag, e, key)
	}
}

// struct_key := identifier | operator-symbol
func (p *Parser) parseStructKey() (*ast.StructKey, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if tok.Kind == tIdent {
		return p.f.StructKey(p.where(tok.Where), tok.Text, false), nil
	}
	if sym, ok := operatorSymbolFor(tok.Kind); ok {
		return p.f.StructKey(p.where(tok.Where), sym, true), nil
	}
	return nil, p.errorf(tok.Where, "expected field name or operator symbol after '.'")
}

func operatorSymbolFor(k TokKind) (string, bool) {
	switch k {
	case tPlus:
		return "+", true
	case tMinus:
		return "-", true
	case tStar:
		return "*", true
	case tSlash:
		return "/", true
	case tPercent:
		return "%", true
	case tPow:
		return "**", true
	case tEqEq:
		return "==", true
	case tNotEq:
		return "!=", true
	case tGt:
		return ">", true
	case tLt:
		return "<", true
	case tGe:
		return ">=", true
	case tLe:
		return "<=", true
	case tLBracket:
		return "[]", true
	case tLParen:
		return "()", true
	default:
		return "", false
	}
}

// primary := decimal | integer | bool | string | raw_string
//          | variable | pre_variable | structure | array | function | scope
//          | '(' expression ')'
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	where := p.where(tok.Where)
	switch tok.Kind {
	case tInt:
		v, err := strconv.ParseInt(tok.Text, 10, 32)
		if err != nil {
			return nil, p.errorf(tok.Where, "invalid integer literal %q", tok.Text)
		}
		return p.f.Integer(where, int32(v)), nil
	case tFloat:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf(tok.Where, "invalid decimal literal %q", tok.Text)
		}
		return p.f.Decimal(where, v), nil
	case tString:
		return p.f.String(where, tok.Text), nil
	case tRawString:
		return p.f.RawString(where, tok.Text), nil
	case tIdent:
		switch tok.Text {
		case "true":
			return p.f.Boolean(where, true), nil
		case "false":
			return p.f.Boolean(where, false), nil
		default:
			return p.f.Variable(where, tok.Text), nil
		}
	case tAt:
		name, err := p.expect(tIdent, "identifier after '@'")
		if err != nil {
			return nil, err
		}
		return p.f.PreVariable(where, name.Text), nil
	case tLParen:
		return p.parseParenOrFunction(where)
	case tLBrace:
		return p.parseScope(where)
	case tLBracket:
		return p.parseArrayOrStructure(where)
	default:
		return nil, p.errorf(tok.Where, "unexpected token in expression")
	}
}

// parseParenOrFunction disambiguates '(' expression ')' from a function
// literal '(' identifier* ')' '{' ... '}' by trying the function-literal
// shape first (identifier list followed by ')' then '{') and backtracking
// to a parenthesized expression otherwise. A lone '()' is the empty
// parameter list of a function literal (a bare parenthesized expression is
// never empty), so '()' followed by '{' is a function literal too.
func (p *Parser) parseParenOrFunction(where ast.Where) (ast.Expr, error) {
	if looksLikeParamList, err := p.looksLikeFunctionLiteral(); err != nil {
		return nil, err
	} else if looksLikeParamList {
		return p.parseFunctionAfterParen(where)
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tRParen, "')'"); err != nil {
		return nil, err
	}
	return e, nil
}

// looksLikeFunctionLiteral peeks far enough to tell a parameter list apart
// from a parenthesized expression without a full backtracking parser: scan
// tokens until the matching ')'; it's a parameter list iff every token up
// to it is an identifier or comma (possibly empty) AND the token right
// after that ')' is '{'.
func (p *Parser) looksLikeFunctionLiteral() (bool, error) {
	toks, closeIdx, err := p.lex.lookaheadUntilMatchingParen()
	if err != nil {
		return false, err
	}
	for i := 0; i < closeIdx; i++ {
		if toks[i].Kind != tIdent && toks[i].Kind != tComma {
			return false, nil
		}
	}
	if closeIdx+1 >= len(toks) {
		return false, nil
	}
	return toks[closeIdx+1].Kind == tLBrace, nil
}

func (p *Parser) parseFunctionAfterParen(where ast.Where) (ast.Expr, error) {
	var params []*ast.Identifier
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == tRParen {
			p.next()
			break
		}
		name, err := p.expect(tIdent, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, p.f.Identifier(p.where(name.Where), name.Text))
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == tComma {
			p.next()
		}
	}
	if _, err := p.expect(tLBrace, "'{' to open function body"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	return p.f.Function(where, params, body), nil
}

// scope := '{' (expression ';')* '}'
func (p *Parser) parseScope(where ast.Where) (ast.Expr, error) {
	body, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	return p.f.Scope(where, body), nil
}

func (p *Parser) parseBlockBody() ([]ast.Expr, error) {
	var body []ast.Expr
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == tRBrace {
			p.next()
			return body, nil
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body = append(body, e)
		if _, err := p.expect(tSemi, "';' after expression"); err != nil {
			return nil, err
		}
	}
}

// array := '[' (expression ','?)* ']'
// structure := '[' (struct_key ':' expression ','?)* ']'
// Disambiguated by whether the first element (if any) is followed by ':'.
func (p *Parser) parseArrayOrStructure(where ast.Where) (ast.Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == tRBracket {
		p.next()
		return p.f.Array(where, nil), nil
	}

	isStruct, err := p.looksLikeStructureKey()
	if err != nil {
		return nil, err
	}
	if isStruct {
		return p.parseStructure(where)
	}
	return p.parseArray(where)
}

// looksLikeStructureKey peeks for `identifier-or-operator-symbol ':'`
// immediately inside the brackets.
func (p *Parser) looksLikeStructureKey() (bool, error) {
	first, err := p.peek()
	if err != nil {
		return false, err
	}
	isKeyShaped := first.Kind == tIdent
	if !isKeyShaped {
		_, isKeyShaped = operatorSymbolFor(first.Kind)
	}
	if !isKeyShaped {
		return false, nil
	}
	toks, err := p.lex.lookaheadAfterOne()
	if err != nil {
		return false, err
	}
	return len(toks) > 0 && toks[0].Kind == tColon, nil
}

func (p *Parser) parseArray(where ast.Where) (ast.Expr, error) {
	var elems []ast.Expr
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == tComma {
			p.next()
		}
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == tRBracket {
			p.next()
			return p.f.Array(where, elems), nil
		}
	}
}

func (p *Parser) parseStructure(where ast.Where) (ast.Expr, error) {
	var fields []ast.StructField
	for {
		key, err := p.parseStructKey()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tColon, "':' after structure key"); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructField{Key: key, Value: val})
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == tComma {
			p.next()
		}
		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == tRBracket {
			p.next()
			return p.f.Structure(where, fields), nil
		}
	}
}
