package parser

import (
	"strings"

	"github.com/rubiojr/scopc/errs"
	"github.com/rubiojr/scopc/scanner"
)

// TokKind identifies a lexical token kind. The lexer yields tokens inline
// with a single pass over the source via scanner.CodeScanner, a PEG-style
// combinator scan rather than a pre-built table-driven scanner.
type TokKind int

const (
	tEOF TokKind = iota
	tInt
	tFloat
	tString
	tRawString
	tIdent
	tAt
	tHash
	tColon
	tComma
	tSemi
	tLParen
	tRParen
	tLBracket
	tRBracket
	tLBrace
	tRBrace
	tPlus
	tMinus
	tStar
	tSlash
	tPercent
	tPow
	tShl
	tShr
	tAmp
	tPipe
	tCaret
	tAndAnd
	tOrOr
	tBang
	tTilde
	tEqEq
	tNotEq
	tGt
	tLt
	tGe
	tLe
	tAssign
	tInc
	tDec
	tPipeGt
	tQuestion
	tDot
	tDotColon
	tDotEq
)

// Token is one lexical unit with its source position.
type Token struct {
	Kind  TokKind
	Text  string
	Where Where
}

// Where is a parser-local position; converted to ast.Where at node
// construction time.
type Where struct {
	File string
	Line int
	Col  int
}

// Lexer tokenizes scopc source text. Tokens are buffered in buf so the
// parser can look arbitrarily far ahead (needed to disambiguate a
// parenthesized expression from a function literal's parameter list)
// without losing the already-scanned tokens.
type Lexer struct {
	file      string
	sc        *scanner.CodeScanner
	lineStart int
	buf       []Token
}

func NewLexer(file, src string) *Lexer {
	return &Lexer{file: file, sc: scanner.New(src)}
}

func (l *Lexer) where(pos, line int) Where {
	return Where{File: l.file, Line: line, Col: pos - l.lineStart + 1}
}

// fill ensures at least n+1 tokens are buffered (so buf[n] is valid),
// stopping early at EOF (repeated EOF tokens pad the rest of the buffer).
func (l *Lexer) fill(n int) error {
	for len(l.buf) <= n {
		if len(l.buf) > 0 && l.buf[len(l.buf)-1].Kind == tEOF {
			l.buf = append(l.buf, l.buf[len(l.buf)-1])
			continue
		}
		tok, err := l.lex()
		if err != nil {
			return err
		}
		l.buf = append(l.buf, tok)
	}
	return nil
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if err := l.fill(0); err != nil {
		return Token{}, err
	}
	return l.buf[0], nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, error) {
	if err := l.fill(0); err != nil {
		return Token{}, err
	}
	tok := l.buf[0]
	l.buf = l.buf[1:]
	return tok, nil
}

// peekN returns the token n positions ahead (peekN(0) == Peek) without
// consuming anything.
func (l *Lexer) peekN(n int) (Token, error) {
	if err := l.fill(n); err != nil {
		return Token{}, err
	}
	return l.buf[n], nil
}

// lookaheadUntilMatchingParen scans ahead (without consuming) from the
// current position — which must be immediately after a consumed '(' — up
// to and including its matching ')'. There is no nesting to track: a
// function literal's parameter list is a flat run of identifiers and
// commas, so the first ')' encountered is the match. Returns the scanned
// tokens plus one extra trailing token (to check what follows ')'), and
// the index of the ')' token within the returned slice.
func (l *Lexer) lookaheadUntilMatchingParen() ([]Token, int, error) {
	for i := 0; ; i++ {
		tok, err := l.peekN(i)
		if err != nil {
			return nil, 0, err
		}
		if tok.Kind == tRParen || tok.Kind == tEOF {
			trailing, err := l.peekN(i + 1)
			if err != nil {
				return nil, 0, err
			}
			toks := make([]Token, i+2)
			for j := 0; j <= i; j++ {
				toks[j], err = l.peekN(j)
				if err != nil {
					return nil, 0, err
				}
			}
			toks[i+1] = trailing
			return toks, i, nil
		}
	}
}

// lookaheadAfterOne returns the token immediately following the next
// (unconsumed) token, without consuming either.
func (l *Lexer) lookaheadAfterOne() ([]Token, error) {
	tok, err := l.peekN(1)
	if err != nil {
		return nil, err
	}
	return []Token{tok}, nil
}

func (l *Lexer) lex() (Token, error) {
	for {
		ch, ok := l.sc.Next()
		if !ok {
			return Token{Kind: tEOF, Where: l.where(l.sc.Pos(), l.sc.Line())}, nil
		}
		if ch == '\n' {
			l.lineStart = l.sc.Pos() + 1
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' {
			continue
		}
		if ch == '/' {
			if nx, ok := l.sc.Peek(); ok && nx == '/' {
				l.skipLineComment()
				continue
			}
		}

		start := l.sc.Pos()
		where := l.where(start, l.sc.Line())

		switch {
		case ch == '"':
			return l.lexString(where, '"', false)
		case ch == '\'':
			return l.lexString(where, '\'', true)
		case isDigit(ch):
			return l.lexNumber(ch, where)
		case isIdentStart(ch):
			return l.lexIdent(ch, where), nil
		default:
			return l.lexOperator(ch, where)
		}
	}
}

func (l *Lexer) skipLineComment() {
	for {
		ch, ok := l.sc.Peek()
		if !ok || ch == '\n' {
			return
		}
		l.sc.Next()
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
func isIdentCont(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func (l *Lexer) lexIdent(first byte, where Where) Token {
	var sb strings.Builder
	sb.WriteByte(first)
	for {
		ch, ok := l.sc.Peek()
		if !ok || !isIdentCont(ch) {
			break
		}
		l.sc.Next()
		sb.WriteByte(ch)
	}
	return Token{Kind: tIdent, Text: sb.String(), Where: where}
}

func (l *Lexer) lexNumber(first byte, where Where) (Token, error) {
	var sb strings.Builder
	sb.WriteByte(first)
	isFloat := false
	for {
		ch, ok := l.sc.Peek()
		if !ok {
			break
		}
		if isDigit(ch) {
			l.sc.Next()
			sb.WriteByte(ch)
			continue
		}
		if ch == '.' && !isFloat {
			// Don't consume a dot that starts a dot-operator (`1.foo`, `1..5` not in this grammar).
			// Only treat as decimal point when followed by a digit.
			if nxt, ok2 := peekAfter(l.sc); ok2 && isDigit(nxt) {
				isFloat = true
				l.sc.Next()
				sb.WriteByte(ch)
				continue
			}
		}
		break
	}
	if isFloat {
		return Token{Kind: tFloat, Text: sb.String(), Where: where}, nil
	}
	return Token{Kind: tInt, Text: sb.String(), Where: where}, nil
}

// peekAfter looks at the byte following a would-be '.' (the dot itself is
// one byte ahead of sc's current position, so the byte after it is two
// ahead).
func peekAfter(sc *scanner.CodeScanner) (byte, bool) {
	return sc.PeekAt(2)
}

func (l *Lexer) lexString(where Where, quote byte, raw bool) (Token, error) {
	var sb strings.Builder
	for {
		ch, ok := l.sc.Next()
		if !ok {
			return Token{}, errs.Parsef(errs.Pos{File: where.File, Line: where.Line, Col: where.Col}, "unterminated string literal")
		}
		if ch == '\\' {
			esc, ok := l.sc.Next()
			if !ok {
				return Token{}, errs.Parsef(errs.Pos{File: where.File, Line: where.Line, Col: where.Col}, "unterminated string literal")
			}
			if raw {
				// Single-quoted strings keep all backslash sequences
				// verbatim except the escaped quote itself (§6).
				if esc != quote {
					sb.WriteByte('\\')
				}
				sb.WriteByte(esc)
				continue
			}
			sb.WriteByte(decodeEscape(esc))
			continue
		}
		if ch == quote {
			break
		}
		sb.WriteByte(ch)
	}
	kind := tString
	if raw {
		kind = tRawString
	}
	return Token{Kind: kind, Text: sb.String(), Where: where}, nil
}

// decodeEscape implements the \\ \n \t \b \f \r \v \a table from §6; any
// other backslash sequence keeps the second character literal.
func decodeEscape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'r':
		return '\r'
	case 'v':
		return '\v'
	case 'a':
		return '\a'
	default:
		return ch
	}
}

func (l *Lexer) lexOperator(ch byte, where Where) (Token, error) {
	two := func(expect byte, kind2, kind1 TokKind) Token {
		if nx, ok := l.sc.Peek(); ok && nx == expect {
			l.sc.Next()
			return Token{Kind: kind2, Where: where}
		}
		return Token{Kind: kind1, Where: where}
	}
	switch ch {
	case '(':
		return Token{Kind: tLParen, Where: where}, nil
	case ')':
		return Token{Kind: tRParen, Where: where}, nil
	case '[':
		return Token{Kind: tLBracket, Where: where}, nil
	case ']':
		return Token{Kind: tRBracket, Where: where}, nil
	case '{':
		return Token{Kind: tLBrace, Where: where}, nil
	case '}':
		return Token{Kind: tRBrace, Where: where}, nil
	case ',':
		return Token{Kind: tComma, Where: where}, nil
	case ';':
		return Token{Kind: tSemi, Where: where}, nil
	case ':':
		return Token{Kind: tColon, Where: where}, nil
	case '#':
		return Token{Kind: tHash, Where: where}, nil
	case '@':
		return Token{Kind: tAt, Where: where}, nil
	case '?':
		return Token{Kind: tQuestion, Where: where}, nil
	case '~':
		return Token{Kind: tTilde, Where: where}, nil
	case '+':
		return two('+', tInc, tPlus), nil
	case '-':
		return two('-', tDec, tMinus), nil
	case '*':
		return two('*', tPow, tStar), nil
	case '/':
		return Token{Kind: tSlash, Where: where}, nil
	case '%':
		return Token{Kind: tPercent, Where: where}, nil
	case '&':
		return two('&', tAndAnd, tAmp), nil
	case '^':
		return Token{Kind: tCaret, Where: where}, nil
	case '!':
		return two('=', tNotEq, tBang), nil
	case '=':
		return two('=', tEqEq, tAssign), nil
	case '<':
		if nx, ok := l.sc.Peek(); ok && nx == '<' {
			l.sc.Next()
			return Token{Kind: tShl, Where: where}, nil
		}
		if nx, ok := l.sc.Peek(); ok && nx == '=' {
			l.sc.Next()
			return Token{Kind: tLe, Where: where}, nil
		}
		return Token{Kind: tLt, Where: where}, nil
	case '>':
		if nx, ok := l.sc.Peek(); ok && nx == '>' {
			l.sc.Next()
			return Token{Kind: tShr, Where: where}, nil
		}
		if nx, ok := l.sc.Peek(); ok && nx == '=' {
			l.sc.Next()
			return Token{Kind: tGe, Where: where}, nil
		}
		return Token{Kind: tGt, Where: where}, nil
	case '.':
		if nx, ok := l.sc.Peek(); ok && nx == ':' {
			l.sc.Next()
			return Token{Kind: tDotColon, Where: where}, nil
		}
		if nx, ok := l.sc.Peek(); ok && nx == '=' {
			l.sc.Next()
			return Token{Kind: tDotEq, Where: where}, nil
		}
		return Token{Kind: tDot, Where: where}, nil
	case '|':
		if nx, ok := l.sc.Peek(); ok && nx == '>' {
			l.sc.Next()
			return Token{Kind: tPipeGt, Where: where}, nil
		}
		return two('|', tOrOr, tPipe), nil
	default:
		return Token{}, errs.Parsef(errs.Pos{File: where.File, Line: where.Line, Col: where.Col}, "unexpected character %q", ch)
	}
}
