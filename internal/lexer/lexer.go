// Package lexer turns source text into tokens.
package lexer

import (
	"notjs/internal/diag"
	"notjs/internal/span"
	"notjs/internal/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer scans source text left to right. Tokens can be pulled one at a time
// with Next or all at once with Tokenize.
type Lexer struct {
	source   string
	filename string

	pos  int // byte offset of the next unread rune
	line int // 1-based
	col  int // 1-based, in runes

	diags diag.List
	done  bool
}

// New creates a Lexer for source. filename is only used in diagnostics.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Filename returns the name the lexer was created with.
func (l *Lexer) Filename() string { return l.filename }

// Next returns the next token. After the end of input it keeps returning EOF.
// Lexical errors produce an ILLEGAL token and are recorded in Diagnostics.
func (l *Lexer) Next() token.Token {
	if l.done {
		return token.Token{Kind: token.EOF, Span: l.makeSpan(l.curPos())}
	}
	tok := l.nextToken()
	if tok.Kind == token.EOF {
		l.done = true
	}
	return tok
}

// Diagnostics returns the errors recorded so far.
func (l *Lexer) Diagnostics() diag.List { return l.diags }

// Tokenize scans the remaining input. The returned error, if any, is a
// diag.List holding every lexical error; the token slice always ends in EOF.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags.Err()
}

// Tokenize is shorthand for New(source, filename).Tokenize().
func Tokenize(source, filename string) ([]token.Token, error) {
	return New(source, filename).Tokenize()
}

// ---- internal helpers ----

// peek returns the current rune without advancing, or 0 at end of input.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

// peekNext returns the rune after the current one, or 0.
func (l *Lexer) peekNext() rune {
	if l.pos >= len(l.source) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.source[l.pos:])
	if l.pos+w >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+w:])
	return r
}

// advance consumes the current rune and returns it.
func (l *Lexer) advance() rune {
	r, w := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) token(kind token.Kind, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: l.source[start.Offset:l.pos], Span: l.makeSpan(start)}
}

func (l *Lexer) illegal(start span.Position, code, format string, args ...any) token.Token {
	s := l.makeSpan(start)
	l.diags = append(l.diags, diag.Errorf(code, s, format, args...))
	return token.Token{Kind: token.ILLEGAL, Lexeme: l.source[start.Offset:l.pos], Span: s}
}

// skipTrivia skips whitespace and comments. It reports false if a block
// comment ran off the end of input.
func (l *Lexer) skipTrivia() bool {
	for !l.atEnd() {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekNext() == '*':
			start := l.curPos()
			if !l.skipBlockComment() {
				l.diags = append(l.diags, diag.Errorf(diag.CodeUnterminatedComment,
					l.makeSpan(start), "unterminated block comment"))
				return false
			}
		default:
			return true
		}
	}
	return true
}

// skipBlockComment consumes a possibly nested /* ... */ comment.
func (l *Lexer) skipBlockComment() bool {
	l.advance()
	l.advance()
	depth := 1
	for !l.atEnd() {
		switch {
		case l.peek() == '/' && l.peekNext() == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekNext() == '/':
			l.advance()
			l.advance()
			depth--
			if depth == 0 {
				return true
			}
		default:
			l.advance()
		}
	}
	return false
}

// ---- token reading ----

func (l *Lexer) nextToken() token.Token {
	if !l.skipTrivia() {
		return token.Token{Kind: token.EOF, Span: l.makeSpan(l.curPos())}
	}

	if l.atEnd() {
		return token.Token{Kind: token.EOF, Span: l.makeSpan(l.curPos())}
	}

	start := l.curPos()
	ch := l.peek()

	switch {
	case ch == '"' || ch == '\'':
		return l.readString(start, ch)
	case isDigit(ch):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start)
	}
	return l.readOperator(start)
}

// readString reads a quoted literal. The token lexeme is the decoded value.
func (l *Lexer) readString(start span.Position, quote rune) token.Token {
	l.advance()
	var b strings.Builder

	for !l.atEnd() {
		ch := l.peek()
		if ch == quote {
			l.advance()
			return token.Token{Kind: token.STRING, Lexeme: b.String(), Span: l.makeSpan(start)}
		}
		if ch == '\n' {
			break
		}
		if ch == '\\' {
			escStart := l.curPos()
			l.advance()
			if l.atEnd() {
				break
			}
			esc := l.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\', '"', '\'':
				b.WriteRune(esc)
			default:
				l.diags = append(l.diags, diag.Errorf(diag.CodeBadEscape, l.makeSpan(escStart),
					"unknown escape sequence: \\%c", esc))
			}
			continue
		}
		b.WriteRune(l.advance())
	}

	return l.illegal(start, diag.CodeUnterminatedString, "unterminated string literal")
}

// readNumber reads digits with an optional fraction and exponent.
func (l *Lexer) readNumber(start span.Position) token.Token {
	l.digits()

	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance()
		l.digits()
	}

	if e := l.peek(); e == 'e' || e == 'E' {
		// Only treat it as an exponent when digits follow; otherwise
		// the e starts an identifier and the parser reports it.
		save, saveLine, saveCol := l.pos, l.line, l.col
		l.advance()
		if s := l.peek(); s == '+' || s == '-' {
			l.advance()
		}
		if isDigit(l.peek()) {
			l.digits()
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}

	return l.token(token.NUMBER, start)
}

func (l *Lexer) digits() {
	for isDigit(l.peek()) {
		l.advance()
	}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.source[start.Offset:l.pos]
	return token.Token{Kind: token.LookupIdent(lexeme), Lexeme: lexeme, Span: l.makeSpan(start)}
}

// readOperator reads an operator or punctuation token, preferring the
// two-character form when the next rune is '='.
func (l *Lexer) readOperator(start span.Position) token.Token {
	ch := l.advance()

	withEq := func(two, one token.Kind) token.Token {
		if l.peek() == '=' {
			l.advance()
			return l.token(two, start)
		}
		return l.token(one, start)
	}

	switch ch {
	case '(':
		return l.token(token.LPAREN, start)
	case ')':
		return l.token(token.RPAREN, start)
	case '{':
		return l.token(token.LBRACE, start)
	case '}':
		return l.token(token.RBRACE, start)
	case '[':
		return l.token(token.LBRACKET, start)
	case ']':
		return l.token(token.RBRACKET, start)
	case ',':
		return l.token(token.COMMA, start)
	case '.':
		return l.token(token.DOT, start)
	case ';':
		return l.token(token.SEMICOLON, start)
	case ':':
		return l.token(token.COLON, start)
	case '?':
		return l.token(token.QUESTION, start)
	case '|':
		return l.token(token.PIPE, start)
	case '&':
		return l.token(token.AMP, start)
	case '+':
		return withEq(token.PLUS_ASSIGN, token.PLUS)
	case '-':
		return withEq(token.MINUS_ASSIGN, token.MINUS)
	case '*':
		return withEq(token.STAR_ASSIGN, token.STAR)
	case '/':
		return withEq(token.SLASH_ASSIGN, token.SLASH)
	case '!':
		return withEq(token.NEQ, token.BANG)
	case '=':
		return withEq(token.EQ, token.ASSIGN)
	case '<':
		return withEq(token.LTE, token.LT)
	case '>':
		return withEq(token.GTE, token.GT)
	}

	return l.illegal(start, diag.CodeUnexpectedChar, "unexpected character: %q", ch)
}

// ---- character classification ----

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
