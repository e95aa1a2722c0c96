// Package token defines the tokens produced by the lexer.
package token

import (
	"fmt"
	"notjs/internal/span"
)

// Kind is the fine-grained type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT  // x, total_2
	NUMBER // 12, 3.5, 1e-3
	STRING // "hi", 'hi'

	// Operators
	ASSIGN   // =
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	BANG     // !
	PIPE     // |
	AMP      // &
	QUESTION // ?
	COLON    // :
	DOT      // .

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	// Compound assignment
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=
	STAR_ASSIGN  // *=
	SLASH_ASSIGN // /=

	// Punctuation
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	SEMICOLON // ;

	// Keywords
	KW_LET
	KW_CONST
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_RETURN
	KW_PRINT
	KW_TRUE
	KW_FALSE
	KW_NULL
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	ASSIGN:   "=",
	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	BANG:     "!",
	PIPE:     "|",
	AMP:      "&",
	QUESTION: "?",
	COLON:    ":",
	DOT:      ".",

	EQ:  "==",
	NEQ: "!=",
	LT:  "<",
	LTE: "<=",
	GT:  ">",
	GTE: ">=",

	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",
	STAR_ASSIGN:  "*=",
	SLASH_ASSIGN: "/=",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	SEMICOLON: ";",

	KW_LET:    "let",
	KW_CONST:  "const",
	KW_IF:     "if",
	KW_ELSE:   "else",
	KW_WHILE:  "while",
	KW_RETURN: "return",
	KW_PRINT:  "print",
	KW_TRUE:   "true",
	KW_FALSE:  "false",
	KW_NULL:   "null",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON and YAML dumps.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsKeyword reports whether k is a reserved word, including true, false and null.
func (k Kind) IsKeyword() bool {
	return k >= KW_LET && k <= KW_NULL
}

// IsAssign reports whether k is = or a compound assignment operator.
func (k Kind) IsAssign() bool {
	return k == ASSIGN || (k >= PLUS_ASSIGN && k <= SLASH_ASSIGN)
}

// Class is the coarse category of a token.
type Class int

const (
	ClassInvalid Class = iota
	ClassKeyword
	ClassIdentifier
	ClassNumber
	ClassString
	ClassBoolean
	ClassNull
	ClassOperator
	ClassPunctuation
	ClassEOF
)

var classNames = [...]string{
	ClassInvalid:     "invalid",
	ClassKeyword:     "keyword",
	ClassIdentifier:  "identifier",
	ClassNumber:      "number",
	ClassString:      "string",
	ClassBoolean:     "boolean",
	ClassNull:        "null",
	ClassOperator:    "operator",
	ClassPunctuation: "punctuation",
	ClassEOF:         "end-of-input",
}

func (c Class) String() string {
	if c >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// MarshalText renders the class by name.
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Class returns the category of k.
func (k Kind) Class() Class {
	switch {
	case k == EOF:
		return ClassEOF
	case k == IDENT:
		return ClassIdentifier
	case k == NUMBER:
		return ClassNumber
	case k == STRING:
		return ClassString
	case k == KW_TRUE || k == KW_FALSE:
		return ClassBoolean
	case k == KW_NULL:
		return ClassNull
	case k.IsKeyword():
		return ClassKeyword
	case k >= ASSIGN && k <= SLASH_ASSIGN:
		return ClassOperator
	case k >= LPAREN && k <= SEMICOLON:
		return ClassPunctuation
	}
	return ClassInvalid
}

var keywords = map[string]Kind{
	"let":    KW_LET,
	"const":  KW_CONST,
	"if":     KW_IF,
	"else":   KW_ELSE,
	"while":  KW_WHILE,
	"return": KW_RETURN,
	"print":  KW_PRINT,
	"true":   KW_TRUE,
	"false":  KW_FALSE,
	"null":   KW_NULL,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Keywords returns the reserved words in declaration order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := KW_LET; k <= KW_NULL; k++ {
		out = append(out, k.String())
	}
	return out
}

// Token is a lexical token with its kind, source text and location.
// For STRING tokens Lexeme holds the decoded value; the raw text is
// recoverable through Span.
type Token struct {
	Kind   Kind      `json:"kind"   yaml:"kind"`
	Lexeme string    `json:"lexeme" yaml:"lexeme"`
	Span   span.Span `json:"span"   yaml:"span"`
}

// Class returns the category of the token.
func (t Token) Class() Class { return t.Kind.Class() }

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
