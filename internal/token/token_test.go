package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClass(t *testing.T) {
	tests := []struct {
		kind Kind
		want Class
	}{
		{EOF, ClassEOF},
		{IDENT, ClassIdentifier},
		{NUMBER, ClassNumber},
		{STRING, ClassString},
		{KW_TRUE, ClassBoolean},
		{KW_FALSE, ClassBoolean},
		{KW_NULL, ClassNull},
		{KW_LET, ClassKeyword},
		{KW_PRINT, ClassKeyword},
		{ASSIGN, ClassOperator},
		{SLASH_ASSIGN, ClassOperator},
		{PIPE, ClassOperator},
		{LPAREN, ClassPunctuation},
		{SEMICOLON, ClassPunctuation},
		{ILLEGAL, ClassInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Class())
		})
	}
}

func TestLookupIdent(t *testing.T) {
	assert.Equal(t, KW_WHILE, LookupIdent("while"))
	assert.Equal(t, KW_NULL, LookupIdent("null"))
	assert.Equal(t, IDENT, LookupIdent("While"))
	assert.Equal(t, IDENT, LookupIdent("println"))
}

func TestKeywords(t *testing.T) {
	kws := Keywords()
	assert.Len(t, kws, 10)
	for _, kw := range kws {
		assert.True(t, LookupIdent(kw).IsKeyword(), kw)
	}
}

func TestIsAssign(t *testing.T) {
	assert.True(t, ASSIGN.IsAssign())
	assert.True(t, STAR_ASSIGN.IsAssign())
	assert.False(t, EQ.IsAssign())
}
