package repl

import (
	"notjs/internal/runtime"
	"slices"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// completer implements [readline.AutoCompleter] over the session's bound
// names. After a dot it offers the members of the value on its left.
type completer struct {
	s *session
}

// Do returns the suffixes that complete the word before pos, ranked by
// fuzzy score, and the length of that word.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	word, owner := wordAt(line[:pos])
	cands := rank(word, c.candidates(owner))

	out := make([][]rune, len(cands))
	for i, cand := range cands {
		out[i] = []rune(cand[len(word):])
	}
	return out, len([]rune(word))
}

// candidates lists what may follow owner and a dot, or the top-level
// vocabulary when owner is empty.
func (c *completer) candidates(owner string) []string {
	if owner == "" {
		return c.s.vocabulary()
	}
	env := c.s.interp.Env()
	v, ok := env.Lookup(env.Root(), owner)
	if !ok {
		return nil
	}
	switch v := v.(type) {
	case *runtime.Record:
		return v.Keys()
	case *runtime.Array:
		return []string{"length", "pop", "push"}
	case runtime.String:
		return []string{"length"}
	}
	return nil
}

// wordAt splits the identifier that ends text. owner is the identifier
// before a directly preceding dot, if any.
func wordAt(text []rune) (word, owner string) {
	start := len(text)
	for start > 0 && isIdent(text[start-1]) {
		start--
	}
	word = string(text[start:])

	if start > 0 && text[start-1] == '.' {
		end := start - 1
		begin := end
		for begin > 0 && isIdent(text[begin-1]) {
			begin--
		}
		owner = string(text[begin:end])
	}
	return word, owner
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// rank keeps the candidates that extend word, best fuzzy match first. The
// line editor can only append, so matches that do not start with word are
// left to :find.
func rank(word string, cands []string) []string {
	if word == "" {
		return slices.Sorted(slices.Values(cands))
	}
	var out []string
	for _, m := range fuzzy.Find(word, cands) {
		if strings.HasPrefix(m.Str, word) && m.Str != word {
			out = append(out, m.Str)
		}
	}
	return out
}
