package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"notjs/internal/token"
	"strconv"

	"github.com/goccy/go-yaml"
)

// ---- output helpers ----

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w, yaml.Indent(2), yaml.IndentSequence(true))
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("YAML encoding failed: %w", err)
	}
	return nil
}

// writeTokens prints one token per line: kind, lexeme, position.
func writeTokens(w io.Writer, tokens []token.Token) error {
	for _, tok := range tokens {
		lexeme := tok.Lexeme
		switch tok.Kind {
		case token.STRING:
			lexeme = strconv.Quote(lexeme)
		case token.EOF:
			lexeme = "<eof>"
		}
		if _, err := fmt.Fprintf(w, "%-12s %-20s %s\n", tok.Kind, lexeme, tok.Span.Start); err != nil {
			return err
		}
	}
	return nil
}
