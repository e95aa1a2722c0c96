package diag

import (
	"notjs/internal/span"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles controls how Render decorates a diagnostic. Source text is never
// passed through a style so that tab alignment of the caret is preserved.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Code    lipgloss.Style
	Gutter  lipgloss.Style
	Caret   lipgloss.Style
	Hint    lipgloss.Style
}

// DefaultStyles returns the colored styles used on terminals.
func DefaultStyles() Styles {
	return Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		Code:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Gutter:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Caret:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

// PlainStyles returns styles that leave text untouched.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{plain, plain, plain, plain, plain, plain}
}

// Render formats d with the offending source line and a caret under the
// start column:
//
//	error[E2001]: expected ')', got '}'
//	  --> main.nj:3:9
//	   |
//	 3 | print (1
//	   |         ^
func (d Diagnostic) Render(filename, src string, st Styles) string {
	var b strings.Builder

	head := st.Error
	if d.Severity == Warning {
		head = st.Warning
	}
	b.WriteString(head.Render(d.Severity.String()))
	b.WriteString(st.Code.Render("[" + d.Code + "]"))
	b.WriteString(": ")
	b.WriteString(d.Message)
	b.WriteByte('\n')

	pos := d.Span.Start
	num := strconv.Itoa(pos.Line)
	pad := strings.Repeat(" ", len(num))

	b.WriteString(pad)
	b.WriteString(st.Gutter.Render("--> "))
	if filename != "" {
		b.WriteString(filename)
		b.WriteByte(':')
	}
	b.WriteString(pos.String())
	b.WriteByte('\n')

	if line, ok := sourceLine(src, pos.Line); ok {
		bar := st.Gutter.Render("|")
		b.WriteString(pad + " " + bar + "\n")
		b.WriteString(st.Gutter.Render(num) + " " + bar + " " + line + "\n")
		b.WriteString(pad + " " + bar + " " + caretPad(line, pos.Column))
		width := caretWidth(d.Span, line, pos.Column)
		b.WriteString(st.Caret.Render(strings.Repeat("^", width)))
		b.WriteByte('\n')
	}

	if d.Hint != "" {
		b.WriteString(pad + " " + st.Hint.Render("= hint: "+d.Hint) + "\n")
	}

	return b.String()
}

// Render formats every diagnostic in l.
func (l List) Render(filename, src string, st Styles) string {
	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.Render(filename, src, st))
	}
	return b.String()
}

func sourceLine(src string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}

// caretPad keeps tabs from the line prefix so the caret lines up.
func caretPad(line string, col int) string {
	var b strings.Builder
	n := 1
	for _, r := range line {
		if n >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		n++
	}
	for ; n < col; n++ {
		b.WriteByte(' ')
	}
	return b.String()
}

func caretWidth(s span.Span, line string, col int) int {
	w := s.Len()
	rest := len([]rune(line)) - col + 1
	if w > rest {
		w = rest
	}
	if w < 1 {
		w = 1
	}
	return w
}
