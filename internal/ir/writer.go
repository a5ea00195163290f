package ir

import "strings"

// Writer accumulates unparsed tokens and decides the spacing between them.
type Writer struct {
	sb        strings.Builder
	needSpace bool
	glue      bool
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) word(s string) {
	switch {
	case w.needSpace && !w.glue:
		w.sb.WriteByte(' ')
	case w.glue && strings.HasSuffix(w.sb.String(), "-") && strings.HasPrefix(s, "-"):
		// "- -x", never "--x"
		w.sb.WriteByte(' ')
	}
	w.sb.WriteString(s)
	w.needSpace = true
	w.glue = false
}

// Keyword writes a keyword such as CASE or BETWEEN.
func (w *Writer) Keyword(s string) { w.word(s) }

// Literal writes literal text.
func (w *Writer) Literal(s string) { w.word(s) }

// Identifier writes an identifier.
func (w *Writer) Identifier(s string) { w.word(s) }

// Symbol writes an infix or postfix operator token.
func (w *Writer) Symbol(s string) { w.word(s) }

// PrefixSymbol writes an operator glued to the next token, e.g. "-" in -x.
func (w *Writer) PrefixSymbol(s string) {
	w.word(s)
	w.glue = true
}

// FunctionName writes a name whose argument list follows without a space.
func (w *Writer) FunctionName(s string) {
	w.word(s)
	w.glue = true
}

// Open writes "(".
func (w *Writer) Open() {
	if w.needSpace && !w.glue {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteByte('(')
	w.needSpace = false
	w.glue = false
}

// Close writes ")".
func (w *Writer) Close() {
	w.sb.WriteByte(')')
	w.needSpace = true
	w.glue = false
}

// Comma writes a list separator.
func (w *Writer) Comma() {
	w.sb.WriteByte(',')
	w.needSpace = true
	w.glue = false
}

// List writes nodes separated by commas, each in a zero context.
func (w *Writer) List(nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			w.Comma()
		}
		Unparse(w, n, 0, 0)
	}
}

func (w *Writer) String() string {
	return w.sb.String()
}
