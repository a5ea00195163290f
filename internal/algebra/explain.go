package algebra

import (
	"fmt"
	"strings"
)

// ExplainFormat is the output format of EXPLAIN.
type ExplainFormat int

const (
	ExplainText ExplainFormat = iota
	ExplainXML
	ExplainJSON
)

var explainFormatNames = [...]string{"TEXT", "XML", "JSON"}

func (f ExplainFormat) String() string {
	if f < 0 || int(f) >= len(explainFormatNames) {
		return fmt.Sprintf("ExplainFormat(%d)", int(f))
	}
	return explainFormatNames[f]
}

// ParseExplainFormat parses a format name in any case.
func ParseExplainFormat(s string) (ExplainFormat, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range explainFormatNames {
		if key == name {
			return ExplainFormat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown explain format %q (want text, xml or json)", s)
}

func (f ExplainFormat) IsText() bool { return f == ExplainText }
func (f ExplainFormat) IsXML() bool  { return f == ExplainXML }
func (f ExplainFormat) IsJSON() bool { return f == ExplainJSON }
