package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeUnit is a field of an interval qualifier.
type TimeUnit int

const (
	UnitNone TimeUnit = iota
	UnitYear
	UnitMonth
	UnitDay
	UnitHour
	UnitMinute
	UnitSecond
)

var unitNames = [...]string{"", "YEAR", "MONTH", "DAY", "HOUR", "MINUTE", "SECOND"}

func (u TimeUnit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("TimeUnit(%d)", int(u))
}

// ParseTimeUnit maps a keyword to a TimeUnit.
func ParseTimeUnit(s string) (TimeUnit, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range unitNames {
		if i > 0 && n == up {
			return TimeUnit(i), true
		}
	}
	return UnitNone, false
}

// Default interval precisions.
const (
	DefaultIntervalStartPrecision      = 2
	DefaultIntervalFractionalPrecision = 6
	MaxIntervalStartPrecision          = 10
	MaxIntervalFractionalPrecision     = 9
)

// IntervalQualifier describes the unit range and precisions of an interval,
// e.g. DAY(3) TO SECOND(6). End is UnitNone for single-field intervals.
type IntervalQualifier struct {
	Start               TimeUnit
	End                 TimeUnit
	StartPrecision      int
	FractionalPrecision int
}

// NewIntervalQualifier builds a qualifier with default precisions.
func NewIntervalQualifier(start, end TimeUnit) IntervalQualifier {
	if end == start {
		end = UnitNone
	}
	return IntervalQualifier{
		Start:               start,
		End:                 end,
		StartPrecision:      NotSpecified,
		FractionalPrecision: NotSpecified,
	}
}

// IsYearMonth reports whether the qualifier is in the year-month class.
func (q IntervalQualifier) IsYearMonth() bool {
	return q.Start == UnitYear || q.Start == UnitMonth
}

// IsSingleField reports whether the qualifier names one unit.
func (q IntervalQualifier) IsSingleField() bool {
	return q.End == UnitNone
}

// EndUnit returns the last unit of the range.
func (q IntervalQualifier) EndUnit() TimeUnit {
	if q.End == UnitNone {
		return q.Start
	}
	return q.End
}

// EffectiveStartPrecision returns the leading-field precision.
func (q IntervalQualifier) EffectiveStartPrecision() int {
	if q.StartPrecision == NotSpecified {
		return DefaultIntervalStartPrecision
	}
	return q.StartPrecision
}

// EffectiveFractionalPrecision returns the fractional-second precision.
func (q IntervalQualifier) EffectiveFractionalPrecision() int {
	if q.FractionalPrecision == NotSpecified {
		return DefaultIntervalFractionalPrecision
	}
	return q.FractionalPrecision
}

// Validate checks the unit ordering and precision bounds.
func (q IntervalQualifier) Validate() error {
	if q.Start == UnitNone {
		return fmt.Errorf("interval qualifier has no start unit")
	}
	if q.End != UnitNone {
		if q.End <= q.Start {
			return fmt.Errorf("invalid interval qualifier %s TO %s", q.Start, q.End)
		}
		if q.IsYearMonth() != (q.End == UnitMonth) {
			return fmt.Errorf("interval qualifier %s TO %s mixes year-month and day-time fields", q.Start, q.End)
		}
	}
	if q.StartPrecision != NotSpecified && (q.StartPrecision < 1 || q.StartPrecision > MaxIntervalStartPrecision) {
		return fmt.Errorf("interval leading field precision %d out of range", q.StartPrecision)
	}
	if q.FractionalPrecision != NotSpecified {
		if q.EndUnit() != UnitSecond {
			return fmt.Errorf("fractional second precision requires SECOND")
		}
		if q.FractionalPrecision < 0 || q.FractionalPrecision > MaxIntervalFractionalPrecision {
			return fmt.Errorf("interval fractional second precision %d out of range", q.FractionalPrecision)
		}
	}
	return nil
}

// String renders the qualifier, omitting default precisions:
// "DAY", "DAY(3) TO SECOND(6)", "SECOND(2, 3)".
func (q IntervalQualifier) String() string {
	var sb strings.Builder
	sb.WriteString(q.Start.String())
	if q.End == UnitNone {
		switch {
		case q.Start == UnitSecond && q.FractionalPrecision != NotSpecified:
			fmt.Fprintf(&sb, "(%d, %d)", q.EffectiveStartPrecision(), q.FractionalPrecision)
		case q.StartPrecision != NotSpecified:
			fmt.Fprintf(&sb, "(%d)", q.StartPrecision)
		}
		return sb.String()
	}
	if q.StartPrecision != NotSpecified {
		fmt.Fprintf(&sb, "(%d)", q.StartPrecision)
	}
	sb.WriteString(" TO ")
	sb.WriteString(q.End.String())
	if q.End == UnitSecond && q.FractionalPrecision != NotSpecified {
		fmt.Fprintf(&sb, "(%d)", q.FractionalPrecision)
	}
	return sb.String()
}

var qualifierField = regexp.MustCompile(`^\s*([A-Za-z]+)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*$`)

// ParseIntervalQualifier parses text such as "DAY(2) TO SECOND(3)".
func ParseIntervalQualifier(text string) (IntervalQualifier, error) {
	parts := splitTo(text)
	if len(parts) == 0 || len(parts) > 2 {
		return IntervalQualifier{}, fmt.Errorf("invalid interval qualifier %q", text)
	}
	start, p1, f1, err := parseQualifierField(parts[0])
	if err != nil {
		return IntervalQualifier{}, err
	}
	q := NewIntervalQualifier(start, UnitNone)
	q.StartPrecision = p1
	if len(parts) == 1 {
		if f1 != NotSpecified {
			if start != UnitSecond {
				return IntervalQualifier{}, fmt.Errorf("invalid interval qualifier %q", text)
			}
			q.FractionalPrecision = f1
		}
		return q, q.Validate()
	}
	if f1 != NotSpecified {
		return IntervalQualifier{}, fmt.Errorf("invalid interval qualifier %q", text)
	}
	end, p2, f2, err := parseQualifierField(parts[1])
	if err != nil {
		return IntervalQualifier{}, err
	}
	if f2 != NotSpecified {
		return IntervalQualifier{}, fmt.Errorf("invalid interval qualifier %q", text)
	}
	q.End = end
	q.FractionalPrecision = p2
	return q, q.Validate()
}

func splitTo(text string) []string {
	fields := strings.Fields(text)
	var parts []string
	var cur []string
	for _, f := range fields {
		if strings.EqualFold(f, "TO") {
			parts = append(parts, strings.Join(cur, " "))
			cur = nil
			continue
		}
		cur = append(cur, f)
	}
	if len(cur) > 0 {
		parts = append(parts, strings.Join(cur, " "))
	}
	return parts
}

func parseQualifierField(s string) (TimeUnit, int, int, error) {
	m := qualifierField.FindStringSubmatch(s)
	if m == nil {
		return UnitNone, 0, 0, fmt.Errorf("invalid interval field %q", s)
	}
	unit, ok := ParseTimeUnit(m[1])
	if !ok {
		return UnitNone, 0, 0, fmt.Errorf("unknown time unit %q", m[1])
	}
	prec, frac := NotSpecified, NotSpecified
	if m[2] != "" {
		prec, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		frac, _ = strconv.Atoi(m[3])
	}
	return unit, prec, frac, nil
}

// intervalPatterns maps (start, end) to the accepted value shape.
var intervalPatterns = map[[2]TimeUnit]*regexp.Regexp{
	{UnitYear, UnitNone}:     regexp.MustCompile(`^(\d+)$`),
	{UnitMonth, UnitNone}:    regexp.MustCompile(`^(\d+)$`),
	{UnitYear, UnitMonth}:    regexp.MustCompile(`^(\d+)-(\d+)$`),
	{UnitDay, UnitNone}:      regexp.MustCompile(`^(\d+)$`),
	{UnitDay, UnitHour}:      regexp.MustCompile(`^(\d+) (\d+)$`),
	{UnitDay, UnitMinute}:    regexp.MustCompile(`^(\d+) (\d+):(\d+)$`),
	{UnitDay, UnitSecond}:    regexp.MustCompile(`^(\d+) (\d+):(\d+):(\d+)(?:\.(\d+))?$`),
	{UnitHour, UnitNone}:     regexp.MustCompile(`^(\d+)$`),
	{UnitHour, UnitMinute}:   regexp.MustCompile(`^(\d+):(\d+)$`),
	{UnitHour, UnitSecond}:   regexp.MustCompile(`^(\d+):(\d+):(\d+)(?:\.(\d+))?$`),
	{UnitMinute, UnitNone}:   regexp.MustCompile(`^(\d+)$`),
	{UnitMinute, UnitSecond}: regexp.MustCompile(`^(\d+):(\d+)(?:\.(\d+))?$`),
	{UnitSecond, UnitNone}:   regexp.MustCompile(`^(\d+)(?:\.(\d+))?$`),
}

// secondaryLimits bounds the non-leading fields.
var secondaryLimits = map[TimeUnit]int{
	UnitMonth:  11,
	UnitHour:   23,
	UnitMinute: 59,
	UnitSecond: 59,
}

// ValidateValue checks that raw (without quotes, optionally signed) is a
// well-formed value for the qualifier.
func (q IntervalQualifier) ValidateValue(raw string) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	}
	re, ok := intervalPatterns[[2]TimeUnit{q.Start, q.End}]
	if !ok {
		return fmt.Errorf("unsupported interval qualifier %s", q)
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("illegal interval literal format '%s' for INTERVAL %s", raw, q)
	}
	if len(m[1]) > q.EffectiveStartPrecision() {
		return fmt.Errorf("interval field value %s exceeds precision of %s(%d) field", m[1], q.Start, q.EffectiveStartPrecision())
	}
	unit := q.Start
	for i := 2; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		isFraction := q.EndUnit() == UnitSecond && i == len(m)-1 && strings.Contains(s, ".")
		if isFraction {
			if len(m[i]) > q.EffectiveFractionalPrecision() {
				return fmt.Errorf("interval fractional second value %s exceeds precision %d", m[i], q.EffectiveFractionalPrecision())
			}
			continue
		}
		unit = nextUnit(unit)
		v, _ := strconv.Atoi(m[i])
		if limit, ok := secondaryLimits[unit]; ok && v > limit {
			return fmt.Errorf("interval field value %d exceeds %s range", v, unit)
		}
	}
	return nil
}

func nextUnit(u TimeUnit) TimeUnit {
	if u == UnitYear {
		return UnitMonth
	}
	if u >= UnitDay && u < UnitSecond {
		return u + 1
	}
	return u
}
