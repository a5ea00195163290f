package literal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/polyexpr/internal/types"
)

const nanosPerDay = int64(24 * time.Hour)

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Date is a DATE literal stored as days since 1970-01-01.
type Date struct {
	Days int32
}

func (Date) literal()         {}
func (Date) Kind() Kind       { return KindDate }
func (Date) Type() types.Type { return types.DateType(false) }

func (d Date) String() string {
	return "DATE '" + formatDays(d.Days) + "'"
}

// Time is a TIME literal. HasTZ marks TIME WITH LOCAL TIME ZONE; no offset
// is stored.
type Time struct {
	NanosOfDay int64
	Precision  int
	HasTZ      bool
}

func (Time) literal()   {}
func (Time) Kind() Kind { return KindTime }

func (t Time) Type() types.Type {
	return types.TimeType(false, t.Precision, t.HasTZ)
}

func (t Time) String() string {
	return timeKeyword("TIME", t.HasTZ) + " '" + formatNanos(t.NanosOfDay, t.Precision) + "'"
}

// Timestamp is a TIMESTAMP literal.
type Timestamp struct {
	Days       int32
	NanosOfDay int64
	Precision  int
	HasTZ      bool
}

func (Timestamp) literal()   {}
func (Timestamp) Kind() Kind { return KindTimestamp }

func (t Timestamp) Type() types.Type {
	return types.TimestampType(false, t.Precision, t.HasTZ)
}

func (t Timestamp) String() string {
	return timeKeyword("TIMESTAMP", t.HasTZ) + " '" + formatDays(t.Days) + " " + formatNanos(t.NanosOfDay, t.Precision) + "'"
}

func timeKeyword(kw string, tz bool) string {
	if tz {
		return kw + " WITH LOCAL TIME ZONE"
	}
	return kw
}

func formatDays(days int32) string {
	return epoch.AddDate(0, 0, int(days)).Format("2006-01-02")
}

func formatNanos(nanos int64, precision int) string {
	h := nanos / int64(time.Hour)
	m := nanos / int64(time.Minute) % 60
	s := nanos / int64(time.Second) % 60
	out := fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	if precision > 0 {
		frac := fmt.Sprintf("%09d", nanos%int64(time.Second))
		out += "." + frac[:precision]
	}
	return out
}

var (
	datePattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	timePattern = regexp.MustCompile(`^(\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.(\d{1,9}))?$`)
)

// ParseDate parses 'YYYY-MM-DD'.
func ParseDate(s string) (Date, error) {
	days, err := parseDays(strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Days: days}, nil
}

// ParseTime parses 'HH:MM:SS[.fff]'. Precision is the number of fractional
// digits written.
func ParseTime(s string, hasTZ bool) (Time, error) {
	nanos, prec, err := parseNanos(strings.TrimSpace(s))
	if err != nil {
		return Time{}, err
	}
	return Time{NanosOfDay: nanos, Precision: prec, HasTZ: hasTZ}, nil
}

// ParseTimestamp parses 'YYYY-MM-DD HH:MM:SS[.fff]'.
func ParseTimestamp(s string, hasTZ bool) (Timestamp, error) {
	datePart, timePart, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return Timestamp{}, fmt.Errorf("illegal TIMESTAMP literal '%s'", s)
	}
	days, err := parseDays(datePart)
	if err != nil {
		return Timestamp{}, err
	}
	nanos, prec, err := parseNanos(strings.TrimSpace(timePart))
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Days: days, NanosOfDay: nanos, Precision: prec, HasTZ: hasTZ}, nil
}

func parseDays(s string) (int32, error) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("illegal DATE literal '%s'", s)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return 0, fmt.Errorf("illegal DATE literal '%s': out of range", s)
	}
	return int32(t.Sub(epoch).Hours() / 24), nil
}

func parseNanos(s string) (int64, int, error) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("illegal TIME literal '%s'", s)
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if h > 23 || mi > 59 || sec > 59 {
		return 0, 0, fmt.Errorf("illegal TIME literal '%s': out of range", s)
	}
	nanos := int64(h)*int64(time.Hour) + int64(mi)*int64(time.Minute) + int64(sec)*int64(time.Second)
	prec := len(m[4])
	if prec > 0 {
		frac, _ := strconv.ParseInt((m[4] + "000000000")[:9], 10, 64)
		nanos += frac
	}
	return nanos % nanosPerDay, prec, nil
}

// Interval is an INTERVAL literal. Raw is the un-interpreted value text
// between the quotes; Sign is +1 or -1 and comes from a sign written
// before the quoted string.
type Interval struct {
	Qualifier types.IntervalQualifier
	Sign      int
	Raw       string
}

// NewInterval validates raw against the qualifier.
func NewInterval(sign int, raw string, q types.IntervalQualifier) (Interval, error) {
	if sign != 1 && sign != -1 {
		return Interval{}, fmt.Errorf("interval sign must be +1 or -1, got %d", sign)
	}
	if err := q.Validate(); err != nil {
		return Interval{}, err
	}
	if err := q.ValidateValue(raw); err != nil {
		return Interval{}, err
	}
	return Interval{Qualifier: q, Sign: sign, Raw: raw}, nil
}

func (Interval) literal()   {}
func (Interval) Kind() Kind { return KindInterval }

func (i Interval) Type() types.Type {
	return types.IntervalType(false, i.Qualifier)
}

// Signum returns 0 when the raw text has no non-zero digit, otherwise the
// stored sign. INTERVAL -'0:00:00' HOUR TO SECOND therefore has signum 0.
func (i Interval) Signum() int {
	for _, r := range i.Raw {
		if r >= '1' && r <= '9' {
			return i.Sign
		}
	}
	return 0
}

func (i Interval) String() string {
	sign := ""
	if i.Sign < 0 {
		sign = "-"
	}
	return "INTERVAL " + sign + QuoteString(i.Raw) + " " + i.Qualifier.String()
}
