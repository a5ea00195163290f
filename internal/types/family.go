package types

import "fmt"

// Family groups type names that are mutually assignable.
type Family int

const (
	FamilyNone Family = iota
	FamilyNull
	FamilyBoolean
	FamilyNumeric
	FamilyCharacter
	FamilyBinary
	FamilyDate
	FamilyTime
	FamilyTimestamp
	FamilyIntervalYearMonth
	FamilyIntervalDayTime
	FamilySymbol
	FamilyAny
	FamilyColumnList
	FamilyRow

	// FamilyDatetime is a checker-only family matching DATE, TIME and
	// TIMESTAMP; no type name maps to it directly.
	FamilyDatetime
)

var familyNames = map[Family]string{
	FamilyNone:              "NONE",
	FamilyNull:              "NULL",
	FamilyBoolean:           "BOOLEAN",
	FamilyNumeric:           "NUMERIC",
	FamilyCharacter:         "CHARACTER",
	FamilyBinary:            "BINARY",
	FamilyDate:              "DATE",
	FamilyTime:              "TIME",
	FamilyTimestamp:         "TIMESTAMP",
	FamilyIntervalYearMonth: "INTERVAL_YEAR_MONTH",
	FamilyIntervalDayTime:   "INTERVAL_DAY_TIME",
	FamilySymbol:            "SYMBOL",
	FamilyAny:               "ANY",
	FamilyColumnList:        "COLUMN_LIST",
	FamilyRow:               "ROW",
	FamilyDatetime:          "DATETIME",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// FamilyOf returns the family of a type name.
func FamilyOf(n TypeName) Family {
	switch n {
	case Null:
		return FamilyNull
	case Boolean:
		return FamilyBoolean
	case TinyInt, SmallInt, Integer, BigInt, Decimal, Real, Float, Double:
		return FamilyNumeric
	case Char, Varchar:
		return FamilyCharacter
	case Binary, Varbinary:
		return FamilyBinary
	case Date:
		return FamilyDate
	case Time:
		return FamilyTime
	case Timestamp:
		return FamilyTimestamp
	case IntervalYearMonth:
		return FamilyIntervalYearMonth
	case IntervalDayTime:
		return FamilyIntervalDayTime
	case Symbol:
		return FamilySymbol
	case Any:
		return FamilyAny
	case ColumnList:
		return FamilyColumnList
	case Row:
		return FamilyRow
	}
	return FamilyNone
}

// Contains reports whether a type belongs to the family. NULL, UNKNOWN and ANY
// belong to every family.
func (f Family) Contains(t Type) bool {
	if t.Name == Null || t.Name == Unknown || t.Name == Any || f == FamilyAny {
		return true
	}
	if f == FamilyDatetime {
		switch t.Name {
		case Date, Time, Timestamp:
			return true
		}
		return false
	}
	return t.Family() == f
}

// precedence lists, ordered from the type itself to progressively wider
// types an argument of that type may be assigned to.
var precedenceLists = map[TypeName][]TypeName{
	TinyInt:   {TinyInt, SmallInt, Integer, BigInt, Decimal, Real, Float, Double},
	SmallInt:  {SmallInt, Integer, BigInt, Decimal, Real, Float, Double},
	Integer:   {Integer, BigInt, Decimal, Real, Float, Double},
	BigInt:    {BigInt, Decimal, Real, Float, Double},
	Decimal:   {Decimal, Real, Float, Double},
	Real:      {Real, Float, Double},
	Float:     {Float, Real, Double},
	Double:    {Double},
	Char:      {Char, Varchar},
	Varchar:   {Varchar, Char},
	Binary:    {Binary, Varbinary},
	Varbinary: {Varbinary, Binary},
	Date:      {Date, Timestamp},
	Timestamp: {Timestamp},
}

// PrecedenceList ranks the types an argument may be matched against.
type PrecedenceList struct {
	names []TypeName
}

// PrecedenceListOf returns the precedence list for a type.
func PrecedenceListOf(t Type) PrecedenceList {
	if l, ok := precedenceLists[t.Name]; ok {
		return PrecedenceList{names: l}
	}
	return PrecedenceList{names: []TypeName{t.Name}}
}

// Position returns the rank of a type in the list, or len(list) when the
// type is not in the list.
func (p PrecedenceList) Position(t Type) int {
	for i, n := range p.names {
		if n == t.Name {
			return i
		}
	}
	return len(p.names)
}

// Contains reports whether a type is in the list.
func (p PrecedenceList) Contains(t Type) bool {
	return p.Position(t) < len(p.names)
}

// Compare returns a positive value if t1 ranks before (is a closer match
// than) t2, zero if equal, negative otherwise.
func (p PrecedenceList) Compare(t1, t2 Type) int {
	return p.Position(t2) - p.Position(t1)
}

// CanAssignFrom reports whether a value of type from may be passed where
// type to is expected without an explicit cast: same family, or from is
// NULL/UNKNOWN, or either side is ANY.
func CanAssignFrom(to, from Type) bool {
	switch {
	case from.Name == Null || from.Name == Unknown:
		return true
	case to.Name == Any || from.Name == Any:
		return true
	case to.Family() == from.Family():
		return true
	case to.Name == Timestamp && from.Name == Date:
		return true
	}
	return false
}

// CanCastFrom reports whether an explicit CAST from one type to another is
// legal.
func CanCastFrom(to, from Type) bool {
	if CanAssignFrom(to, from) {
		return true
	}
	tf, ff := to.Family(), from.Family()
	if tf == FamilyCharacter || ff == FamilyCharacter {
		// Everything except binary and row types converts to and from text.
		other := ff
		if ff == FamilyCharacter {
			other = tf
		}
		switch other {
		case FamilyBinary, FamilyRow, FamilyColumnList, FamilySymbol:
			return false
		}
		return true
	}
	switch {
	case tf == FamilyNumeric && from.IsInterval() && from.Interval.IsSingleField():
		return true
	case to.IsInterval() && to.Interval.IsSingleField() && ff == FamilyNumeric:
		return true
	case tf == FamilyDate && ff == FamilyTimestamp:
		return true
	case tf == FamilyTime && ff == FamilyTimestamp:
		return true
	case tf == FamilyTimestamp && ff == FamilyTime:
		return true
	case tf == FamilyNumeric && ff == FamilyBoolean, tf == FamilyBoolean && ff == FamilyNumeric:
		return true
	}
	return false
}

// Comparable reports whether two types can be compared with =, < etc.
func Comparable(a, b Type) bool {
	if a.Name == Null || b.Name == Null || a.Name == Unknown || b.Name == Unknown {
		return true
	}
	if a.Name == Any || b.Name == Any {
		return true
	}
	fa, fb := a.Family(), b.Family()
	if fa == fb {
		return fa != FamilySymbol && fa != FamilyColumnList
	}
	return (fa == FamilyDate && fb == FamilyTimestamp) || (fa == FamilyTimestamp && fb == FamilyDate)
}
