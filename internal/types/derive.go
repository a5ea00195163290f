package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRank orders numeric type names by width.
var numericRank = map[TypeName]int{
	TinyInt:  1,
	SmallInt: 2,
	Integer:  3,
	BigInt:   4,
	Decimal:  5,
	Real:     6,
	Float:    7,
	Double:   8,
}

// LeastRestrictive returns the narrowest type every input can be assigned
// to. NULL inputs only affect nullability. ok is false when the inputs
// belong to incompatible families.
func LeastRestrictive(ts []Type) (Type, bool) {
	var result Type
	have := false
	nullable := false
	for _, t := range ts {
		nullable = nullable || t.Nullable
		if t.Name == Null || t.Name == Unknown {
			continue
		}
		if !have {
			result = t
			have = true
			continue
		}
		merged, ok := leastRestrictive2(result, t)
		if !ok {
			return Type{}, false
		}
		result = merged
	}
	if !have {
		if len(ts) == 0 {
			return Type{}, false
		}
		return NullType(), true
	}
	return result.WithNullability(nullable), true
}

func leastRestrictive2(a, b Type) (Type, bool) {
	if a.Name == Any {
		return a, true
	}
	if b.Name == Any {
		return b, true
	}
	fa, fb := a.Family(), b.Family()
	switch {
	case fa == FamilyNumeric && fb == FamilyNumeric:
		return leastRestrictiveNumeric(a, b), true
	case fa == FamilyCharacter && fb == FamilyCharacter:
		name := Char
		if a.Name == Varchar || b.Name == Varchar || a.Precision != b.Precision {
			name = Varchar
		}
		t := WithPrecision(name, max(a.Precision, b.Precision), NotSpecified)
		t.Charset, t.Collation = a.Charset, a.Collation
		return t, true
	case fa == FamilyBinary && fb == FamilyBinary:
		name := Binary
		if a.Name == Varbinary || b.Name == Varbinary || a.Precision != b.Precision {
			name = Varbinary
		}
		return WithPrecision(name, max(a.Precision, b.Precision), NotSpecified), true
	case fa == fb && (fa == FamilyTime || fa == FamilyTimestamp):
		t := a
		t.Precision = max(a.Precision, b.Precision)
		t.WithTZ = a.WithTZ && b.WithTZ
		return t, true
	case (fa == FamilyDate && fb == FamilyTimestamp) || (fa == FamilyTimestamp && fb == FamilyDate):
		if fa == FamilyTimestamp {
			return a, true
		}
		return b, true
	case fa == fb && (fa == FamilyIntervalDayTime || fa == FamilyIntervalYearMonth):
		q := a.Interval
		if b.Interval.Start < q.Start {
			q.Start = b.Interval.Start
		}
		if b.Interval.EndUnit() > q.EndUnit() {
			q.End = b.Interval.EndUnit()
		}
		if q.End == q.Start {
			q.End = UnitNone
		}
		return IntervalType(false, q), true
	case fa == fb:
		return a, true
	}
	return Type{}, false
}

func leastRestrictiveNumeric(a, b Type) Type {
	if a.IsApproxNumeric() || b.IsApproxNumeric() {
		if numericRank[a.Name] >= numericRank[b.Name] {
			return New(a.Name)
		}
		return New(b.Name)
	}
	if a.Name != Decimal && b.Name != Decimal {
		if numericRank[a.Name] >= numericRank[b.Name] {
			return New(a.Name)
		}
		return New(b.Name)
	}
	scale := max(a.NumericScale(), b.NumericScale())
	intDigits := max(a.NumericPrecision()-a.NumericScale(), b.NumericPrecision()-b.NumericScale())
	prec := min(intDigits+scale, MaxNumericPrecision)
	return WithPrecision(Decimal, prec, min(scale, prec))
}

// DecimalSum derives the type of a + b or a - b for exact numerics.
func DecimalSum(a, b Type) Type {
	nullable := a.Nullable || b.Nullable
	if a.IsApproxNumeric() || b.IsApproxNumeric() || (a.Name != Decimal && b.Name != Decimal) {
		return leastRestrictiveNumeric(a, b).WithNullability(nullable)
	}
	s1, s2 := a.NumericScale(), b.NumericScale()
	p1, p2 := a.NumericPrecision(), b.NumericPrecision()
	scale := max(s1, s2)
	prec := min(max(p1-s1, p2-s2)+scale+1, MaxNumericPrecision)
	return DecimalType(nullable, prec, min(scale, prec))
}

// DecimalProduct derives the type of a * b for exact numerics.
func DecimalProduct(a, b Type) Type {
	nullable := a.Nullable || b.Nullable
	if a.IsApproxNumeric() || b.IsApproxNumeric() || (a.Name != Decimal && b.Name != Decimal) {
		return leastRestrictiveNumeric(a, b).WithNullability(nullable)
	}
	scale := min(a.NumericScale()+b.NumericScale(), MaxNumericScale)
	prec := min(a.NumericPrecision()+b.NumericPrecision(), MaxNumericPrecision)
	return DecimalType(nullable, prec, min(scale, prec))
}

// DecimalQuotient derives the type of a / b for exact numerics.
func DecimalQuotient(a, b Type) Type {
	nullable := a.Nullable || b.Nullable
	if a.IsApproxNumeric() || b.IsApproxNumeric() || (a.Name != Decimal && b.Name != Decimal) {
		return leastRestrictiveNumeric(a, b).WithNullability(nullable)
	}
	p1, s1 := a.NumericPrecision(), a.NumericScale()
	p2, s2 := b.NumericPrecision(), b.NumericScale()
	intDigits := p1 - s1 + s2
	scale := max(6, s1+p2+1)
	prec := intDigits + scale
	if prec > MaxNumericPrecision {
		prec = MaxNumericPrecision
		scale = max(MaxNumericPrecision-intDigits, min(scale, 6))
		scale = min(scale, prec)
	}
	return DecimalType(nullable, prec, max(scale, 0))
}

// SumType derives the result type of SUM over a column of type t.
func SumType(t Type) Type {
	switch t.Name {
	case TinyInt, SmallInt, Integer:
		return IntegerType(t.Nullable)
	case BigInt:
		return BigIntType(t.Nullable)
	case Decimal:
		return DecimalType(t.Nullable, MaxNumericPrecision, t.NumericScale())
	}
	return t
}

var typeSpec = regexp.MustCompile(`^([A-Za-z_ ]+?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*(WITH LOCAL TIME ZONE)?$`)

var typeByName = map[string]TypeName{
	"BOOLEAN":           Boolean,
	"TINYINT":           TinyInt,
	"SMALLINT":          SmallInt,
	"INTEGER":           Integer,
	"INT":               Integer,
	"BIGINT":            BigInt,
	"DECIMAL":           Decimal,
	"NUMERIC":           Decimal,
	"REAL":              Real,
	"FLOAT":             Float,
	"DOUBLE":            Double,
	"DOUBLE PRECISION":  Double,
	"CHAR":              Char,
	"CHARACTER":         Char,
	"VARCHAR":           Varchar,
	"CHARACTER VARYING": Varchar,
	"BINARY":            Binary,
	"VARBINARY":         Varbinary,
	"DATE":              Date,
	"TIME":              Time,
	"TIMESTAMP":         Timestamp,
	"ANY":               Any,
	"NULL":              Null,
	"SYMBOL":            Symbol,
	"COLUMN_LIST":       ColumnList,
	"UNKNOWN":           Unknown,
}

// Parse parses a type specification such as "DECIMAL(10, 2)",
// "VARCHAR(20)", "TIME(3) WITH LOCAL TIME ZONE" or "INTERVAL DAY TO SECOND".
// The result is nullable; append NOT NULL to request a non-nullable type.
func Parse(spec string) (Type, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(spec), " "))
	nullable := true
	if strings.HasSuffix(s, " NOT NULL") {
		nullable = false
		s = strings.TrimSuffix(s, " NOT NULL")
	}
	if strings.HasPrefix(s, "INTERVAL ") {
		q, err := ParseIntervalQualifier(strings.TrimPrefix(s, "INTERVAL "))
		if err != nil {
			return Type{}, err
		}
		return IntervalType(nullable, q), nil
	}
	m := typeSpec.FindStringSubmatch(s)
	if m == nil {
		return Type{}, fmt.Errorf("invalid type specification %q", spec)
	}
	name, ok := typeByName[strings.TrimSpace(m[1])]
	if !ok {
		return Type{}, fmt.Errorf("unknown type %q", strings.TrimSpace(m[1]))
	}
	t := New(name)
	if m[2] != "" {
		t.Precision, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		if name != Decimal {
			return Type{}, fmt.Errorf("type %s does not take a scale", name)
		}
		t.Scale, _ = strconv.Atoi(m[3])
	}
	if name == Decimal && t.Precision != NotSpecified && t.Scale == NotSpecified {
		t.Scale = 0
	}
	if m[4] != "" {
		if name != Time && name != Timestamp {
			return Type{}, fmt.Errorf("type %s cannot have a time zone", name)
		}
		t.WithTZ = true
	}
	if name == Decimal && t.Precision != NotSpecified {
		if t.Precision < 1 || t.Precision > MaxNumericPrecision || t.Scale > t.Precision {
			return Type{}, fmt.Errorf("invalid DECIMAL(%d, %d)", t.Precision, t.Scale)
		}
	}
	t.Nullable = nullable
	return t, nil
}

// MustParse is like Parse but panics on error. For use in static operator
// and test declarations only.
func MustParse(spec string) Type {
	t, err := Parse(spec)
	if err != nil {
		panic(fmt.Sprintf("types.MustParse(%q): %v", spec, err))
	}
	return t
}
