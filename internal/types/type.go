package types

import (
	"fmt"
	"strings"
)

// TypeName identifies a logical SQL type.
type TypeName int

const (
	// Unknown is the type of an expression whose type has not been inferred
	// yet, e.g. a dynamic parameter before operand-type inference.
	Unknown TypeName = iota
	Null
	Boolean
	TinyInt
	SmallInt
	Integer
	BigInt
	Decimal
	Real
	Float
	Double
	Char
	Varchar
	Binary
	Varbinary
	Date
	Time
	Timestamp
	IntervalYearMonth
	IntervalDayTime
	Symbol
	Any
	ColumnList
	Row
)

var typeNames = map[TypeName]string{
	Unknown:           "UNKNOWN",
	Null:              "NULL",
	Boolean:           "BOOLEAN",
	TinyInt:           "TINYINT",
	SmallInt:          "SMALLINT",
	Integer:           "INTEGER",
	BigInt:            "BIGINT",
	Decimal:           "DECIMAL",
	Real:              "REAL",
	Float:             "FLOAT",
	Double:            "DOUBLE",
	Char:              "CHAR",
	Varchar:           "VARCHAR",
	Binary:            "BINARY",
	Varbinary:         "VARBINARY",
	Date:              "DATE",
	Time:              "TIME",
	Timestamp:         "TIMESTAMP",
	IntervalYearMonth: "INTERVAL_YEAR_MONTH",
	IntervalDayTime:   "INTERVAL_DAY_TIME",
	Symbol:            "SYMBOL",
	Any:               "ANY",
	ColumnList:        "COLUMN_LIST",
	Row:               "ROW",
}

// String returns the SQL spelling of the type name.
func (n TypeName) String() string {
	if s, ok := typeNames[n]; ok {
		return s
	}
	return fmt.Sprintf("TypeName(%d)", int(n))
}

// NotSpecified marks an absent precision or scale.
const NotSpecified = -1

// Default and maximum precisions.
const (
	MaxNumericPrecision     = 19
	MaxNumericScale         = 19
	DefaultCharLength       = 1
	DefaultVarcharLength    = 2000
	DefaultTimePrecision    = 0
	MaxTimePrecision        = 9
	DefaultTimestampPrec    = 0
	IntegerPrecision        = 10
	BigIntPrecision         = 19
	SmallIntPrecision       = 5
	TinyIntPrecision        = 3
	DefaultDecimalScale     = 0
	DefaultDecimalPrecision = MaxNumericPrecision
)

// Type is a fully described logical type.
type Type struct {
	Name TypeName

	// Precision is the length for character/binary types, the number of
	// digits for DECIMAL and the fractional-second digits for TIME/TIMESTAMP.
	Precision int
	Scale     int
	Nullable  bool

	// Charset and Collation apply to character types only.
	Charset   string
	Collation string

	// WithTZ marks TIME/TIMESTAMP WITH LOCAL TIME ZONE. It is a type-level
	// fact; literal values never carry an offset.
	WithTZ bool

	// Interval is set for interval types.
	Interval IntervalQualifier
}

// New returns a type with no precision or scale.
func New(name TypeName) Type {
	return Type{Name: name, Precision: NotSpecified, Scale: NotSpecified}
}

// WithPrecision returns a type with precision and scale.
func WithPrecision(name TypeName, precision, scale int) Type {
	return Type{Name: name, Precision: precision, Scale: scale}
}

// NullType is the type of the NULL literal.
func NullType() Type {
	t := New(Null)
	t.Nullable = true
	return t
}

// UnknownType is the placeholder type for not-yet-inferred expressions.
func UnknownType() Type {
	t := New(Unknown)
	t.Nullable = true
	return t
}

// BooleanType returns BOOLEAN with the given nullability.
func BooleanType(nullable bool) Type {
	t := New(Boolean)
	t.Nullable = nullable
	return t
}

// IntegerType returns INTEGER.
func IntegerType(nullable bool) Type {
	t := New(Integer)
	t.Nullable = nullable
	return t
}

// BigIntType returns BIGINT.
func BigIntType(nullable bool) Type {
	t := New(BigInt)
	t.Nullable = nullable
	return t
}

// DoubleType returns DOUBLE.
func DoubleType(nullable bool) Type {
	t := New(Double)
	t.Nullable = nullable
	return t
}

// DecimalType returns DECIMAL(precision, scale).
func DecimalType(nullable bool, precision, scale int) Type {
	t := WithPrecision(Decimal, precision, scale)
	t.Nullable = nullable
	return t
}

// CharType returns CHAR(length) with a charset and collation.
func CharType(nullable bool, length int, charset, collation string) Type {
	t := WithPrecision(Char, length, NotSpecified)
	t.Nullable = nullable
	t.Charset = charset
	t.Collation = collation
	return t
}

// VarcharType returns VARCHAR(length).
func VarcharType(nullable bool, length int) Type {
	t := WithPrecision(Varchar, length, NotSpecified)
	t.Nullable = nullable
	return t
}

// BinaryType returns BINARY(length).
func BinaryType(nullable bool, length int) Type {
	t := WithPrecision(Binary, length, NotSpecified)
	t.Nullable = nullable
	return t
}

// DateType returns DATE.
func DateType(nullable bool) Type {
	t := New(Date)
	t.Nullable = nullable
	return t
}

// TimeType returns TIME(precision), optionally WITH LOCAL TIME ZONE.
func TimeType(nullable bool, precision int, withTZ bool) Type {
	t := WithPrecision(Time, precision, NotSpecified)
	t.Nullable = nullable
	t.WithTZ = withTZ
	return t
}

// TimestampType returns TIMESTAMP(precision), optionally WITH LOCAL TIME ZONE.
func TimestampType(nullable bool, precision int, withTZ bool) Type {
	t := WithPrecision(Timestamp, precision, NotSpecified)
	t.Nullable = nullable
	t.WithTZ = withTZ
	return t
}

// IntervalType returns the interval type for a qualifier.
func IntervalType(nullable bool, q IntervalQualifier) Type {
	name := IntervalDayTime
	if q.IsYearMonth() {
		name = IntervalYearMonth
	}
	t := New(name)
	t.Nullable = nullable
	t.Interval = q
	return t
}

// SymbolType returns SYMBOL.
func SymbolType() Type {
	return New(Symbol)
}

// AnyType returns ANY.
func AnyType(nullable bool) Type {
	t := New(Any)
	t.Nullable = nullable
	return t
}

// ColumnListType returns COLUMN_LIST.
func ColumnListType() Type {
	return New(ColumnList)
}

// WithNullability returns a copy with the given nullability.
func (t Type) WithNullability(nullable bool) Type {
	t.Nullable = nullable
	return t
}

// Family returns the family of the type.
func (t Type) Family() Family {
	return FamilyOf(t.Name)
}

// IsNumeric reports whether the type is numeric.
func (t Type) IsNumeric() bool {
	return t.Family() == FamilyNumeric
}

// IsExactNumeric reports whether the type is an exact numeric.
func (t Type) IsExactNumeric() bool {
	switch t.Name {
	case TinyInt, SmallInt, Integer, BigInt, Decimal:
		return true
	}
	return false
}

// IsApproxNumeric reports whether the type is a floating-point type.
func (t Type) IsApproxNumeric() bool {
	switch t.Name {
	case Real, Float, Double:
		return true
	}
	return false
}

// IsCharacter reports whether the type is CHAR or VARCHAR.
func (t Type) IsCharacter() bool {
	return t.Name == Char || t.Name == Varchar
}

// IsInterval reports whether the type is an interval.
func (t Type) IsInterval() bool {
	return t.Name == IntervalYearMonth || t.Name == IntervalDayTime
}

// IsKnown reports whether the type has been inferred.
func (t Type) IsKnown() bool {
	return t.Name != Unknown
}

// NumericPrecision returns the decimal precision of an exact numeric type.
func (t Type) NumericPrecision() int {
	switch t.Name {
	case TinyInt:
		return TinyIntPrecision
	case SmallInt:
		return SmallIntPrecision
	case Integer:
		return IntegerPrecision
	case BigInt:
		return BigIntPrecision
	case Decimal:
		if t.Precision == NotSpecified {
			return DefaultDecimalPrecision
		}
		return t.Precision
	}
	return NotSpecified
}

// NumericScale returns the scale of an exact numeric type; integers have
// scale 0.
func (t Type) NumericScale() int {
	if t.Name == Decimal && t.Scale != NotSpecified {
		return t.Scale
	}
	return 0
}

// String renders the type the way it is written in SQL, e.g.
// "DECIMAL(4, 2)", "TIME(3) WITH LOCAL TIME ZONE", "INTERVAL DAY TO SECOND".
// Nullability is rendered as a NOT NULL suffix.
func (t Type) String() string {
	var sb strings.Builder
	switch t.Name {
	case IntervalYearMonth, IntervalDayTime:
		sb.WriteString("INTERVAL ")
		sb.WriteString(t.Interval.String())
	case Decimal:
		sb.WriteString(t.Name.String())
		if t.Precision != NotSpecified {
			if t.Scale != NotSpecified {
				fmt.Fprintf(&sb, "(%d, %d)", t.Precision, t.Scale)
			} else {
				fmt.Fprintf(&sb, "(%d)", t.Precision)
			}
		}
	case Char, Varchar, Binary, Varbinary, Time, Timestamp:
		sb.WriteString(t.Name.String())
		if t.Precision != NotSpecified {
			fmt.Fprintf(&sb, "(%d)", t.Precision)
		}
		if t.WithTZ {
			sb.WriteString(" WITH LOCAL TIME ZONE")
		}
	default:
		sb.WriteString(t.Name.String())
	}
	if !t.Nullable && t.Name != Null && t.Name != Unknown && t.Name != Symbol {
		sb.WriteString(" NOT NULL")
	}
	return sb.String()
}

// SignatureString is the type spelled without precision or nullability, as
// used in call signatures such as "FOO(INTEGER, VARCHAR)".
func (t Type) SignatureString() string {
	if t.IsInterval() {
		return "INTERVAL " + t.Interval.String()
	}
	return t.Name.String()
}

// Signature renders a call signature from a name and argument types.
func Signature(name string, args []Type) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.SignatureString()
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}
