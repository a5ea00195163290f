package literal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polyexpr/internal/types"
)

func TestParse_RoundTrip(t *testing.T) {
	corpus := []string{
		"NULL",
		"TRUE",
		"FALSE",
		"UNKNOWN",
		"123",
		"-42",
		"123.450",
		"0.5",
		"1.0E3",
		"-2.25E-7",
		"'it''s'",
		"_UTF8'abc'",
		"'abc' COLLATE \"en-US\"",
		"X'ABC'",
		"X''",
		"DATE '2004-10-22'",
		"TIME '14:33:44.567'",
		"TIME WITH LOCAL TIME ZONE '01:02:03'",
		"TIMESTAMP '2004-10-22 14:33:44'",
		"TIMESTAMP WITH LOCAL TIME ZONE '1969-12-31 23:59:59.5'",
		"INTERVAL '1' SECOND",
		"INTERVAL -'1' DAY",
		"INTERVAL '1-6' YEAR TO MONTH",
		"INTERVAL '3 04:05:06.25' DAY TO SECOND",
		"BOTH",
	}
	for _, text := range corpus {
		t.Run(text, func(t *testing.T) {
			l, err := Parse(text)
			require.NoError(t, err)
			assert.Equal(t, text, l.String())

			again, err := Parse(l.String())
			require.NoError(t, err)
			assert.True(t, Equal(l, again))
		})
	}
}

func TestParse_Normalizes(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"null", "NULL"},
		{"  true ", "TRUE"},
		{".5", "0.5"},
		{"1.", "1"},
		{"1e3", "1.0E3"},
		{"x'ab'", "X'AB'"},
		{"date '2004-1-2'", "DATE '2004-01-02'"},
		{"interval '5' minute", "INTERVAL '5' MINUTE"},
		{"_latin1'x'", "_LATIN1'x'"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			l, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, l.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	bad := []string{
		"",
		"DATE '2004-02-30'",
		"TIME '25:00:00'",
		"TIMESTAMP '2004-10-22'",
		"X'GG'",
		"'unterminated",
		"_NOSUCHCHARSET'x'",
		"INTERVAL '1-12' YEAR TO MONTH",
		"INTERVAL '1' FORTNIGHT",
		"1.2.3",
		"'abc' garbage",
		"DATE WITH LOCAL TIME ZONE '2004-10-22'",
	}
	for _, text := range bad {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			assert.Error(t, err)
		})
	}
}

func TestLiteral_Type(t *testing.T) {
	testCases := []struct {
		text string
		want types.Type
	}{
		{"42", types.IntegerType(false)},
		{"3000000000", types.BigIntType(false)},
		{"12.34", types.DecimalType(false, 4, 2)},
		{"99999999999999999999", types.DecimalType(false, 20, 0)},
		{"1.5E2", types.DoubleType(false)},
		{"TRUE", types.BooleanType(false)},
		{"UNKNOWN", types.BooleanType(true)},
		{"NULL", types.NullType()},
		{"'héllo'", types.CharType(false, 5, "", "")},
		{"X'ABCD'", types.BinaryType(false, 2)},
		{"DATE '2020-01-01'", types.DateType(false)},
		{"TIME '10:00:00.12'", types.TimeType(false, 2, false)},
		{"INTERVAL '2' HOUR", types.IntervalType(false, types.NewIntervalQualifier(types.UnitHour, types.UnitNone))},
		{"LEADING", types.SymbolType()},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			l := MustParse(tc.text)
			assert.Equal(t, tc.want, l.Type())
		})
	}
}

func TestExactNumeric_PrecisionAndScale(t *testing.T) {
	n, err := ParseExactNumeric("123.450")
	require.NoError(t, err)
	assert.Equal(t, 6, n.Precision)
	assert.Equal(t, 3, n.Scale)

	n, err = ParseExactNumeric("0.05")
	require.NoError(t, err)
	assert.Equal(t, 2, n.Precision)
	assert.Equal(t, 2, n.Scale)

	v, ok := NewExactInt(-17).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(-17), v)
}

func TestCreateNegative(t *testing.T) {
	neg, err := CreateNegative(MustParse("12.50"))
	require.NoError(t, err)
	assert.Equal(t, "-12.50", neg.String())
	assert.Equal(t, types.DecimalType(false, 4, 2), neg.Type())

	neg, err = CreateNegative(MustParse("1.0E3"))
	require.NoError(t, err)
	assert.Equal(t, "-1.0E3", neg.String())

	_, err = CreateNegative(MustParse("'x'"))
	assert.Error(t, err)
}

func TestInterval_Signum(t *testing.T) {
	hts := types.NewIntervalQualifier(types.UnitHour, types.UnitSecond)

	zero, err := NewInterval(-1, "0:00:00", hts)
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Signum(), "a negative zero interval has signum 0")

	neg, err := NewInterval(-1, "0:00:01", hts)
	require.NoError(t, err)
	assert.Equal(t, -1, neg.Signum())

	pos := MustParse("INTERVAL '1' SECOND").(Interval)
	assert.Equal(t, 1, pos.Signum())

	_, err = NewInterval(0, "1", hts)
	assert.Error(t, err)
}

func TestCharString_Collation(t *testing.T) {
	a, err := NewCharString("apple", "", "en")
	require.NoError(t, err)
	b, err := NewCharString("Banana", "", "en")
	require.NoError(t, err)
	assert.Negative(t, a.Compare(b), "linguistic order ignores case")

	raw := CharString{Text: "apple"}
	assert.Positive(t, raw.Compare(CharString{Text: "Banana"}), "code-point order")

	_, err = NewCharString("x", "", "not a tag!")
	assert.Error(t, err)
}

func TestCharString_NFC(t *testing.T) {
	decomposed := "e\u0301"
	cs, err := NewCharString(decomposed, "", "")
	require.NoError(t, err)
	assert.Equal(t, "\u00e9", cs.Text)
	assert.Equal(t, types.CharType(false, 1, "", ""), cs.Type())
}

func TestUnescapeUnicode(t *testing.T) {
	cs := CharString{Text: `a\0041\\b`}
	got, err := UnescapeUnicode(cs, '\\')
	require.NoError(t, err)
	assert.Equal(t, `aA\b`, got.Text)

	_, err = UnescapeUnicode(CharString{Text: `\00`}, '\\')
	assert.Error(t, err)

	same, err := UnescapeUnicode(cs, 0)
	require.NoError(t, err)
	assert.Equal(t, cs, same)
}

func TestConcatStrings(t *testing.T) {
	got, err := ConcatStrings([]Literal{
		CharString{Text: "ab", Collation: "en"},
		CharString{Text: "cd"},
	})
	require.NoError(t, err)
	assert.Equal(t, CharString{Text: "abcd", Collation: "en"}, got)

	got, err = ConcatStrings([]Literal{BinaryString{Hex: "AB"}, BinaryString{Hex: "C"}})
	require.NoError(t, err)
	assert.Equal(t, "X'ABC'", got.String())
	assert.Equal(t, 12, got.(BinaryString).BitCount())

	_, err = ConcatStrings([]Literal{CharString{Text: "a"}, BinaryString{Hex: "AB"}})
	assert.Error(t, err)
	_, err = ConcatStrings(nil)
	assert.Error(t, err)
}

func TestBinaryString_Bytes(t *testing.T) {
	b, err := NewBinaryString("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xC0}, b.Bytes())
}
