package algebra

import (
	"errors"
	"fmt"
	"strings"
)

// JoinType enumerates the ways two inputs are joined.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

var joinTypeNames = [...]string{"INNER", "LEFT", "RIGHT", "FULL"}

func (j JoinType) String() string {
	if j < 0 || int(j) >= len(joinTypeNames) {
		return fmt.Sprintf("JoinType(%d)", int(j))
	}
	return joinTypeNames[j]
}

// ParseJoinType parses a join keyword. "LEFT OUTER" and friends are
// accepted as aliases.
func ParseJoinType(s string) (JoinType, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	key = strings.TrimSuffix(key, " OUTER")
	for i, name := range joinTypeNames {
		if key == name {
			return JoinType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown join type %q", s)
}

// IsOuterJoin reports whether the join pads some rows with NULLs.
func (j JoinType) IsOuterJoin() bool {
	return j != JoinInner
}

// GeneratesNullsOnLeft reports whether left-side columns may be NULL in
// the output because a right row had no match.
func (j JoinType) GeneratesNullsOnLeft() bool {
	return j == JoinRight || j == JoinFull
}

// GeneratesNullsOnRight reports whether right-side columns may be NULL in
// the output because a left row had no match.
func (j JoinType) GeneratesNullsOnRight() bool {
	return j == JoinLeft || j == JoinFull
}

// GeneratesNullsOn reports null generation for input i: 0 is the left
// input, 1 the right.
func (j JoinType) GeneratesNullsOn(i int) bool {
	switch i {
	case 0:
		return j.GeneratesNullsOnLeft()
	case 1:
		return j.GeneratesNullsOnRight()
	}
	panic(fmt.Sprintf("join input %d out of range", i))
}

// Swap returns the join type seen with its inputs exchanged.
func (j JoinType) Swap() JoinType {
	switch j {
	case JoinLeft:
		return JoinRight
	case JoinRight:
		return JoinLeft
	}
	return j
}

// CancelNullsOnLeft returns the join type left once a filter rejects
// NULLs in the left columns.
func (j JoinType) CancelNullsOnLeft() JoinType {
	switch j {
	case JoinRight:
		return JoinInner
	case JoinFull:
		return JoinLeft
	}
	return j
}

// CancelNullsOnRight returns the join type left once a filter rejects
// NULLs in the right columns.
func (j JoinType) CancelNullsOnRight() JoinType {
	switch j {
	case JoinLeft:
		return JoinInner
	case JoinFull:
		return JoinRight
	}
	return j
}

// SemiJoinType enumerates the join types a correlate or semi-join may
// use.
type SemiJoinType int

const (
	SemiJoinInner SemiJoinType = iota
	SemiJoinLeft
	SemiJoinSemi
	SemiJoinAnti
)

var semiJoinTypeNames = [...]string{"INNER", "LEFT", "SEMI", "ANTI"}

func (s SemiJoinType) String() string {
	if s < 0 || int(s) >= len(semiJoinTypeNames) {
		return fmt.Sprintf("SemiJoinType(%d)", int(s))
	}
	return semiJoinTypeNames[s]
}

// ParseSemiJoinType parses a semi-join keyword.
func ParseSemiJoinType(s string) (SemiJoinType, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range semiJoinTypeNames {
		if key == name {
			return SemiJoinType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown semi-join type %q", s)
}

// ErrNoJoinEquivalent is returned when a SEMI or ANTI join is converted to
// a JoinType.
var ErrNoJoinEquivalent = errors.New("semi-join type has no join type equivalent")

// ToJoinType converts INNER and LEFT to the matching JoinType.
func (s SemiJoinType) ToJoinType() (JoinType, error) {
	switch s {
	case SemiJoinInner:
		return JoinInner, nil
	case SemiJoinLeft:
		return JoinLeft, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNoJoinEquivalent, s)
}

// ReturnsJustFirstInput reports whether the output has only the left
// input's columns.
func (s SemiJoinType) ReturnsJustFirstInput() bool {
	return s == SemiJoinSemi || s == SemiJoinAnti
}

// FromJoinType converts a JoinType to a SemiJoinType. Only INNER and LEFT
// have an equivalent.
func FromJoinType(j JoinType) (SemiJoinType, error) {
	switch j {
	case JoinInner:
		return SemiJoinInner, nil
	case JoinLeft:
		return SemiJoinLeft, nil
	}
	return 0, fmt.Errorf("join type %s has no semi-join equivalent", j)
}
