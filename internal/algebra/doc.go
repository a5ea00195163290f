// Package algebra holds the relational metadata the expression frontend
// shares with plan construction: join types, semi-join types and EXPLAIN
// output formats.
//
// The enums are closed sets. Each has a String form matching its SQL
// keyword and a Parse function accepting that keyword in any case.
//
// JOIN NULL GENERATION:
//
// An outer join pads the rows of one input with NULLs when they have no
// match on the other side:
//
//	INNER  neither side
//	LEFT   right side
//	RIGHT  left side
//	FULL   both sides
//
// SEMI and ANTI joins return only left rows, so they have no JoinType
// equivalent. Converting one is an error, never a silent INNER.
package algebra
