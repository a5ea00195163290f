// Package types provides the logical SQL type model shared by literals,
// operators, the overload resolver and the validation session.
//
// A Type is a plain comparable value: two types are identical iff they are
// == equal. Types never reference nodes or operators, so this package imports
// nothing internal.
//
// Families group type names for operand checking and implicit coercion.
// Precedence lists order the types an argument may be widened to; the
// overload resolver uses them to rank candidate routines.
package types
