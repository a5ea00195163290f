// Package operators holds the operator table and the built-in operator
// descriptors.
//
// ARCHITECTURE:
//
//	Builder.Register ... Builder.Freeze -> *Table (immutable, shared)
//
// A *Table never changes after Freeze. Sessions on any number of
// goroutines share one table without locks; layering user-defined
// functions goes through Table.Extend, which returns a fresh Builder.
//
// Descriptors carry their behaviour as hooks rather than through a type
// hierarchy:
//
//   - ReturnType: rules in returns.go (ExplicitType, DecimalSum, SumReturn...)
//   - OperandInference: strategies in inference.go (FirstKnown, Fixed...)
//   - OperandCheck: checkers in checkers.go (Families, OneOf, Variadic...)
//   - Reduce/Unparse/Derive: the special constructs in special.go
//     (BETWEEN, CASE, AS, FILTER, WITHIN GROUP, OVER, CAST)
//
// CRITICAL PATTERNS:
//   - Descriptors are created once at package init and never mutated.
//   - Reduce hooks take the operator from the sequence, never from the
//     package variable, so initialization stays acyclic.
//   - Type-check failures are *ir.CompileError values built by
//     NewCallTypeError and NewOperandCountError so messages stay uniform.
package operators
