// Package ir provides the call tree and operator descriptor types shared by
// every stage of the expression compiler.
//
// ir imports only the leaf packages types and literal; every other internal
// package imports ir. This keeps the tree representation the foundational
// layer with no circular dependencies.
//
// ARCHITECTURE:
//
// Call tree:
// Node is a sealed interface implemented by *LiteralNode, *Identifier,
// *Call, *NodeList and *DynamicParam. Consumers switch over the concrete
// types exhaustively. Every node has a process-unique NodeID and a source
// Pos. A Call exclusively owns its operands; Clone deep-copies a subtree and
// assigns fresh IDs.
//
// Operator descriptors:
// Operator is plain metadata plus a handful of function hooks (return type,
// operand inference, operand check, reduce, unparse, derive). Descriptors
// are built once, frozen into a table and shared read-only by every session.
//
// CRITICAL PATTERNS:
//
// Operator rebinding:
// Call.Operator() is read-only. The only way to replace the operator of a
// call is a Rebinder, which a validation session creates for the trees it
// owns. A Rebinder refuses calls stamped by a different session.
//
// Error split:
// Expected failures (reduction, type check, resolution) are *CompileError
// values. Broken contracts (a special operator without a reduce hook, a
// reduction that does not shrink the sequence) panic with
// InvariantViolation and must never be reported as user errors.
//
// Canonical form:
// MarshalCanonical renders a tree as sorted-key JSON with NFC-normalized
// strings and no floats, so Fingerprint is stable across runs.
package ir
