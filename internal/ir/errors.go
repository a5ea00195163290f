package ir

import (
	"errors"
	"fmt"
)

// CompileError represents an expected failure while reducing or validating
// an expression.
//
// Compile errors include:
//   - Reduction: a malformed token span, e.g. FILTER without an aggregate
//   - Type check: operand count or family mismatch
//   - Resolution: no routine or more than one routine matches a call
//   - Aggregate legality: DISTINCT/ALL, FILTER, OVER on the wrong call
//
// Every CompileError carries the position of the offending node.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Pos is the source position of the offending node.
	Pos Pos

	// Operand is the index of the failing operand, or -1.
	Operand int

	// Details contains additional context (signature, candidate names).
	Details map[string]string
}

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeReduction indicates a malformed operator/operand span.
	ErrCodeReduction ErrorCode = "REDUCTION_FAILED"

	// ErrCodeTypeCheck indicates an operand count or type mismatch.
	ErrCodeTypeCheck ErrorCode = "TYPE_CHECK_FAILED"

	// ErrCodeAmbiguous indicates more than one routine matches a call.
	ErrCodeAmbiguous ErrorCode = "AMBIGUOUS_CALL"

	// ErrCodeNoMatch indicates no routine matches a call.
	ErrCodeNoMatch ErrorCode = "NO_MATCH"

	// ErrCodeQuantifierNotAllowed indicates DISTINCT/ALL on a call that
	// does not accept it.
	ErrCodeQuantifierNotAllowed ErrorCode = "QUANTIFIER_NOT_ALLOWED"

	// ErrCodeNotAggregate indicates FILTER, WITHIN GROUP or OVER applied
	// to something other than an aggregate call.
	ErrCodeNotAggregate ErrorCode = "NOT_AGGREGATE"

	// ErrCodeNestedAggregate indicates an aggregate inside the operands of
	// another aggregate.
	ErrCodeNestedAggregate ErrorCode = "NESTED_AGGREGATE"

	// ErrCodeDepthExceeded indicates the input nests deeper than allowed.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeUnknownIdentifier indicates the catalog could not type a name.
	ErrCodeUnknownIdentifier ErrorCode = "UNKNOWN_IDENTIFIER"

	// ErrCodeInvalidLiteral indicates malformed literal text.
	ErrCodeInvalidLiteral ErrorCode = "INVALID_LITERAL"
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// ErrorCodeOf returns the code of a wrapped CompileError, or "".
func ErrorCodeOf(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsReductionError returns true if the error is a reduction failure.
// Uses errors.As to handle wrapped errors.
func IsReductionError(err error) bool { return hasCode(err, ErrCodeReduction) }

// IsTypeCheckError returns true if the error is a type check failure.
func IsTypeCheckError(err error) bool { return hasCode(err, ErrCodeTypeCheck) }

// IsResolutionError returns true for both ambiguous and no-match errors.
func IsResolutionError(err error) bool {
	return hasCode(err, ErrCodeAmbiguous) || hasCode(err, ErrCodeNoMatch)
}

// IsAmbiguousError returns true if more than one routine matched.
func IsAmbiguousError(err error) bool { return hasCode(err, ErrCodeAmbiguous) }

// IsNoMatchError returns true if no routine matched.
func IsNoMatchError(err error) bool { return hasCode(err, ErrCodeNoMatch) }

// IsQuantifierError returns true if a quantifier was not allowed.
func IsQuantifierError(err error) bool { return hasCode(err, ErrCodeQuantifierNotAllowed) }

// IsNotAggregateError returns true if an aggregate-only construct was
// applied to a non-aggregate.
func IsNotAggregateError(err error) bool { return hasCode(err, ErrCodeNotAggregate) }

// IsDepthError returns true if the nesting bound was exceeded.
func IsDepthError(err error) bool { return hasCode(err, ErrCodeDepthExceeded) }

// NewReductionError creates a CompileError for a malformed span.
func NewReductionError(pos Pos, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeReduction,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		Operand: -1,
	}
}

// NewTypeCheckError creates a CompileError for a failing operand.
func NewTypeCheckError(pos Pos, operand int, message string) *CompileError {
	return &CompileError{
		Code:    ErrCodeTypeCheck,
		Message: message,
		Pos:     pos,
		Operand: operand,
	}
}

// NewAmbiguousError creates a CompileError for an ambiguous call.
func NewAmbiguousError(pos Pos, signature string, candidates []string) *CompileError {
	return &CompileError{
		Code:    ErrCodeAmbiguous,
		Message: fmt.Sprintf("ambiguous call to %s; candidates: %v", signature, candidates),
		Pos:     pos,
		Operand: -1,
		Details: map[string]string{"signature": signature},
	}
}

// NewNoMatchError creates a CompileError for a call no routine accepts.
func NewNoMatchError(pos Pos, signature string) *CompileError {
	return &CompileError{
		Code:    ErrCodeNoMatch,
		Message: fmt.Sprintf("No match found for function signature %s", signature),
		Pos:     pos,
		Operand: -1,
		Details: map[string]string{"signature": signature},
	}
}

// NewQuantifierError creates a CompileError for a rejected DISTINCT/ALL.
func NewQuantifierError(pos Pos, q Quantifier, name string) *CompileError {
	return &CompileError{
		Code:    ErrCodeQuantifierNotAllowed,
		Message: fmt.Sprintf("%s is not allowed in a call to %s", q, name),
		Pos:     pos,
		Operand: -1,
	}
}

// NewNotAggregateError creates a CompileError for FILTER, WITHIN GROUP or
// OVER on a non-aggregate.
func NewNotAggregateError(pos Pos, construct, got string) *CompileError {
	return &CompileError{
		Code:    ErrCodeNotAggregate,
		Message: fmt.Sprintf("%s must be applied to an aggregate function, got %s", construct, got),
		Pos:     pos,
		Operand: 0,
	}
}

// NewNestedAggregateError creates a CompileError for an aggregate inside
// another aggregate.
func NewNestedAggregateError(pos Pos, name string) *CompileError {
	return &CompileError{
		Code:    ErrCodeNestedAggregate,
		Message: fmt.Sprintf("aggregate expressions cannot be nested: %s", name),
		Pos:     pos,
		Operand: -1,
	}
}

// NewDepthError creates a CompileError for input nested beyond max.
func NewDepthError(pos Pos, max int) *CompileError {
	return &CompileError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("expression nesting exceeds maximum depth %d", max),
		Pos:     pos,
		Operand: -1,
		Details: map[string]string{"max_depth": fmt.Sprintf("%d", max)},
	}
}

// NewUnknownIdentifierError creates a CompileError for a name the catalog
// cannot type.
func NewUnknownIdentifierError(pos Pos, name string, cause error) *CompileError {
	msg := fmt.Sprintf("cannot resolve identifier %s", name)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &CompileError{
		Code:    ErrCodeUnknownIdentifier,
		Message: msg,
		Pos:     pos,
		Operand: -1,
	}
}

// NewInvalidLiteralError creates a CompileError for malformed literal text.
func NewInvalidLiteralError(pos Pos, cause error) *CompileError {
	return &CompileError{
		Code:    ErrCodeInvalidLiteral,
		Message: cause.Error(),
		Pos:     pos,
		Operand: -1,
	}
}

// InvariantViolation is the panic value for broken internal contracts. It
// indicates a registration or programming bug, never bad user input.
type InvariantViolation struct {
	Message string
}

func (v InvariantViolation) Error() string {
	return "invariant violation: " + v.Message
}
