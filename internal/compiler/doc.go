// Package compiler turns CUE declarations of user-defined routines into
// operator descriptors.
//
// A declaration file binds routine names under a top-level "function"
// struct. A name maps to one declaration or to a list of overloads:
//
//	function: DISCOUNT: {
//		params: [{name: "price", type: "DECIMAL(10, 2)"}, {name: "rate", type: "DOUBLE"}]
//		returns: "DECIMAL(10, 2)"
//	}
//
//	function: CLAMP: [
//		{params: [{type: "INTEGER"}, {type: "INTEGER"}], returns: "INTEGER"},
//		{params: [{type: "DOUBLE"}, {type: "DOUBLE"}], returns: "DOUBLE"},
//	]
//
// Compilation runs in three steps:
//
//  1. Decode: unify each declaration with the embedded #Function schema,
//     applying defaults. Schema violations are CompileErrors carrying the
//     CUE source position.
//  2. Validate: check declarations against each other and against the
//     base operator table. All problems are reported, each with an E1xx
//     code.
//  3. Compile: build one *ir.Operator per declaration.
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
package compiler
