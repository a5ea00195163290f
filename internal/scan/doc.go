// Package scan is a small reference front end for expressions. It
// tokenizes expression text, maps operator words and symbols onto the
// descriptors of an operator table and hands the resulting flat entry
// sequences to the precedence-climbing reducer.
//
// Parenthesised groups, function arguments and the bodies of FILTER,
// WITHIN GROUP, OVER and CAST are reduced recursively and enter the outer
// sequence as single operands. Everything else, CASE included, is reduced
// by the operators' own hooks.
//
// Unquoted identifiers and function names are upper-cased; quoted
// identifiers keep their case.
package scan
