// Package compiler provides the Umjunsik lexer, parser, and code generator
// that targets a small basic-block IR.
//
// Pipeline: Umjunsik source → Lex → Parse → Generate → IR text
package compiler
