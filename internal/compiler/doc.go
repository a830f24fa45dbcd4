// Package compiler turns schema documents into registry declarations.
//
// Two front ends produce the same Document model:
//   - CUE files, through the cuelang.org/go API (CompileDocument, CompileType)
//   - YAML files, decoded strictly (LoadYAML, LoadYAMLFile)
//
// Validate checks a Document and reports every problem at once; Decls
// converts a valid Document into engine.Decl values for a Registry.
package compiler
