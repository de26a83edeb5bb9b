// Package parser extracts language-agnostic symbols from source files.
// Each language gets its own CodeParser (Tree-sitter for Rust/Python/
// TypeScript, go/ast for Go, hand-rolled scanners for markup formats);
// all of them emit the same Symbol representation so the indexer, store
// and search layers never care which grammar a file came from.
package parser

import "strings"

// Kind is the semantic type of an extracted symbol.
type Kind string

const (
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindStruct    Kind = "struct"
	KindClass     Kind = "class"
	KindEnum      Kind = "enum"
	KindTrait     Kind = "trait"
	KindInterface Kind = "interface"
	KindConst     Kind = "const"
	KindVar       Kind = "var"
	KindModule    Kind = "module"
	KindTypeAlias Kind = "type"
	KindSection   Kind = "section" // Markup headings
)

// Visibility of a symbol in its own language's terms.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Symbol is a single extracted code element.
//
// Ref is a repo-anchored URI of the form "<lang>:<relpath>:<Name>" (methods
// use "<lang>:<relpath>:<Type>.<Name>") and is stable across reindexes as
// long as the symbol keeps its name and file.
type Symbol struct {
	Ref        string     `json:"ref"`
	Kind       Kind       `json:"kind"`
	Name       string     `json:"name"`
	File       string     `json:"file"`       // Absolute path
	StartLine  int        `json:"start_line"` // 1-indexed, inclusive
	EndLine    int        `json:"end_line"`   // 1-indexed, inclusive
	Signature  string     `json:"signature"` // Declaration line, trimmed
	Body       string     `json:"body,omitempty"`
	Parent     string     `json:"parent,omitempty"`
	Visibility Visibility `json:"visibility"`
	Language   string     `json:"language"`
}

// Annotation is a language-specific property of a symbol, keyed by a
// dotted "<lang>.<feature>" name. Annotations capture what the unified
// Symbol shape cannot (async-ness, derives, decorators, generics) and
// are persisted alongside the symbol for search filtering.
type Annotation struct {
	Ref   string `json:"ref"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// CodeParser is the contract for language-specific symbol parsers.
type CodeParser interface {
	// Parse extracts Symbols from source content. The path is used for
	// generating stable Ref URIs; content is the raw file bytes so
	// in-memory content can be parsed too. A file with nothing to
	// extract returns an empty slice and a nil error.
	Parse(path string, content []byte) ([]Symbol, error)

	// Annotations derives language-specific annotations from
	// previously parsed symbols.
	Annotations(symbols []Symbol) []Annotation

	// SupportedExtensions returns the extensions this parser handles,
	// leading dot included. The first one is canonical.
	SupportedExtensions() []string

	// Language returns the short identifier used in Ref URIs
	// (e.g. "go", "rs", "py", "ts").
	Language() string
}

// extractBody returns the source lines covering [startLine, endLine].
func extractBody(lines []string, startLine, endLine int) string {
	if startLine < 1 || startLine > len(lines) {
		return ""
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
