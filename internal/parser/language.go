package parser

import (
	"path/filepath"
	"strings"
)

// extensionLanguages maps file extensions to language identifiers.
// Derived from the extension table the indexer shares with the watcher;
// unrecognized extensions report "unknown" and are skipped upstream.
var extensionLanguages = map[string]string{
	".go":    "go",
	".rs":    "rs",
	".py":    "py",
	".pyw":   "py",
	".ts":    "ts",
	".tsx":   "ts",
	".js":    "js",
	".jsx":   "js",
	".mjs":   "js",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".java":  "java",
	".rb":    "rb",
	".php":   "php",
	".cs":    "cs",
	".swift": "swift",
	".kt":    "kt",
	".scala": "scala",
	".sh":    "sh",
	".bash":  "sh",
	".md":    "md",
	".rst":   "rst",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".html":  "html",
	".css":   "css",
	".sql":   "sql",
	".proto": "proto",
}

// filenameLanguages maps extension-less well-known filenames.
var filenameLanguages = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "make",
	"gemfile":    "rb",
	"rakefile":   "rb",
}

// DetectLanguage returns the language identifier for a path, or "unknown".
func DetectLanguage(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if lang, ok := filenameLanguages[base]; ok {
		return lang
	}

	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return "unknown"
}

// IsSourceFile reports whether the path maps to a known language.
func IsSourceFile(path string) bool {
	return DetectLanguage(path) != "unknown"
}
