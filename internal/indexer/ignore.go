package indexer

import (
	"bytes"
	"strings"
)

// defaultIgnoreDirs are directory names never worth indexing:
// dependency trees, build output and VCS internals.
var defaultIgnoreDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"build":        true,
	"dist":         true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".tox":         true,
	".mypy_cache":  true,
	".pytest_cache": true,
	"bower_components": true,
}

// hiddenDirAllowlist controls which dot-directories are walked.
// Everything hidden is skipped unless allowlisted here.
var hiddenDirAllowlist = map[string]bool{
	".github":   true,
	".vscode":   true,
	".circleci": true,
	".config":   true,
	".repolens": false, // Our own state, always skip
	".git":      false, // Always skip
}

// IgnoreRules decides which directories and files the walker skips.
type IgnoreRules struct {
	extraDirs map[string]bool
}

// NewIgnoreRules builds rules from the built-in defaults plus any
// configured extra directory names.
func NewIgnoreRules(extraDirs []string) *IgnoreRules {
	extra := make(map[string]bool, len(extraDirs))
	for _, d := range extraDirs {
		extra[d] = true
	}
	return &IgnoreRules{extraDirs: extra}
}

// SkipDir reports whether a directory name should be skipped entirely.
func (r *IgnoreRules) SkipDir(name string) bool {
	if name == "." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		if allow, exists := hiddenDirAllowlist[name]; exists {
			return !allow
		}
		return true // Default block for hidden dirs
	}
	if defaultIgnoreDirs[name] {
		return true
	}
	return r.extraDirs[name]
}

// SkipFile reports whether a file should be skipped by name.
func (r *IgnoreRules) SkipFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	// Lock files and minified bundles add noise, not symbols
	switch {
	case strings.HasSuffix(name, ".min.js"),
		strings.HasSuffix(name, ".min.css"),
		strings.HasSuffix(name, ".lock"),
		name == "package-lock.json",
		name == "yarn.lock":
		return true
	}
	return false
}

// IsBinary sniffs the first bytes of content for NUL, the same
// heuristic git uses to classify binary files.
func IsBinary(content []byte) bool {
	n := len(content)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}
