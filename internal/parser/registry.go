package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"repolens/internal/logging"
)

// Registry routes parse requests to the CodeParser registered for a
// file's extension.
type Registry struct {
	mu          sync.RWMutex
	parsers     map[string]CodeParser // extension -> parser
	projectRoot string                // For repo-anchored refs
}

// NewRegistry creates an empty Registry rooted at projectRoot.
func NewRegistry(projectRoot string) *Registry {
	logging.ParserDebug("Creating parser registry with project root: %s", projectRoot)
	return &Registry{
		parsers:     make(map[string]CodeParser),
		projectRoot: projectRoot,
	}
}

// Register adds a parser for all of its supported extensions.
// An existing registration for an extension is replaced.
func (r *Registry) Register(p CodeParser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range p.SupportedExtensions() {
		ext = normalizeExtension(ext)
		logging.ParserDebug("Registry: registering %s parser for extension %s", p.Language(), ext)
		r.parsers[ext] = p
	}
}

// Lookup returns the parser for a path, or nil if none is registered.
func (r *Registry) Lookup(path string) CodeParser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.parsers[normalizeExtension(filepath.Ext(path))]
}

// Supports reports whether a parser exists for the given path.
func (r *Registry) Supports(path string) bool {
	return r.Lookup(path) != nil
}

// Parse extracts symbols from a file using the appropriate parser.
func (r *Registry) Parse(path string, content []byte) ([]Symbol, error) {
	p := r.Lookup(path)
	if p == nil {
		return nil, fmt.Errorf("no parser registered for extension: %s", filepath.Ext(path))
	}
	return p.Parse(path, content)
}

// ParseWithAnnotations parses a file and derives its annotations in one call.
func (r *Registry) ParseWithAnnotations(path string, content []byte) ([]Symbol, []Annotation, error) {
	p := r.Lookup(path)
	if p == nil {
		return nil, nil, fmt.Errorf("no parser registered for extension: %s", filepath.Ext(path))
	}

	symbols, err := p.Parse(path, content)
	if err != nil {
		return nil, nil, err
	}
	return symbols, p.Annotations(symbols), nil
}

// SupportedExtensions returns all registered file extensions.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	return exts
}

// Languages returns all registered language identifiers.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var langs []string
	for _, p := range r.parsers {
		if !seen[p.Language()] {
			seen[p.Language()] = true
			langs = append(langs, p.Language())
		}
	}
	return langs
}

// ProjectRoot returns the root used for repo-anchored refs.
func (r *Registry) ProjectRoot() string {
	return r.projectRoot
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// DefaultRegistry creates a Registry with all built-in parsers registered.
func DefaultRegistry(projectRoot string) *Registry {
	reg := NewRegistry(projectRoot)

	reg.Register(NewGoParser(projectRoot))
	reg.Register(NewRustParser(projectRoot))
	reg.Register(NewPythonParser(projectRoot))
	reg.Register(NewTypeScriptParser(projectRoot))
	reg.Register(NewMarkdownParser(projectRoot))

	logging.ParserDebug("DefaultRegistry: registered %d extensions for %v",
		len(reg.parsers), reg.Languages())

	return reg
}

// relativeTo returns path relative to root with forward slashes,
// falling back to the input when it cannot be made relative.
func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
