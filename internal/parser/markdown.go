package parser

import (
	"fmt"
	"strings"
)

// MarkdownParser is a hand-rolled parser for Markdown documents.
// Tree-sitter is overkill for headings, which are all the indexer
// needs from prose files: each heading becomes a section symbol whose
// span runs to the next heading of the same or shallower level.
type MarkdownParser struct {
	projectRoot string
}

// NewMarkdownParser creates a new Markdown parser.
func NewMarkdownParser(projectRoot string) *MarkdownParser {
	return &MarkdownParser{projectRoot: projectRoot}
}

// Language returns "md" for Ref URI generation.
func (p *MarkdownParser) Language() string {
	return "md"
}

// SupportedExtensions returns [".md"].
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md"}
}

type mdHeading struct {
	level int
	title string
	line  int // 1-indexed
}

// Parse extracts section symbols from Markdown headings.
func (p *MarkdownParser) Parse(path string, content []byte) ([]Symbol, error) {
	lines := strings.Split(string(content), "\n")
	relPath := relativeTo(p.projectRoot, path)

	var headings []mdHeading
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "#") {
			continue
		}

		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level > 6 || level >= len(trimmed) || trimmed[level] != ' ' {
			continue
		}

		headings = append(headings, mdHeading{
			level: level,
			title: strings.TrimSpace(trimmed[level:]),
			line:  i + 1,
		})
	}

	symbols := make([]Symbol, 0, len(headings))
	parentAt := make(map[int]string) // level -> ref of last heading at that level

	for i, h := range headings {
		// Section ends where the next same-or-shallower heading starts
		endLine := len(lines)
		for _, next := range headings[i+1:] {
			if next.level <= h.level {
				endLine = next.line - 1
				break
			}
		}

		parent := ""
		for lvl := h.level - 1; lvl >= 1; lvl-- {
			if ref, ok := parentAt[lvl]; ok {
				parent = ref
				break
			}
		}

		ref := fmt.Sprintf("md:%s:%s", relPath, slugify(h.title))
		parentAt[h.level] = ref
		for lvl := h.level + 1; lvl <= 6; lvl++ {
			delete(parentAt, lvl)
		}

		symbols = append(symbols, Symbol{
			Ref:        ref,
			Kind:       KindSection,
			Name:       h.title,
			File:       path,
			StartLine:  h.line,
			EndLine:    endLine,
			Signature:  strings.TrimSpace(lines[h.line-1]),
			Body:       extractBody(lines, h.line, endLine),
			Parent:     parent,
			Visibility: VisibilityPublic,
			Language:   "md",
		})
	}

	return symbols, nil
}

// Annotations records heading depth for each section.
func (p *MarkdownParser) Annotations(symbols []Symbol) []Annotation {
	var anns []Annotation
	for _, sym := range symbols {
		if sym.Kind != KindSection {
			continue
		}
		level := 0
		for level < len(sym.Signature) && sym.Signature[level] == '#' {
			level++
		}
		anns = append(anns, Annotation{Ref: sym.Ref, Key: "md.level", Value: fmt.Sprintf("%d", level)})
	}
	return anns
}

// slugify converts a heading title to a stable ref fragment.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if s := b.String(); len(s) > 0 && !strings.HasSuffix(s, "-") {
				b.WriteRune('-')
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
