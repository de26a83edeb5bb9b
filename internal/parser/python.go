package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"repolens/internal/logging"
)

// PythonParser extracts symbols from Python source files using Tree-sitter.
type PythonParser struct {
	projectRoot string
	parser      *sitter.Parser
}

// NewPythonParser creates a new Python parser.
func NewPythonParser(projectRoot string) *PythonParser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &PythonParser{
		projectRoot: projectRoot,
		parser:      p,
	}
}

// Language returns "py" for Ref URI generation.
func (p *PythonParser) Language() string {
	return "py"
}

// SupportedExtensions returns the Python extensions.
func (p *PythonParser) SupportedExtensions() []string {
	return []string{".py", ".pyw"}
}

// Parse extracts Symbols from Python source.
func (p *PythonParser) Parse(path string, content []byte) ([]Symbol, error) {
	start := time.Now()
	logging.ParserDebug("PythonParser: parsing %s", filepath.Base(path))

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("PythonParser: parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	lines := strings.Split(string(content), "\n")
	relPath := relativeTo(p.projectRoot, path)

	var symbols []Symbol
	p.walk(tree.RootNode(), path, relPath, "", content, lines, &symbols)

	logging.ParserDebug("PythonParser: parsed %s - %d symbols in %v",
		filepath.Base(path), len(symbols), time.Since(start))
	return symbols, nil
}

func (p *PythonParser) walk(node *sitter.Node, absPath, relPath, parentRef string, content []byte, lines []string, symbols *[]Symbol) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "class_definition":
			sym := p.definition(child, KindClass, absPath, relPath, parentRef, content, lines)
			if sym != nil {
				*symbols = append(*symbols, *sym)
				if body := child.ChildByFieldName("body"); body != nil {
					p.walk(body, absPath, relPath, sym.Ref, content, lines, symbols)
				}
			}

		case "function_definition":
			kind := KindFunction
			if parentRef != "" {
				kind = KindMethod
			}
			if sym := p.definition(child, kind, absPath, relPath, parentRef, content, lines); sym != nil {
				*symbols = append(*symbols, *sym)
			}

		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			kind := KindFunction
			switch {
			case def.Type() == "class_definition":
				kind = KindClass
			case parentRef != "":
				kind = KindMethod
			}
			sym := p.definition(def, kind, absPath, relPath, parentRef, content, lines)
			if sym == nil {
				continue
			}
			// Widen the span to the wrapper so decorators land in the body.
			sym.StartLine = int(child.StartPoint().Row) + 1
			sym.Body = extractBody(lines, sym.StartLine, sym.EndLine)
			*symbols = append(*symbols, *sym)
			if kind == KindClass {
				if body := def.ChildByFieldName("body"); body != nil {
					p.walk(body, absPath, relPath, sym.Ref, content, lines, symbols)
				}
			}

		default:
			p.walk(child, absPath, relPath, parentRef, content, lines, symbols)
		}
	}
}

// definition extracts a class or function definition node.
func (p *PythonParser) definition(node *sitter.Node, kind Kind, absPath, relPath, parentRef string, content []byte, lines []string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := string(content[nameNode.StartByte():nameNode.EndByte()])
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("py:%s:%s", relPath, name)
	if parentRef != "" {
		parts := strings.Split(parentRef, ":")
		ref = fmt.Sprintf("py:%s:%s.%s", relPath, parts[len(parts)-1], name)
	}

	signature := ""
	if startLine > 0 && startLine <= len(lines) {
		signature = strings.TrimSpace(lines[startLine-1])
	}

	// Python convention: a leading underscore means private
	visibility := VisibilityPublic
	if strings.HasPrefix(name, "_") {
		visibility = VisibilityPrivate
	}

	return &Symbol{
		Ref:        ref,
		Kind:       kind,
		Name:       name,
		File:       absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(lines, startLine, endLine),
		Parent:     parentRef,
		Visibility: visibility,
		Language:   "py",
	}
}

// Annotations derives Python-specific annotations: async defs,
// decorators and dataclasses.
func (p *PythonParser) Annotations(symbols []Symbol) []Annotation {
	var anns []Annotation

	for _, sym := range symbols {
		switch sym.Kind {
		case KindFunction, KindMethod:
			if strings.HasPrefix(sym.Signature, "async def ") {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "py.async"})
			}
		}
		for _, dec := range pythonDecorators(sym.Body, sym.Signature) {
			anns = append(anns, Annotation{Ref: sym.Ref, Key: "py.decorator", Value: dec})
			if dec == "dataclass" && sym.Kind == KindClass {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "py.dataclass"})
			}
		}
	}

	return anns
}

// pythonDecorators extracts decorator names appearing before the
// definition line inside the symbol body.
func pythonDecorators(body, signature string) []string {
	var decorators []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == signature {
			break // Stop at the def/class line
		}
		if !strings.HasPrefix(trimmed, "@") {
			continue
		}
		dec := strings.TrimPrefix(trimmed, "@")
		if idx := strings.Index(dec, "("); idx > 0 {
			dec = dec[:idx]
		}
		decorators = append(decorators, strings.TrimSpace(dec))
	}
	return decorators
}
