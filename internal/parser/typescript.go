package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"repolens/internal/logging"
)

// TypeScriptParser extracts symbols from TypeScript and JavaScript
// source files using Tree-sitter. The TypeScript grammar is a superset
// of JavaScript, so plain .js files route here too.
type TypeScriptParser struct {
	projectRoot string
	parser      *sitter.Parser
}

// NewTypeScriptParser creates a new TypeScript/JavaScript parser.
func NewTypeScriptParser(projectRoot string) *TypeScriptParser {
	p := sitter.NewParser()
	p.SetLanguage(typescript.GetLanguage())
	return &TypeScriptParser{
		projectRoot: projectRoot,
		parser:      p,
	}
}

// Language returns "ts" for Ref URI generation.
func (p *TypeScriptParser) Language() string {
	return "ts"
}

// SupportedExtensions returns the TypeScript/JavaScript extensions.
func (p *TypeScriptParser) SupportedExtensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs"}
}

// Parse extracts Symbols from TypeScript/JavaScript source.
func (p *TypeScriptParser) Parse(path string, content []byte) ([]Symbol, error) {
	start := time.Now()
	logging.ParserDebug("TypeScriptParser: parsing %s", filepath.Base(path))

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("TypeScriptParser: parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	w := &tsWalker{
		absPath: path,
		relPath: relativeTo(p.projectRoot, path),
		content: content,
		lines:   strings.Split(string(content), "\n"),
	}
	w.walk(tree.RootNode(), "", false)

	logging.ParserDebug("TypeScriptParser: parsed %s - %d symbols in %v",
		filepath.Base(path), len(w.symbols), time.Since(start))
	return w.symbols, nil
}

type tsWalker struct {
	absPath string
	relPath string
	content []byte
	lines   []string
	symbols []Symbol
}

func (w *tsWalker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *tsWalker) walk(node *sitter.Node, parentRef string, exported bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "export_statement":
			// Symbols inside an export statement are public.
			w.walk(child, parentRef, true)

		case "function_declaration", "generator_function_declaration":
			w.named(child, KindFunction, parentRef, exported)

		case "class_declaration", "abstract_class_declaration":
			sym := w.named(child, KindClass, parentRef, exported)
			if sym != nil {
				if body := child.ChildByFieldName("body"); body != nil {
					w.walk(body, sym.Ref, exported)
				}
			}

		case "method_definition":
			w.named(child, KindMethod, parentRef, exported)

		case "interface_declaration":
			w.named(child, KindInterface, parentRef, exported)

		case "enum_declaration":
			w.named(child, KindEnum, parentRef, exported)

		case "type_alias_declaration":
			w.named(child, KindTypeAlias, parentRef, exported)

		case "lexical_declaration", "variable_declaration":
			w.arrowFunctions(child, parentRef, exported)

		default:
			w.walk(child, parentRef, exported)
		}
	}
}

// named extracts a declaration node carrying a name field.
func (w *tsWalker) named(node *sitter.Node, kind Kind, parentRef string, exported bool) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return w.add(node, w.text(nameNode), kind, parentRef, exported)
}

// arrowFunctions extracts `const f = (...) => ...` declarations, the
// dominant function style in modern TS/JS codebases.
func (w *tsWalker) arrowFunctions(node *sitter.Node, parentRef string, exported bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		valueNode := decl.ChildByFieldName("value")
		nameNode := decl.ChildByFieldName("name")
		if valueNode == nil || nameNode == nil {
			continue
		}
		if valueNode.Type() != "arrow_function" && valueNode.Type() != "function_expression" {
			continue
		}
		w.add(node, w.text(nameNode), KindFunction, parentRef, exported)
	}
}

func (w *tsWalker) add(node *sitter.Node, name string, kind Kind, parentRef string, exported bool) *Symbol {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("ts:%s:%s", w.relPath, name)
	if parentRef != "" {
		parts := strings.Split(parentRef, ":")
		ref = fmt.Sprintf("ts:%s:%s.%s", w.relPath, parts[len(parts)-1], name)
	}

	signature := ""
	if startLine > 0 && startLine <= len(w.lines) {
		signature = strings.TrimSpace(w.lines[startLine-1])
	}

	visibility := VisibilityPrivate
	if exported {
		visibility = VisibilityPublic
	}

	w.symbols = append(w.symbols, Symbol{
		Ref:        ref,
		Kind:       kind,
		Name:       name,
		File:       w.absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(w.lines, startLine, endLine),
		Parent:     parentRef,
		Visibility: visibility,
		Language:   "ts",
	})
	return &w.symbols[len(w.symbols)-1]
}

// Annotations derives TypeScript-specific annotations: async functions,
// React components and generics.
func (p *TypeScriptParser) Annotations(symbols []Symbol) []Annotation {
	var anns []Annotation

	for _, sym := range symbols {
		switch sym.Kind {
		case KindFunction, KindMethod:
			if strings.Contains(sym.Signature, "async ") {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "ts.async"})
			}
			// Uppercase function returning JSX is almost certainly a component
			if len(sym.Name) > 0 && sym.Name[0] >= 'A' && sym.Name[0] <= 'Z' &&
				(strings.Contains(sym.Body, "return <") || strings.Contains(sym.Body, "=> <")) {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "ts.component"})
			}
		case KindClass:
			if strings.Contains(sym.Signature, "extends React.Component") ||
				strings.Contains(sym.Signature, "extends Component") {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "ts.component"})
			}
		}
	}

	return anns
}
