package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"repolens/internal/logging"
)

// RustParser extracts symbols from Rust source files using Tree-sitter.
type RustParser struct {
	projectRoot string
	parser      *sitter.Parser
}

// NewRustParser creates a new Rust parser.
func NewRustParser(projectRoot string) *RustParser {
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	return &RustParser{
		projectRoot: projectRoot,
		parser:      p,
	}
}

// Language returns "rs" for Ref URI generation.
func (p *RustParser) Language() string {
	return "rs"
}

// SupportedExtensions returns [".rs"].
func (p *RustParser) SupportedExtensions() []string {
	return []string{".rs"}
}

// Parse extracts Symbols from Rust source.
func (p *RustParser) Parse(path string, content []byte) ([]Symbol, error) {
	start := time.Now()
	logging.ParserDebug("RustParser: parsing %s", filepath.Base(path))

	tree, err := p.parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("RustParser: parse failed: %s - %v", path, err)
		return nil, err
	}
	defer tree.Close()

	w := &rustWalker{
		parser:   p,
		absPath:  path,
		relPath:  relativeTo(p.projectRoot, path),
		content:  content,
		lines:    strings.Split(string(content), "\n"),
		typeRefs: make(map[string]string),
	}
	w.walk(tree.RootNode(), "")

	logging.ParserDebug("RustParser: parsed %s - %d symbols in %v",
		filepath.Base(path), len(w.symbols), time.Since(start))
	return w.symbols, nil
}

// rustWalker carries per-file state while walking the AST.
type rustWalker struct {
	parser   *RustParser
	absPath  string
	relPath  string
	content  []byte
	lines    []string
	typeRefs map[string]string // type name -> ref, for impl block linking
	symbols  []Symbol
}

func (w *rustWalker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *rustWalker) visibility(n *sitter.Node) Visibility {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "visibility_modifier" && strings.HasPrefix(w.text(child), "pub") {
			return VisibilityPublic
		}
	}
	return VisibilityPrivate
}

// walk recursively extracts symbols from named children of node.
func (w *rustWalker) walk(node *sitter.Node, parentRef string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "struct_item":
			if sym := w.item(child, KindStruct, parentRef); sym != nil {
				w.widenToAttributes(child, sym)
				w.typeRefs[sym.Name] = sym.Ref
			}
		case "enum_item":
			if sym := w.item(child, KindEnum, parentRef); sym != nil {
				w.widenToAttributes(child, sym)
				w.typeRefs[sym.Name] = sym.Ref
			}
		case "trait_item":
			if sym := w.item(child, KindTrait, parentRef); sym != nil {
				if body := child.ChildByFieldName("body"); body != nil {
					w.walk(body, sym.Ref)
				}
			}
		case "function_item", "function_signature_item":
			kind := KindFunction
			if parentRef != "" {
				kind = KindMethod
			}
			w.item(child, kind, parentRef)
		case "impl_item":
			w.implBlock(child)
		case "mod_item":
			if sym := w.item(child, KindModule, parentRef); sym != nil {
				if body := child.ChildByFieldName("body"); body != nil {
					w.walk(body, sym.Ref)
				}
			}
		case "const_item":
			w.item(child, KindConst, parentRef)
		case "static_item":
			w.item(child, KindVar, parentRef)
		case "type_item":
			w.item(child, KindTypeAlias, parentRef)
		default:
			w.walk(child, parentRef)
		}
	}
}

// item extracts a single named item node and records it.
func (w *rustWalker) item(node *sitter.Node, kind Kind, parentRef string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	name := w.text(nameNode)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	ref := fmt.Sprintf("rs:%s:%s", w.relPath, name)
	if parentRef != "" {
		parts := strings.Split(parentRef, ":")
		ref = fmt.Sprintf("rs:%s:%s.%s", w.relPath, parts[len(parts)-1], name)
	}

	signature := ""
	if startLine > 0 && startLine <= len(w.lines) {
		signature = strings.TrimSpace(w.lines[startLine-1])
	}

	sym := Symbol{
		Ref:        ref,
		Kind:       kind,
		Name:       name,
		File:       w.absPath,
		StartLine:  startLine,
		EndLine:    endLine,
		Signature:  signature,
		Body:       extractBody(w.lines, startLine, endLine),
		Parent:     parentRef,
		Visibility: w.visibility(node),
		Language:   "rs",
	}
	w.symbols = append(w.symbols, sym)
	return &w.symbols[len(w.symbols)-1]
}

// widenToAttributes pulls preceding #[...] attribute siblings into the
// symbol span. The grammar parses attributes as siblings of the item
// they decorate, so without this a derive never lands in the body.
func (w *rustWalker) widenToAttributes(node *sitter.Node, sym *Symbol) {
	start := sym.StartLine
	for prev := node.PrevNamedSibling(); prev != nil && prev.Type() == "attribute_item"; prev = prev.PrevNamedSibling() {
		start = int(prev.StartPoint().Row) + 1
	}
	if start != sym.StartLine {
		sym.StartLine = start
		sym.Body = extractBody(w.lines, start, sym.EndLine)
	}
}

// implBlock extracts methods from an impl block, linking them to the
// implemented type.
func (w *rustWalker) implBlock(node *sitter.Node) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}

	typeName := w.text(typeNode)
	// Strip generic parameters: "Wrapper<T>" -> "Wrapper"
	if idx := strings.Index(typeName, "<"); idx > 0 {
		typeName = typeName[:idx]
	}

	parentRef, ok := w.typeRefs[typeName]
	if !ok {
		parentRef = fmt.Sprintf("rs:%s:%s", w.relPath, typeName)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "function_item" {
			continue
		}
		if sym := w.item(child, KindMethod, parentRef); sym != nil {
			sym.Ref = fmt.Sprintf("rs:%s:%s.%s", w.relPath, typeName, sym.Name)
			sym.Parent = parentRef
		}
	}
}

// Annotations derives Rust-specific annotations: async fns, generics,
// derives, Result returns and unsafe blocks.
func (p *RustParser) Annotations(symbols []Symbol) []Annotation {
	var anns []Annotation

	for _, sym := range symbols {
		switch sym.Kind {
		case KindStruct, KindEnum:
			for _, derive := range rustDerives(sym.Body) {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "rust.derive", Value: derive})
			}

		case KindFunction, KindMethod:
			if strings.HasPrefix(sym.Signature, "async ") || strings.Contains(sym.Signature, " async ") {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "rust.async"})
			}
			if rustIsGeneric(sym.Signature) {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "rust.generic"})
			}
			if strings.Contains(sym.Signature, "-> Result<") {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "rust.returns_result"})
			}
			if strings.Contains(sym.Body, "unsafe {") || strings.HasPrefix(sym.Signature, "unsafe ") {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "rust.unsafe"})
			}
			if strings.Contains(sym.Body, ".unwrap()") || strings.Contains(sym.Body, ".expect(") {
				anns = append(anns, Annotation{Ref: sym.Ref, Key: "rust.uses_unwrap"})
			}
		}
	}

	return anns
}

// rustIsGeneric reports whether a fn signature declares type parameters,
// e.g. "fn print_value<T: Display>(value: T)" or lifetime params.
func rustIsGeneric(signature string) bool {
	fnIdx := strings.Index(signature, "fn ")
	if fnIdx < 0 {
		return false
	}
	rest := signature[fnIdx+3:]
	parenIdx := strings.Index(rest, "(")
	angleIdx := strings.Index(rest, "<")
	return angleIdx >= 0 && (parenIdx < 0 || angleIdx < parenIdx)
}

// rustDerives extracts derive macro names from a struct/enum body.
func rustDerives(body string) []string {
	var derives []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#[derive(") {
			continue
		}
		start := strings.Index(trimmed, "(")
		end := strings.LastIndex(trimmed, ")")
		if start < 0 || end <= start {
			continue
		}
		for _, part := range strings.Split(trimmed[start+1:end], ",") {
			if derive := strings.TrimSpace(part); derive != "" {
				derives = append(derives, derive)
			}
		}
	}
	return derives
}
