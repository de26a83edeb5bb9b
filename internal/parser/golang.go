package parser

import (
	"fmt"
	"go/ast"
	gparser "go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"time"

	"repolens/internal/logging"
)

// GoParser extracts symbols from Go source files using go/ast.
// No Tree-sitter grammar needed; the standard library parser is exact.
type GoParser struct {
	projectRoot string
}

// NewGoParser creates a new Go parser.
func NewGoParser(projectRoot string) *GoParser {
	return &GoParser{projectRoot: projectRoot}
}

// Language returns "go" for Ref URI generation.
func (p *GoParser) Language() string {
	return "go"
}

// SupportedExtensions returns [".go"].
func (p *GoParser) SupportedExtensions() []string {
	return []string{".go"}
}

// Parse extracts Symbols from Go source.
func (p *GoParser) Parse(path string, content []byte) ([]Symbol, error) {
	start := time.Now()
	logging.ParserDebug("GoParser: parsing %s", filepath.Base(path))

	fset := token.NewFileSet()
	file, err := gparser.ParseFile(fset, path, content, gparser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("go parse failed for %s: %w", path, err)
	}

	lines := strings.Split(string(content), "\n")
	relPath := relativeTo(p.projectRoot, path)

	var symbols []Symbol

	addSymbol := func(name string, kind Kind, parent string, node ast.Node) {
		startLine := fset.Position(node.Pos()).Line
		endLine := fset.Position(node.End()).Line

		ref := fmt.Sprintf("go:%s:%s", relPath, name)
		if parent != "" {
			parts := strings.Split(parent, ":")
			ref = fmt.Sprintf("go:%s:%s.%s", relPath, parts[len(parts)-1], name)
		}

		signature := ""
		if startLine > 0 && startLine <= len(lines) {
			signature = strings.TrimSpace(lines[startLine-1])
		}

		visibility := VisibilityPrivate
		if ast.IsExported(name) {
			visibility = VisibilityPublic
		}

		symbols = append(symbols, Symbol{
			Ref:        ref,
			Kind:       kind,
			Name:       name,
			File:       path,
			StartLine:  startLine,
			EndLine:    endLine,
			Signature:  signature,
			Body:       extractBody(lines, startLine, endLine),
			Parent:     parent,
			Visibility: visibility,
			Language:   "go",
		})
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil && len(d.Recv.List) > 0 {
				recvType := receiverTypeName(d.Recv.List[0].Type)
				parentRef := fmt.Sprintf("go:%s:%s", relPath, recvType)
				addSymbol(d.Name.Name, KindMethod, parentRef, d)
			} else {
				addSymbol(d.Name.Name, KindFunction, "", d)
			}

		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					switch s.Type.(type) {
					case *ast.StructType:
						addSymbol(s.Name.Name, KindStruct, "", d)
					case *ast.InterfaceType:
						addSymbol(s.Name.Name, KindInterface, "", d)
					default:
						addSymbol(s.Name.Name, KindTypeAlias, "", d)
					}
				case *ast.ValueSpec:
					kind := KindVar
					if d.Tok == token.CONST {
						kind = KindConst
					}
					for _, name := range s.Names {
						if name.Name == "_" {
							continue
						}
						addSymbol(name.Name, kind, "", d)
					}
				}
			}
		}
	}

	logging.ParserDebug("GoParser: parsed %s - %d symbols in %v",
		filepath.Base(path), len(symbols), time.Since(start))
	return symbols, nil
}

// receiverTypeName extracts the bare type name from a method receiver,
// unwrapping pointers and generic instantiations.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

// Annotations derives Go-specific annotations: goroutine launches,
// generics and error returns.
func (p *GoParser) Annotations(symbols []Symbol) []Annotation {
	var anns []Annotation

	for _, sym := range symbols {
		if sym.Kind != KindFunction && sym.Kind != KindMethod {
			continue
		}
		if strings.Contains(sym.Body, "go func(") {
			anns = append(anns, Annotation{Ref: sym.Ref, Key: "go.goroutine"})
		}
		if goIsGeneric(sym.Signature) {
			anns = append(anns, Annotation{Ref: sym.Ref, Key: "go.generic"})
		}
		if strings.Contains(sym.Signature, "error") {
			anns = append(anns, Annotation{Ref: sym.Ref, Key: "go.returns_error"})
		}
	}

	return anns
}

// goIsGeneric reports whether a func signature declares type parameters.
func goIsGeneric(signature string) bool {
	fnIdx := strings.Index(signature, "func ")
	if fnIdx < 0 {
		return false
	}
	rest := signature[fnIdx+5:]
	// Skip a method receiver if present
	if strings.HasPrefix(rest, "(") {
		if close := strings.Index(rest, ")"); close >= 0 {
			rest = strings.TrimSpace(rest[close+1:])
		}
	}
	parenIdx := strings.Index(rest, "(")
	bracketIdx := strings.Index(rest, "[")
	return bracketIdx >= 0 && (parenIdx < 0 || bracketIdx < parenIdx)
}
