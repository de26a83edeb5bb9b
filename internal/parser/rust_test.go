package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRustFixture(t *testing.T) ([]Symbol, []Annotation) {
	t.Helper()

	path := filepath.Join("testdata", "sample.rs")
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	p := NewRustParser(".")
	symbols, err := p.Parse(path, content)
	require.NoError(t, err)
	require.NotEmpty(t, symbols)

	return symbols, p.Annotations(symbols)
}

func symbolByRef(symbols []Symbol, ref string) *Symbol {
	for i := range symbols {
		if symbols[i].Ref == ref {
			return &symbols[i]
		}
	}
	return nil
}

func hasAnnotation(anns []Annotation, ref, key string) bool {
	for _, a := range anns {
		if a.Ref == ref && a.Key == key {
			return true
		}
	}
	return false
}

func TestRustParser_Functions(t *testing.T) {
	symbols, _ := parseRustFixture(t)

	t.Run("plain function", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:add")
		require.NotNil(t, sym)
		assert.Equal(t, KindFunction, sym.Kind)
		assert.Equal(t, "add", sym.Name)
		assert.Equal(t, 2, sym.StartLine)
		assert.Equal(t, 4, sym.EndLine)
		assert.Equal(t, "fn add(a: i32, b: i32) -> i32 {", sym.Signature)
		assert.Equal(t, VisibilityPrivate, sym.Visibility)
	})

	t.Run("generic function", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:print_value")
		require.NotNil(t, sym)
		assert.Equal(t, KindFunction, sym.Kind)
	})

	t.Run("lifetime function", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:longest")
		require.NotNil(t, sym)
		assert.Equal(t, KindFunction, sym.Kind)
	})

	t.Run("closure-taking function", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:apply_operation")
		require.NotNil(t, sym)
		assert.Equal(t, KindFunction, sym.Kind)
		// where clause spans lines, body ends at the closing brace
		assert.Equal(t, 58, sym.StartLine)
	})

	t.Run("main", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:main")
		require.NotNil(t, sym)
		assert.Contains(t, sym.Body, "Dog::new")
	})
}

func TestRustParser_TraitAndImpl(t *testing.T) {
	symbols, _ := parseRustFixture(t)

	t.Run("trait", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:Animal")
		require.NotNil(t, sym)
		assert.Equal(t, KindTrait, sym.Kind)
	})

	t.Run("trait method without body", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:Animal.make_sound")
		require.NotNil(t, sym)
		assert.Equal(t, KindMethod, sym.Kind)
		assert.Equal(t, "rs:testdata/sample.rs:Animal", sym.Parent)
	})

	t.Run("trait method with default body", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:Animal.default_behavior")
		require.NotNil(t, sym)
		assert.Equal(t, KindMethod, sym.Kind)
		assert.Contains(t, sym.Body, "some default behavior")
	})

	t.Run("struct", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:Dog")
		require.NotNil(t, sym)
		assert.Equal(t, KindStruct, sym.Kind)
	})

	t.Run("inherent impl methods", func(t *testing.T) {
		newSym := symbolByRef(symbols, "rs:testdata/sample.rs:Dog.new")
		require.NotNil(t, newSym)
		assert.Equal(t, KindMethod, newSym.Kind)
		assert.Equal(t, "rs:testdata/sample.rs:Dog", newSym.Parent)

		bark := symbolByRef(symbols, "rs:testdata/sample.rs:Dog.bark")
		require.NotNil(t, bark)
		assert.Contains(t, bark.Body, "Woof")
	})

	t.Run("trait impl method attaches to the type", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:testdata/sample.rs:Dog.make_sound")
		require.NotNil(t, sym)
		assert.Equal(t, KindMethod, sym.Kind)
		assert.Equal(t, "rs:testdata/sample.rs:Dog", sym.Parent)
	})
}

func TestRustParser_Annotations(t *testing.T) {
	symbols, anns := parseRustFixture(t)
	require.NotNil(t, symbols)

	t.Run("async", func(t *testing.T) {
		assert.True(t, hasAnnotation(anns, "rs:testdata/sample.rs:fetch_data", "rust.async"))
		assert.False(t, hasAnnotation(anns, "rs:testdata/sample.rs:add", "rust.async"))
	})

	t.Run("returns result", func(t *testing.T) {
		assert.True(t, hasAnnotation(anns, "rs:testdata/sample.rs:fetch_data", "rust.returns_result"))
		assert.False(t, hasAnnotation(anns, "rs:testdata/sample.rs:longest", "rust.returns_result"))
	})

	t.Run("generics and lifetimes", func(t *testing.T) {
		assert.True(t, hasAnnotation(anns, "rs:testdata/sample.rs:print_value", "rust.generic"))
		assert.True(t, hasAnnotation(anns, "rs:testdata/sample.rs:longest", "rust.generic"))
		assert.True(t, hasAnnotation(anns, "rs:testdata/sample.rs:apply_operation", "rust.generic"))
		assert.False(t, hasAnnotation(anns, "rs:testdata/sample.rs:add", "rust.generic"))
	})
}

func TestRustIsGeneric(t *testing.T) {
	cases := []struct {
		signature string
		want      bool
	}{
		{"fn add(a: i32, b: i32) -> i32 {", false},
		{"fn print_value<T: std::fmt::Display>(value: T) {", true},
		{"fn longest<'a>(x: &'a str, y: &'a str) -> &'a str {", true},
		{"async fn fetch_data() -> Result<String, std::io::Error> {", false},
		{"pub fn apply<F>(op: F) -> i32", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rustIsGeneric(tc.signature), tc.signature)
	}
}

func TestRustParser_DeriveAttributes(t *testing.T) {
	src := `#[derive(Debug, Clone)]
struct Point {
    x: i32,
    y: i32,
}

#[derive(Debug)]
#[non_exhaustive]
enum Shade {
    Light,
    Dark,
}
`
	p := NewRustParser(".")
	symbols, err := p.Parse("shapes.rs", []byte(src))
	require.NoError(t, err)
	anns := p.Annotations(symbols)

	t.Run("struct span includes its attributes", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:shapes.rs:Point")
		require.NotNil(t, sym)
		assert.Equal(t, 1, sym.StartLine)
		assert.Contains(t, sym.Body, "#[derive(Debug, Clone)]")
		assert.Equal(t, "struct Point {", sym.Signature)
	})

	t.Run("derive annotations fire", func(t *testing.T) {
		assert.Equal(t, []string{"Debug", "Clone"},
			annotationValues(anns, "rs:shapes.rs:Point", "rust.derive"))
		assert.Equal(t, []string{"Debug"},
			annotationValues(anns, "rs:shapes.rs:Shade", "rust.derive"))
	})

	t.Run("stacked attributes widen to the first", func(t *testing.T) {
		sym := symbolByRef(symbols, "rs:shapes.rs:Shade")
		require.NotNil(t, sym)
		assert.Equal(t, 7, sym.StartLine)
	})
}

func annotationValues(anns []Annotation, ref, key string) []string {
	var vals []string
	for _, a := range anns {
		if a.Ref == ref && a.Key == key {
			vals = append(vals, a.Value)
		}
	}
	return vals
}

func TestRustDerives(t *testing.T) {
	body := "#[derive(Debug, Clone, PartialEq)]\nstruct Point { x: i32, y: i32 }"
	assert.Equal(t, []string{"Debug", "Clone", "PartialEq"}, rustDerives(body))
	assert.Empty(t, rustDerives("struct Plain;"))
}
