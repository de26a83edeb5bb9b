package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Routing(t *testing.T) {
	reg := DefaultRegistry(".")

	t.Run("supported extensions route to a parser", func(t *testing.T) {
		assert.True(t, reg.Supports("main.go"))
		assert.True(t, reg.Supports("lib.rs"))
		assert.True(t, reg.Supports("app.py"))
		assert.True(t, reg.Supports("index.ts"))
		assert.True(t, reg.Supports("widget.TSX")) // Case-insensitive
		assert.True(t, reg.Supports("README.md"))
	})

	t.Run("unsupported extensions do not", func(t *testing.T) {
		assert.False(t, reg.Supports("data.csv"))
		assert.False(t, reg.Supports("Makefile"))
	})

	t.Run("parse errors for unregistered extension", func(t *testing.T) {
		_, err := reg.Parse("data.csv", []byte("a,b,c"))
		assert.Error(t, err)

		_, _, err = reg.ParseWithAnnotations("data.csv", []byte("a,b,c"))
		assert.Error(t, err)
	})

	t.Run("languages", func(t *testing.T) {
		langs := reg.Languages()
		assert.ElementsMatch(t, []string{"go", "rs", "py", "ts", "md"}, langs)
	})
}

func TestRegistry_ParseWithAnnotations(t *testing.T) {
	reg := DefaultRegistry(".")

	symbols, anns, err := reg.ParseWithAnnotations("tiny.go", []byte("package p\n\nfunc Do() error { return nil }\n"))
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Do", symbols[0].Name)
	assert.True(t, hasAnnotation(anns, "go:tiny.go:Do", "go.returns_error"))
}

func TestRegistry_ReplacesRegistration(t *testing.T) {
	reg := NewRegistry(".")
	reg.Register(NewGoParser("."))
	first := reg.Lookup("x.go")
	require.NotNil(t, first)

	reg.Register(NewGoParser("."))
	assert.NotSame(t, first, reg.Lookup("x.go"))
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"main.go":      "go",
		"lib.rs":       "rs",
		"app.py":       "py",
		"index.tsx":    "ts",
		"style.css":    "css",
		"Dockerfile":   "dockerfile",
		"Makefile":     "make",
		"mystery.xyz":  "unknown",
		"no_extension": "unknown",
	}
	for path, want := range cases {
		assert.Equal(t, want, DetectLanguage(path), path)
	}
}
