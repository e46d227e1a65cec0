// Package parser owns the tree-sitter grammar bindings and the language
// registry that maps file extensions to rename-capable languages.
package parser

import (
	"path/filepath"
	"strings"

	"resym/internal/shared/util"
)

type LanguageSpec struct {
	Name       string
	Extensions []string
	// IdentifierKinds lists the node kinds this grammar uses for renameable
	// identifier tokens.
	IdentifierKinds []string
	// Structured is false for languages that only get the text fallback.
	Structured bool
	// External marks languages handled by the out-of-process analyzer when
	// it is reachable.
	External bool
}

func DefaultRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		"python": {
			Name:            "python",
			Extensions:      []string{".py", ".pyi"},
			IdentifierKinds: []string{"identifier"},
			Structured:      true,
		},
		"go": {
			Name:            "go",
			Extensions:      []string{".go"},
			IdentifierKinds: []string{"identifier", "field_identifier", "type_identifier", "package_identifier"},
			Structured:      true,
			External:        true,
		},
		"javascript": {
			Name:            "javascript",
			Extensions:      []string{".js", ".cjs", ".mjs", ".jsx"},
			IdentifierKinds: []string{"identifier", "property_identifier", "shorthand_property_identifier"},
			Structured:      true,
		},
		"typescript": {
			Name:            "typescript",
			Extensions:      []string{".ts"},
			IdentifierKinds: []string{"identifier", "property_identifier", "shorthand_property_identifier", "type_identifier"},
			Structured:      true,
		},
		"java": {
			Name:            "java",
			Extensions:      []string{".java"},
			IdentifierKinds: []string{"identifier", "type_identifier"},
			Structured:      true,
		},
		"rust": {
			Name:            "rust",
			Extensions:      []string{".rs"},
			IdentifierKinds: []string{"identifier", "field_identifier", "type_identifier"},
			Structured:      true,
		},
	}
}

// DetectLanguage maps a file path to a registry language name, or "" for
// unrecognized extensions. Languages are checked in sorted order so the
// answer is stable should two specs ever claim the same extension.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	registry := DefaultRegistry()
	for _, name := range util.SortedStringKeys(registry) {
		for _, e := range registry[name].Extensions {
			if e == ext {
				return name
			}
		}
	}
	return ""
}

// IsIdentifierKind reports whether kind is an identifier token kind for the
// given language.
func IsIdentifierKind(lang, kind string) bool {
	spec, ok := DefaultRegistry()[lang]
	if !ok {
		return false
	}
	for _, k := range spec.IdentifierKinds {
		if k == kind {
			return true
		}
	}
	return false
}
