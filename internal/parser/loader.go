package parser

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var ErrParseFailed = errors.New("parse failed")

type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		languages: map[string]*sitter.Language{
			"python":     sitter.NewLanguage(tree_sitter_python.Language()),
			"go":         sitter.NewLanguage(tree_sitter_go.Language()),
			"javascript": sitter.NewLanguage(tree_sitter_javascript.Language()),
			"typescript": sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			"java":       sitter.NewLanguage(tree_sitter_java.Language()),
			"rust":       sitter.NewLanguage(tree_sitter_rust.Language()),
		},
	}
}

func (gl *GrammarLoader) Language(name string) *sitter.Language {
	return gl.languages[name]
}

// Parse produces a syntax tree for content in the named language. The caller
// owns the returned tree and must Close it.
func (gl *GrammarLoader) Parse(lang string, content []byte) (*sitter.Tree, error) {
	grammar := gl.languages[lang]
	if grammar == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", lang)
	}

	p := sitter.NewParser()
	defer p.Close()
	_ = p.SetLanguage(grammar)

	tree := p.Parse(content, nil)
	if tree == nil {
		return nil, ErrParseFailed
	}
	return tree, nil
}

// Text returns node's source text.
func Text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// SameNode compares nodes by byte range, which is stable within one tree.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// FieldIs reports whether node occupies the named field of parent.
func FieldIs(parent *sitter.Node, field string, node *sitter.Node) bool {
	if parent == nil {
		return false
	}
	return SameNode(parent.ChildByFieldName(field), node)
}
