// Package astengine implements syntactic rename: a tree-sitter walk that
// maintains an explicit scope stack, classifies every identifier occurrence
// by structural kind, and rewrites eligible occurrences in a single pass.
// It does not do lexical-scope disambiguation; that precision lives in the
// scopelib backend.
package astengine

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"resym/internal/parser"
	"resym/internal/rename"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSyntax              = errors.New("syntax error")
)

// ScopedOccurrence pairs an occurrence with the scope node it was recorded
// in, for callers that need binding resolution rather than path strings.
type ScopedOccurrence struct {
	rename.Occurrence
	Scope *rename.ScopeNode
}

// Analyze parses content and returns every identifier occurrence along with
// the file's scope tree. Occurrence lists and scope trees are per-call and
// never cached.
func Analyze(loader *parser.GrammarLoader, lang string, content []byte) ([]rename.Occurrence, *rename.ScopeNode, error) {
	scoped, root, err := AnalyzeScoped(loader, lang, content)
	if err != nil {
		return nil, nil, err
	}
	occurrences := make([]rename.Occurrence, len(scoped))
	for i, s := range scoped {
		occurrences[i] = s.Occurrence
	}
	return occurrences, root, nil
}

// AnalyzeScoped is Analyze with scope-node back-references preserved.
func AnalyzeScoped(loader *parser.GrammarLoader, lang string, content []byte) ([]ScopedOccurrence, *rename.ScopeNode, error) {
	rules, ok := rulesFor(lang)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	tree, err := loader.Parse(lang, content)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, nil, fmt.Errorf("%w in %s source", ErrSyntax, lang)
	}

	rootScope := &rename.ScopeNode{
		Name:      "module",
		Kind:      "module",
		StartLine: 1,
		EndLine:   int(root.EndPosition().Row) + 1,
	}

	w := &walker{lang: lang, rules: rules, source: content}
	w.walk(root, rootScope, nil)
	return w.occurrences, rootScope, nil
}

type walker struct {
	lang        string
	rules       langRules
	source      []byte
	occurrences []ScopedOccurrence
}

func (w *walker) walk(n *sitter.Node, scope *rename.ScopeNode, scopeOpener *sitter.Node) {
	cur, opener := scope, scopeOpener

	if kind, ok := w.rules.scopeKinds[n.Kind()]; ok && n.Parent() != nil {
		child := scope.AddChild(&rename.ScopeNode{
			Name:      scopeName(n, w.source),
			Kind:      kind,
			StartLine: int(n.StartPosition().Row) + 1,
			EndLine:   int(n.EndPosition().Row) + 1,
		})
		cur, opener = child, n
	}

	if parser.IsIdentifierKind(w.lang, n.Kind()) {
		w.record(n, cur, opener)
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		w.walk(n.Child(i), cur, opener)
	}
}

func (w *walker) record(n *sitter.Node, scope *rename.ScopeNode, opener *sitter.Node) {
	occKind, symKind := w.rules.classify(n, w.source)

	// The name of a function or class belongs to the scope that encloses
	// the definition, not to the scope the definition opens.
	target := scope
	if opener != nil && parser.SameNode(n.Parent(), opener) && parser.FieldIs(opener, "name", n) {
		if scope.Parent != nil {
			target = scope.Parent
		}
	}

	name := parser.Text(n, w.source)
	if occKind == rename.OccDefinition {
		target.Define(name, symKind)
	}

	w.occurrences = append(w.occurrences, ScopedOccurrence{
		Occurrence: rename.Occurrence{
			Kind:        occKind,
			Symbol:      symKind,
			Name:        name,
			Line:        int(n.StartPosition().Row) + 1,
			ColumnStart: int(n.StartPosition().Column) + 1,
			ColumnEnd:   int(n.EndPosition().Column) + 1,
			StartByte:   int(n.StartByte()),
			EndByte:     int(n.EndByte()),
			ScopePath:   target.Path(),
		},
		Scope: target,
	})
}

func scopeName(n *sitter.Node, source []byte) string {
	for _, field := range []string{"name", "type"} {
		if named := n.ChildByFieldName(field); named != nil {
			return parser.Text(named, source)
		}
	}
	return "<" + n.Kind() + ">"
}
