// Package scopelib is the lexical-scope-correct rename backend: a local
// variable shadowing a module-level name of the same text is renamed
// independently. It needs a byte offset identifying which occurrence to
// rename; the offset is located from the request's target line with a ±2
// line tolerance, falling back to the first textual occurrence. That
// heuristic is a compatibility contract, not something to improve on.
package scopelib

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"resym/internal/astengine"
	"resym/internal/parser"
	"resym/internal/rename"
	"resym/internal/shared/util"
)

const lineTolerance = 2

var (
	ErrNotResolvable = errors.New("not a resolvable identifier at this location (supply a line number or use the ast engine)")
	ErrOutsideRoot   = errors.New("file lies outside the project root")
	ErrNoOccurrence  = errors.New("no occurrence of the old name found")
)

type Backend struct {
	loader *parser.GrammarLoader
	// Root is the detected project root. Empty disables the containment
	// check.
	Root string
}

func New(loader *parser.GrammarLoader, root string) *Backend {
	return &Backend{loader: loader, Root: root}
}

func (b *Backend) Kind() rename.EngineKind { return rename.EngineScope }

// Supports reports whether the scope resolver handles this file's language.
func (b *Backend) Supports(path string) bool {
	return parser.DetectLanguage(path) == "python"
}

func (b *Backend) Apply(_ context.Context, path string, content []byte, req *rename.Request) (*rename.Edit, error) {
	if !b.Supports(path) {
		return nil, fmt.Errorf("%w: %s", astengine.ErrUnsupportedLanguage, path)
	}
	if b.Root != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		if !util.HasPathPrefix(abs, b.Root) {
			return nil, fmt.Errorf("%w: %s not under %s", ErrOutsideRoot, path, b.Root)
		}
	}

	occurrences, _, err := astengine.AnalyzeScoped(b.loader, "python", content)
	if err != nil {
		return nil, err
	}

	target, err := locateTarget(occurrences, content, req)
	if err != nil {
		return nil, err
	}
	if target.Symbol == rename.KindAttribute || target.Symbol == rename.KindField || target.Symbol == rename.KindImport {
		return nil, fmt.Errorf("%w: %s at line %d", ErrNotResolvable, target.Name, target.Line)
	}

	binding := resolveBinding(target)
	if binding == nil {
		return nil, fmt.Errorf("%w: %s at line %d", ErrNotResolvable, target.Name, target.Line)
	}

	var bound []rename.Occurrence
	for _, occ := range occurrences {
		if occ.Name != req.OldName {
			continue
		}
		if occ.Symbol == rename.KindAttribute || occ.Symbol == rename.KindField || occ.Symbol == rename.KindImport {
			continue
		}
		if resolveBinding(occ) == binding {
			bound = append(bound, occ.Occurrence)
		}
	}
	if len(bound) == 0 {
		return nil, ErrNoOccurrence
	}

	return &rename.Edit{
		NewContent: astengine.Rewrite(content, bound, req.NewName),
		Changes:    len(bound),
	}, nil
}

// locateTarget finds the occurrence the rename is anchored on. With a target
// line, the closest occurrence within the tolerance wins; otherwise the
// first textual occurrence of the old name decides.
func locateTarget(occurrences []astengine.ScopedOccurrence, content []byte, req *rename.Request) (astengine.ScopedOccurrence, error) {
	if req.TargetLine > 0 {
		best := -1
		bestDist := lineTolerance + 1
		for i, occ := range occurrences {
			if occ.Name != req.OldName {
				continue
			}
			dist := occ.Line - req.TargetLine
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				bestDist = dist
				best = i
			}
		}
		if best >= 0 {
			return occurrences[best], nil
		}
	}

	offset := firstWordOffset(content, req.OldName)
	if offset < 0 {
		return astengine.ScopedOccurrence{}, fmt.Errorf("%w: %s", ErrNoOccurrence, req.OldName)
	}
	for _, occ := range occurrences {
		if occ.Name == req.OldName && occ.StartByte <= offset && offset < occ.EndByte {
			return occ, nil
		}
	}
	return astengine.ScopedOccurrence{}, fmt.Errorf("%w: offset %d", ErrNotResolvable, offset)
}

func firstWordOffset(content []byte, name string) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	loc := re.FindIndex(content)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// resolveBinding walks from the occurrence's scope outward to the scope that
// binds the name. Class bodies do not form an enclosing scope for the
// functions nested inside them, so they are skipped once we leave the
// starting scope. An unresolved name binds to the module scope.
func resolveBinding(occ astengine.ScopedOccurrence) *rename.ScopeNode {
	if occ.Kind == rename.OccDefinition {
		return occ.Scope
	}

	s := occ.Scope
	first := true
	var root *rename.ScopeNode
	for s != nil {
		root = s
		if first || s.Kind != "class" {
			if _, ok := s.Symbols[occ.Name]; ok {
				return s
			}
		}
		first = false
		s = s.Parent
	}
	return root
}

// DetectProjectRoot walks upward from path looking for a project marker.
// Without a marker the file's own directory is the root.
func DetectProjectRoot(path string) string {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return ""
	}
	for cur := dir; ; cur = filepath.Dir(cur) {
		for _, marker := range []string{".git", "pyproject.toml", "setup.py", "go.mod"} {
			if _, err := os.Stat(filepath.Join(cur, marker)); err == nil {
				return cur
			}
		}
		if filepath.Dir(cur) == cur {
			return dir
		}
	}
}
