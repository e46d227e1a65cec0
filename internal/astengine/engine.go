package astengine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"resym/internal/parser"
	"resym/internal/rename"
)

// Engine is the in-process syntactic rename backend.
type Engine struct {
	loader *parser.GrammarLoader
}

func New(loader *parser.GrammarLoader) *Engine {
	return &Engine{loader: loader}
}

func (e *Engine) Kind() rename.EngineKind { return rename.EngineAST }

// Supports reports whether path maps to a grammar this engine can rewrite.
func (e *Engine) Supports(path string) bool {
	lang := parser.DetectLanguage(path)
	if lang == "" {
		return false
	}
	_, ok := rulesFor(lang)
	return ok && e.loader.Language(lang) != nil
}

func (e *Engine) Apply(_ context.Context, path string, content []byte, req *rename.Request) (*rename.Edit, error) {
	lang := parser.DetectLanguage(path)
	if lang == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}

	occurrences, _, err := Analyze(e.loader, lang, content)
	if err != nil {
		return nil, err
	}

	eligible := Eligible(occurrences, req)
	if len(eligible) == 0 {
		return &rename.Edit{NewContent: content, Changes: 0}, nil
	}

	return &rename.Edit{
		NewContent: Rewrite(content, eligible, req.NewName),
		Changes:    len(eligible),
	}, nil
}

// Eligible filters occurrences down to those the request allows the backend
// to touch: name equality, symbol-kind match, optional scope-path restriction.
func Eligible(occurrences []rename.Occurrence, req *rename.Request) []rename.Occurrence {
	var out []rename.Occurrence
	for _, occ := range occurrences {
		if occ.Name != req.OldName {
			continue
		}
		if !req.Kind.Matches(occ.Symbol) {
			continue
		}
		if req.ScopePath != "" && !scopeWithin(occ.ScopePath, req.ScopePath) {
			continue
		}
		out = append(out, occ)
	}
	return out
}

func scopeWithin(occPath, wanted string) bool {
	return occPath == wanted || strings.HasPrefix(occPath, wanted+".") || strings.HasSuffix(occPath, "."+wanted) || strings.Contains(occPath, "."+wanted+".")
}

// Rewrite splices newName over each occurrence's byte range, back to front so
// earlier ranges stay valid. Non-listed bytes are left identical.
func Rewrite(content []byte, occurrences []rename.Occurrence, newName string) []byte {
	sorted := make([]rename.Occurrence, len(occurrences))
	copy(sorted, occurrences)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartByte > sorted[j].StartByte })

	out := append([]byte(nil), content...)
	for _, occ := range sorted {
		if occ.StartByte < 0 || occ.EndByte > len(out) || occ.StartByte > occ.EndByte {
			continue
		}
		out = append(out[:occ.StartByte], append([]byte(newName), out[occ.EndByte:]...)...)
	}
	return out
}
