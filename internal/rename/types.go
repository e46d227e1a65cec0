// Package rename defines the request/result types shared by every rename
// backend, plus the backend contract itself.
package rename

import (
	"errors"
	"fmt"
	"strings"

	"resym/internal/shared/util"
)

// SymbolKind narrows which occurrences a backend may touch. KindAny disables
// the filter.
type SymbolKind string

const (
	KindVariable  SymbolKind = "variable"
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindField     SymbolKind = "field"
	KindAttribute SymbolKind = "attribute"
	KindAny       SymbolKind = "any"

	// Structural classifications produced by analyzers. They are matched
	// through the request kinds above, not requested directly.
	KindParameter SymbolKind = "parameter"
	KindImport    SymbolKind = "import"
	KindException SymbolKind = "exception"
)

func ParseSymbolKind(value string) (SymbolKind, error) {
	switch SymbolKind(strings.ToLower(strings.TrimSpace(value))) {
	case KindVariable:
		return KindVariable, nil
	case KindFunction:
		return KindFunction, nil
	case KindClass:
		return KindClass, nil
	case KindField:
		return KindField, nil
	case KindAttribute:
		return KindAttribute, nil
	case KindAny, "":
		return KindAny, nil
	}
	return "", fmt.Errorf("unknown symbol kind %q (want variable|function|class|field|attribute|any)", value)
}

// Matches reports whether an occurrence classified as occ is eligible under
// the requested kind k.
func (k SymbolKind) Matches(occ SymbolKind) bool {
	switch k {
	case KindAny:
		return true
	case KindVariable:
		return occ == KindVariable || occ == KindParameter || occ == KindException
	case KindField, KindAttribute:
		return occ == KindField || occ == KindAttribute
	default:
		return k == occ
	}
}

// EngineKind names one of the pluggable rename strategies.
type EngineKind string

const (
	EngineAuto      EngineKind = "auto"
	EngineAST       EngineKind = "ast"
	EngineScope     EngineKind = "scope-library"
	EngineExtParser EngineKind = "external-parser"
	EngineText      EngineKind = "text"
)

func ParseEngineKind(value string) (EngineKind, error) {
	switch EngineKind(strings.ToLower(strings.TrimSpace(value))) {
	case EngineAuto, "":
		return EngineAuto, nil
	case EngineAST:
		return EngineAST, nil
	case EngineScope:
		return EngineScope, nil
	case EngineExtParser:
		return EngineExtParser, nil
	case EngineText:
		return EngineText, nil
	}
	return "", fmt.Errorf("unknown engine %q (want auto|ast|scope-library|external-parser|text)", value)
}

type OccurrenceKind string

const (
	OccDefinition OccurrenceKind = "definition"
	OccReference  OccurrenceKind = "reference"
	OccImport     OccurrenceKind = "import"
)

// Occurrence is a single identifier appearance with location and
// enclosing-scope metadata. Produced by analyzers, consumed by transformers,
// never persisted.
type Occurrence struct {
	Kind        OccurrenceKind
	Symbol      SymbolKind
	Name        string
	Line        int // 1-based
	ColumnStart int // 1-based
	ColumnEnd   int
	StartByte   int
	EndByte     int
	ScopePath   string // dotted, e.g. "module.Outer.helper"
}

// ScopeNode is one node of a per-file scope tree rooted at the module. The
// parent pointer is a non-owning back-reference; children are owned.
type ScopeNode struct {
	Name      string                `json:"name"`
	Kind      string                `json:"kind"` // module|class|function|lambda|comprehension
	StartLine int                   `json:"start_line"`
	EndLine   int                   `json:"end_line"`
	Parent    *ScopeNode            `json:"-"`
	Children  []*ScopeNode          `json:"children,omitempty"`
	Symbols   map[string]SymbolKind `json:"symbols,omitempty"`
}

// AddChild appends a child scope and wires its back-reference.
func (s *ScopeNode) AddChild(child *ScopeNode) *ScopeNode {
	child.Parent = s
	s.Children = append(s.Children, child)
	return child
}

// Define records a symbol in this scope, keeping the first classification.
func (s *ScopeNode) Define(name string, kind SymbolKind) {
	if s.Symbols == nil {
		s.Symbols = make(map[string]SymbolKind)
	}
	if _, ok := s.Symbols[name]; !ok {
		s.Symbols[name] = kind
	}
}

// Path returns the dotted scope path from the root to this node.
func (s *ScopeNode) Path() string {
	if s.Parent == nil {
		return s.Name
	}
	return s.Parent.Path() + "." + s.Name
}

// Request describes one rename invocation. It is constructed by the CLI
// layer and read-only afterwards.
type Request struct {
	Files      []string
	OldName    string
	NewName    string
	Kind       SymbolKind
	ScopePath  string
	TargetLine int // 0 = not supplied
	DryRun     bool
	Engine     EngineKind
}

var (
	ErrEmptyOldName  = errors.New("old name must not be empty")
	ErrBadIdentifier = errors.New("name is not a bare identifier")
	ErrNoFiles       = errors.New("no files supplied")
)

// Validate rejects request-level problems before any file is touched.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.OldName) == "" {
		return ErrEmptyOldName
	}
	if !util.IsBareIdentifier(r.OldName) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, r.OldName)
	}
	if !util.IsBareIdentifier(r.NewName) {
		return fmt.Errorf("%w: %q", ErrBadIdentifier, r.NewName)
	}
	if len(r.Files) == 0 {
		return ErrNoFiles
	}
	return nil
}

// FileResult is the per-file slot of an aggregate result.
type FileResult struct {
	File     string
	Engine   EngineKind
	Success  bool
	Modified bool
	Changes  int
	Preview  string
	Err      string
}

// RefactorResult is the only object returned across the component boundary.
// It is immutable once constructed.
type RefactorResult struct {
	Success       bool
	FilesModified []string
	ChangesCount  int
	Error         string
	Preview       string
	EngineUsed    string
	PerFile       []FileResult
}

// Aggregate folds per-file results into a RefactorResult. Engines used are
// joined when a batch mixed backends.
func Aggregate(results []FileResult) RefactorResult {
	agg := RefactorResult{Success: true, PerFile: results}

	var previews []string
	engines := make([]string, 0, 2)
	seen := make(map[EngineKind]bool)
	var failures []string

	for _, r := range results {
		if r.Engine != "" && !seen[r.Engine] {
			seen[r.Engine] = true
			engines = append(engines, string(r.Engine))
		}
		if !r.Success {
			agg.Success = false
			failures = append(failures, fmt.Sprintf("%s: %s", r.File, r.Err))
			continue
		}
		agg.ChangesCount += r.Changes
		if r.Modified || r.Changes > 0 {
			agg.FilesModified = append(agg.FilesModified, r.File)
		}
		if r.Preview != "" {
			previews = append(previews, r.Preview)
		}
	}

	agg.EngineUsed = strings.Join(engines, ",")
	agg.Preview = strings.Join(previews, "")
	agg.Error = strings.Join(failures, "; ")
	return agg
}
