package rename

import (
	"errors"
	"testing"
)

func TestParseSymbolKind(t *testing.T) {
	cases := []struct {
		in   string
		want SymbolKind
		err  bool
	}{
		{"function", KindFunction, false},
		{" Variable ", KindVariable, false},
		{"", KindAny, false},
		{"any", KindAny, false},
		{"parameter", "", true},
		{"bogus", "", true},
	}
	for _, tc := range cases {
		got, err := ParseSymbolKind(tc.in)
		if tc.err {
			if err == nil {
				t.Errorf("ParseSymbolKind(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseSymbolKind(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestSymbolKindMatches(t *testing.T) {
	if !KindAny.Matches(KindImport) {
		t.Error("any must match every classification")
	}
	if !KindVariable.Matches(KindParameter) || !KindVariable.Matches(KindException) {
		t.Error("variable requests cover parameters and exception bindings")
	}
	if KindVariable.Matches(KindFunction) {
		t.Error("variable must not match functions")
	}
	if !KindField.Matches(KindAttribute) || !KindAttribute.Matches(KindField) {
		t.Error("field and attribute are interchangeable")
	}
	if KindClass.Matches(KindVariable) {
		t.Error("class must only match classes")
	}
}

func TestRequestValidate(t *testing.T) {
	valid := Request{Files: []string{"m.py"}, OldName: "a", NewName: "b"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	empty := valid
	empty.OldName = "  "
	if err := empty.Validate(); !errors.Is(err, ErrEmptyOldName) {
		t.Errorf("expected ErrEmptyOldName, got %v", err)
	}

	dotted := valid
	dotted.NewName = "pkg.name"
	if err := dotted.Validate(); !errors.Is(err, ErrBadIdentifier) {
		t.Errorf("expected ErrBadIdentifier, got %v", err)
	}

	noFiles := valid
	noFiles.Files = nil
	if err := noFiles.Validate(); !errors.Is(err, ErrNoFiles) {
		t.Errorf("expected ErrNoFiles, got %v", err)
	}
}

func TestAggregate(t *testing.T) {
	agg := Aggregate([]FileResult{
		{File: "a.py", Engine: EngineAST, Success: true, Modified: true, Changes: 2, Preview: "p1"},
		{File: "b.py", Engine: EngineAST, Success: true, Changes: 0},
		{File: "c.py", Engine: EngineText, Success: false, Err: "boom"},
	})

	if agg.Success {
		t.Error("one failed file must fail the aggregate")
	}
	if agg.ChangesCount != 2 {
		t.Errorf("changes = %d, want 2", agg.ChangesCount)
	}
	if len(agg.FilesModified) != 1 || agg.FilesModified[0] != "a.py" {
		t.Errorf("files modified = %v", agg.FilesModified)
	}
	if agg.EngineUsed != "ast,text" {
		t.Errorf("engine used = %q", agg.EngineUsed)
	}
	if agg.Error != "c.py: boom" {
		t.Errorf("error = %q", agg.Error)
	}
	if agg.Preview != "p1" {
		t.Errorf("preview = %q", agg.Preview)
	}
}

func TestScopeNodePath(t *testing.T) {
	module := &ScopeNode{Name: "module", Kind: "module"}
	outer := module.AddChild(&ScopeNode{Name: "Outer", Kind: "class"})
	helper := outer.AddChild(&ScopeNode{Name: "helper", Kind: "function"})

	if got := helper.Path(); got != "module.Outer.helper" {
		t.Errorf("path = %q", got)
	}

	module.Define("x", KindVariable)
	module.Define("x", KindFunction)
	if module.Symbols["x"] != KindVariable {
		t.Error("first classification must win")
	}
}
