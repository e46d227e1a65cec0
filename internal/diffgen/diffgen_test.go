package diffgen

import (
	"strings"
	"testing"
)

func TestUnifiedIdenticalTexts(t *testing.T) {
	if got := Unified("a.py", "x = 1\n", "x = 1\n"); got != "" {
		t.Errorf("expected empty diff, got %q", got)
	}
}

func TestUnifiedSingleLineChange(t *testing.T) {
	oldText := "def total(x):\n    return x\n\ny = total(5)\n"
	newText := "def sum_values(x):\n    return x\n\ny = sum_values(5)\n"

	got := Unified("calc.py", oldText, newText)

	if !strings.HasPrefix(got, "--- calc.py\n+++ calc.py\n") {
		t.Fatalf("missing header:\n%s", got)
	}
	for _, want := range []string{
		"-def total(x):",
		"+def sum_values(x):",
		"-y = total(5)",
		"+y = sum_values(5)",
	} {
		if !strings.Contains(got, want+"\n") {
			t.Errorf("diff missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(got, "@@ ") {
		t.Errorf("diff missing hunk header:\n%s", got)
	}
}

func TestUnifiedSeparatedChangesProduceTwoHunks(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 30; i++ {
		oldLines = append(oldLines, "line")
		newLines = append(newLines, "line")
	}
	oldLines[2] = "old-a"
	newLines[2] = "new-a"
	oldLines[25] = "old-b"
	newLines[25] = "new-b"

	got := Unified("f.txt", strings.Join(oldLines, "\n")+"\n", strings.Join(newLines, "\n")+"\n")

	if n := strings.Count(got, "@@ "); n != 2 {
		t.Errorf("expected 2 hunks, got %d:\n%s", n, got)
	}
}

func TestUnifiedHunkLineNumbers(t *testing.T) {
	oldText := "a\nb\nc\nd\ne\nf\ng\nold\ni\n"
	newText := "a\nb\nc\nd\ne\nf\ng\nnew\ni\n"

	got := Unified("f.txt", oldText, newText)

	if !strings.Contains(got, "@@ -5,5 +5,5 @@") {
		t.Errorf("unexpected hunk header:\n%s", got)
	}
}
