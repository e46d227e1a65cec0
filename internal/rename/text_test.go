package rename

import (
	"context"
	"testing"
)

func TestTextBackendWholeWord(t *testing.T) {
	content := []byte("count = 1\ncounter = count + account\n")
	req := &Request{OldName: "count", NewName: "total"}

	edit, err := TextBackend{}.Apply(context.Background(), "m.py", content, req)
	if err != nil {
		t.Fatal(err)
	}

	want := "total = 1\ncounter = total + account\n"
	if string(edit.NewContent) != want {
		t.Errorf("got:\n%s", edit.NewContent)
	}
	if edit.Changes != 2 {
		t.Errorf("changes = %d, want 2", edit.Changes)
	}
}

func TestTextBackendNoMatchesIsSuccess(t *testing.T) {
	edit, err := TextBackend{}.Apply(context.Background(), "m.py", []byte("a = 1\n"), &Request{OldName: "missing", NewName: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if edit.Changes != 0 || string(edit.NewContent) != "a = 1\n" {
		t.Errorf("unexpected edit: %+v", edit)
	}
}

func TestReplaceOnLine(t *testing.T) {
	content := []byte("x = 1\nx = x + 1\nx = 3\n")

	out, n := ReplaceOnLine(content, 2, "x", "y")
	if n != 2 {
		t.Errorf("replacements = %d, want 2", n)
	}
	if string(out) != "x = 1\ny = y + 1\nx = 3\n" {
		t.Errorf("got:\n%s", out)
	}
}

func TestReplaceOnLineEmptyOldIsNoOp(t *testing.T) {
	content := []byte("value = use(value)\n")
	out, n := ReplaceOnLine(content, 1, "", "result")
	if n != 0 || string(out) != string(content) {
		t.Errorf("empty pattern must not match, got %d %q", n, out)
	}
}

func TestReplaceOnLineOutOfRange(t *testing.T) {
	content := []byte("x = 1\n")
	out, n := ReplaceOnLine(content, 9, "x", "y")
	if n != 0 || string(out) != "x = 1\n" {
		t.Errorf("out-of-range line must be a no-op, got %d %q", n, out)
	}
}

func TestReplaceOnLineLastLineWithoutNewline(t *testing.T) {
	content := []byte("a = 1\nb = a")
	out, n := ReplaceOnLine(content, 2, "a", "z")
	if n != 1 || string(out) != "a = 1\nb = z" {
		t.Errorf("got %d %q", n, out)
	}
}
