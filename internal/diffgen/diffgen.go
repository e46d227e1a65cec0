// Package diffgen renders unified diffs for dry-run previews and logging.
package diffgen

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const contextLines = 3

// Unified returns a unified diff between oldText and newText, or "" when the
// texts are identical. Only (old, new) content is consumed; the paths label
// the header lines.
func Unified(path, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	lines := diffLines(oldText, newText)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", path)
	fmt.Fprintf(&b, "+++ %s\n", path)

	for _, h := range groupHunks(lines) {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)
		for _, ln := range lines[h.from:h.to] {
			b.WriteByte(ln.op)
			b.WriteString(ln.text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

type diffLine struct {
	op   byte // ' ', '-', '+'
	text string
}

func diffLines(oldText, newText string) []diffLine {
	dmp := diffmatchpatch.New()
	a, b, lineIndex := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineIndex)

	var out []diffLine
	for _, d := range diffs {
		op := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		}
		for _, text := range splitLines(d.Text) {
			out = append(out, diffLine{op: op, text: text})
		}
	}
	return out
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}

type hunk struct {
	from, to           int // index range into the line slice
	oldStart, oldCount int
	newStart, newCount int
}

// groupHunks clusters changed lines into hunks with surrounding context,
// merging hunks whose context windows touch.
func groupHunks(lines []diffLine) []hunk {
	var hunks []hunk
	n := len(lines)

	i := 0
	for i < n {
		if lines[i].op == ' ' {
			i++
			continue
		}

		from := i - contextLines
		if from < 0 {
			from = 0
		}
		to := i
		last := i
		for to < n {
			if lines[to].op != ' ' {
				last = to
				to++
				continue
			}
			// Stop once the equal run exceeds twice the context window.
			if to-last > 2*contextLines {
				break
			}
			to++
		}
		end := last + contextLines + 1
		if end > n {
			end = n
		}
		hunks = append(hunks, numberHunk(lines, from, end))
		i = end
	}
	return hunks
}

func numberHunk(lines []diffLine, from, to int) hunk {
	oldLine, newLine := 1, 1
	for _, ln := range lines[:from] {
		switch ln.op {
		case ' ':
			oldLine++
			newLine++
		case '-':
			oldLine++
		case '+':
			newLine++
		}
	}

	h := hunk{from: from, to: to, oldStart: oldLine, newStart: newLine}
	for _, ln := range lines[from:to] {
		switch ln.op {
		case ' ':
			h.oldCount++
			h.newCount++
		case '-':
			h.oldCount++
		case '+':
			h.newCount++
		}
	}
	if h.oldCount == 0 {
		h.oldStart--
	}
	if h.newCount == 0 {
		h.newStart--
	}
	return h
}
