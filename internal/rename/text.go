package rename

import (
	"context"
	"regexp"
)

// TextBackend is the last-resort strategy: whole-word regex substitution
// with no scope awareness. Zero matches is still success.
type TextBackend struct{}

func (TextBackend) Kind() EngineKind { return EngineText }

func (TextBackend) Apply(_ context.Context, _ string, content []byte, req *Request) (*Edit, error) {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(req.OldName) + `\b`)
	if err != nil {
		return nil, err
	}

	matches := re.FindAllIndex(content, -1)
	if len(matches) == 0 {
		return &Edit{NewContent: content, Changes: 0}, nil
	}

	return &Edit{
		NewContent: re.ReplaceAll(content, []byte(req.NewName)),
		Changes:    len(matches),
	}, nil
}

// ReplaceOnLine substitutes whole-word occurrences of old with new on a
// single 1-based line, leaving every other line byte-identical. Used for
// located-match renames where the search collaborator already scoped the hit.
func ReplaceOnLine(content []byte, line int, old, new string) ([]byte, int) {
	// An empty pattern would match at every word boundary.
	if old == "" {
		return content, 0
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(old) + `\b`)

	start := 0
	current := 1
	for current < line {
		next := indexByte(content, start, '\n')
		if next < 0 {
			return content, 0
		}
		start = next + 1
		current++
	}
	end := indexByte(content, start, '\n')
	if end < 0 {
		end = len(content)
	}

	segment := content[start:end]
	matches := re.FindAllIndex(segment, -1)
	if len(matches) == 0 {
		return content, 0
	}

	replaced := re.ReplaceAll(segment, []byte(new))
	out := make([]byte, 0, len(content)-len(segment)+len(replaced))
	out = append(out, content[:start]...)
	out = append(out, replaced...)
	out = append(out, content[end:]...)
	return out, len(matches)
}

func indexByte(b []byte, from int, c byte) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}
