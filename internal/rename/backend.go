package rename

import "context"

// Edit is a backend's proposed (or already applied) change to one file.
type Edit struct {
	// NewContent is the full post-rename file content. It is nil when the
	// backend applied the change itself (external parser process).
	NewContent []byte
	Changes    int
	// Preview carries a backend-supplied diff. When empty the caller
	// generates one from (old, new) content.
	Preview string
	// Applied marks edits the backend has already written to disk.
	Applied bool
}

// Backend is the single call signature all four rename strategies unify
// behind. A backend never writes the target file unless it sets Applied.
type Backend interface {
	Kind() EngineKind
	Apply(ctx context.Context, path string, content []byte, req *Request) (*Edit, error)
}
