// # cmd/gosym/main.go
//
// gosym is the out-of-process Go analyzer. It speaks a small flag + JSON
// protocol on stdout so the rename orchestrator can drive it without linking
// the Go grammar into its own process.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"resym/internal/astengine"
	"resym/internal/diffgen"
	"resym/internal/fsio"
	"resym/internal/parser"
	"resym/internal/rename"
)

var (
	file     = flag.String("file", "", "Go source file to operate on")
	oldName  = flag.String("old", "", "Identifier to rename")
	newName  = flag.String("new", "", "Replacement identifier")
	kindFlag = flag.String("type", "any", "Symbol kind filter (variable|function|class|field|attribute|any)")
	dryRun   = flag.Bool("dry-run", false, "Report changes without writing the file")
	analyze  = flag.Bool("analyze", false, "Print the file's scope tree as JSON and exit")
	version  = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

type summary struct {
	Success bool   `json:"success"`
	Changes int    `json:"changes"`
	Preview string `json:"preview,omitempty"`
	Error   string `json:"error,omitempty"`
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("gosym v%s\n", VERSION)
		os.Exit(0)
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(2)
	}

	if *analyze {
		if err := runAnalyze(*file); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := runRename(); err != nil {
		// Domain failures still produce a machine-readable record, but the
		// process signals them the usual way: non-zero exit, stderr diagnostic.
		emit(summary{Success: false, Error: err.Error()})
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAnalyze(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	_, root, err := astengine.Analyze(parser.NewGrammarLoader(), "go", content)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(root)
}

func runRename() error {
	if *oldName == "" || *newName == "" {
		return fmt.Errorf("--old and --new are required")
	}
	kind, err := rename.ParseSymbolKind(*kindFlag)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	req := &rename.Request{
		Files:   []string{*file},
		OldName: *oldName,
		NewName: *newName,
		Kind:    kind,
		DryRun:  *dryRun,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	engine := astengine.New(parser.NewGrammarLoader())
	edit, err := engine.Apply(context.Background(), *file, content, req)
	if err != nil {
		return err
	}

	out := summary{Success: true, Changes: edit.Changes}
	if *dryRun {
		if edit.Changes > 0 {
			out.Preview = diffgen.Unified(*file, string(content), string(edit.NewContent))
		}
		emit(out)
		return nil
	}

	if edit.Changes > 0 {
		if err := fsio.NewWriter().Write(*file, edit.NewContent); err != nil {
			return err
		}
	}
	emit(out)
	return nil
}

func emit(s summary) {
	_ = json.NewEncoder(os.Stdout).Encode(s)
}
