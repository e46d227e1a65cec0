// # cmd/resym/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"resym/internal/config"
	"resym/internal/rename"
)

var (
	configPath = flag.String("config", "./resym.toml", "Path to config file")
	oldName    = flag.String("old", "", "Identifier to rename")
	newName    = flag.String("new", "", "Replacement identifier")
	kindFlag   = flag.String("kind", "any", "Symbol kind filter (variable|function|class|field|attribute|any)")
	lineFlag   = flag.Int("line", 0, "Line number anchoring which binding to rename (scope engine)")
	scopeFlag  = flag.String("scope", "", "Dotted scope path restricting the rename (e.g. module.Outer.helper)")
	engineFlag = flag.String("engine", "auto", "Engine to use (auto|ast|scope-library|external-parser|text)")
	dryRun     = flag.Bool("dry-run", false, "Preview the rename without writing files")
	project    = flag.String("project", "", "Rename across every matching file under this directory")
	matchesIn  = flag.String("matches", "", "File of located matches (path:line:text per line), - for stdin")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("resym v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config; a missing default config file falls back to defaults.
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./resym.toml" && os.IsNotExist(err) {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}

	req, err := buildRequest(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	result, err := run(app, req)
	if err != nil {
		slog.Error("rename failed", "error", err)
		os.Exit(1)
	}

	report(result)
	if !result.Success {
		os.Exit(1)
	}
}

func buildRequest(cfg *config.Config) (*rename.Request, error) {
	kind, err := rename.ParseSymbolKind(*kindFlag)
	if err != nil {
		return nil, err
	}

	engineName := *engineFlag
	if engineName == "auto" && cfg.Engine.Default != "" {
		engineName = cfg.Engine.Default
	}
	engine, err := rename.ParseEngineKind(engineName)
	if err != nil {
		return nil, err
	}

	return &rename.Request{
		Files:      flag.Args(),
		OldName:    *oldName,
		NewName:    *newName,
		Kind:       kind,
		ScopePath:  *scopeFlag,
		TargetLine: *lineFlag,
		DryRun:     *dryRun,
		Engine:     engine,
	}, nil
}

func run(app *App, req *rename.Request) (rename.RefactorResult, error) {
	ctx := context.Background()

	switch {
	case *matchesIn != "":
		raw, err := readMatches(*matchesIn)
		if err != nil {
			return rename.RefactorResult{}, err
		}
		return app.RunMatches(ctx, raw, req)
	case *project != "":
		return app.RunProject(ctx, *project, req)
	default:
		return app.RunFiles(ctx, req)
	}
}

func readMatches(source string) ([]string, error) {
	var data []byte
	var err error
	if source == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read matches: %w", err)
	}

	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

func report(result rename.RefactorResult) {
	if result.Preview != "" {
		fmt.Print(result.Preview)
	}

	for _, fr := range result.PerFile {
		if !fr.Success {
			fmt.Fprintf(os.Stderr, "FAIL %s: %s\n", fr.File, fr.Err)
		}
	}

	fmt.Fprintf(os.Stderr, "%d occurrence(s) across %d file(s) [engine: %s]\n",
		result.ChangesCount, len(result.FilesModified), result.EngineUsed)
}
