// # cmd/resym/app.go
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"resym/internal/astengine"
	"resym/internal/config"
	"resym/internal/diffgen"
	"resym/internal/extparser"
	"resym/internal/fsio"
	"resym/internal/journal"
	"resym/internal/parser"
	"resym/internal/rename"
	"resym/internal/scopelib"
	"resym/internal/shared/observability"
	"resym/internal/shared/util"
)

type App struct {
	Config *config.Config
	loader *parser.GrammarLoader
	ast    *astengine.Engine
	ext    *extparser.Client
	text   rename.TextBackend
	writer *fsio.Writer

	// Journal is optional; nil disables persistence.
	Journal *journal.Store
}

func NewApp(cfg *config.Config) (*App, error) {
	loader := parser.NewGrammarLoader()

	writer := fsio.NewWriter()
	writer.MaxRetries = cfg.Write.MaxRetries
	writer.BaseDelay = cfg.Write.BaseDelay
	if cfg.Write.Backup != nil {
		writer.Backup = *cfg.Write.Backup
	}

	app := &App{
		Config: cfg,
		loader: loader,
		ast:    astengine.New(loader),
		ext:    extparser.NewClient(cfg.Engine.GosymPaths, cfg.Engine.ProbeTimeout, cfg.Engine.InvokeTimeout),
		writer: writer,
	}

	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		app.Journal = store
	}

	return app, nil
}

func (a *App) Close() error {
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}

// selectBackend picks the rename strategy for one file. An explicitly
// requested engine is honored verbatim; whether it can actually serve the
// file surfaces as an error from its Apply.
func (a *App) selectBackend(path string, req *rename.Request) rename.Backend {
	switch req.Engine {
	case rename.EngineAST:
		return a.ast
	case rename.EngineScope:
		return scopelib.New(a.loader, scopelib.DetectProjectRoot(path))
	case rename.EngineExtParser:
		return a.ext
	case rename.EngineText:
		return a.text
	}

	lang := parser.DetectLanguage(path)
	switch {
	case lang == "go":
		// Go resolution belongs to the external analyzer; without it the
		// fallback is plain text, not the scope-unaware syntactic engine.
		if a.ext.Available() {
			return a.ext
		}
		return a.text
	case lang == "python" && req.TargetLine > 0:
		return scopelib.New(a.loader, scopelib.DetectProjectRoot(path))
	case a.ast.Supports(path):
		return a.ast
	default:
		return a.text
	}
}

// renameFile runs one file end to end: read, transform, optionally write,
// record. A failure is captured in the result, never propagated, so a batch
// keeps going past a bad file.
func (a *App) renameFile(ctx context.Context, path string, req *rename.Request) rename.FileResult {
	backend := a.selectBackend(path, req)
	engine := backend.Kind()
	result := rename.FileResult{File: path, Engine: engine}

	started := time.Now()
	defer func() {
		observability.RenameDuration.WithLabelValues(string(engine)).Observe(time.Since(started).Seconds())
	}()

	content, err := os.ReadFile(path)
	if err != nil {
		return a.fail(result, req, fmt.Errorf("read: %w", err))
	}

	edit, err := backend.Apply(ctx, path, content, req)
	if err != nil {
		return a.fail(result, req, err)
	}

	result.Success = true
	result.Changes = edit.Changes
	result.Preview = edit.Preview

	if edit.Changes > 0 {
		if req.DryRun && result.Preview == "" && edit.NewContent != nil {
			result.Preview = diffgen.Unified(path, string(content), string(edit.NewContent))
		}
		if !req.DryRun && !edit.Applied {
			if err := a.writer.Write(path, edit.NewContent); err != nil {
				return a.fail(result, req, err)
			}
		}
		result.Modified = !req.DryRun
	}

	observability.RenamesTotal.WithLabelValues(string(engine), "success").Inc()
	observability.OccurrencesRenamedTotal.Add(float64(edit.Changes))
	a.record(result, req)
	return result
}

func (a *App) fail(result rename.FileResult, req *rename.Request, err error) rename.FileResult {
	result.Success = false
	result.Err = err.Error()
	observability.RenamesTotal.WithLabelValues(string(result.Engine), "error").Inc()
	slog.Warn("rename failed", "file", result.File, "engine", result.Engine, "error", err)
	a.record(result, req)
	return result
}

func (a *App) record(result rename.FileResult, req *rename.Request) {
	if a.Journal == nil || req.DryRun {
		return
	}
	entry := journal.Entry{
		File:    result.File,
		OldName: req.OldName,
		NewName: req.NewName,
		Kind:    req.Kind,
		Engine:  result.Engine,
		Changes: result.Changes,
		Success: result.Success,
		Error:   result.Err,
	}
	if err := a.Journal.Record(entry); err != nil {
		slog.Warn("journal write failed", "error", err)
	}
}

// RunFiles renames across the request's file list. Files are processed
// independently; the aggregate reports per-file outcomes.
func (a *App) RunFiles(ctx context.Context, req *rename.Request) (rename.RefactorResult, error) {
	if err := req.Validate(); err != nil {
		return rename.RefactorResult{}, err
	}

	results := make([]rename.FileResult, 0, len(req.Files))
	for _, path := range req.Files {
		results = append(results, a.renameFile(ctx, path, req))
	}
	return rename.Aggregate(results), nil
}

// RunProject expands root into the file list by walking it, honoring the
// configured extensions and exclude patterns, then delegates to RunFiles.
func (a *App) RunProject(ctx context.Context, root string, req *rename.Request) (rename.RefactorResult, error) {
	files, err := a.scanProject(root)
	if err != nil {
		return rename.RefactorResult{}, err
	}
	if len(files) == 0 {
		return rename.RefactorResult{}, fmt.Errorf("no matching files under %s", root)
	}

	// The caller's request stays untouched; only the scoped copy carries the
	// expanded file list.
	scoped := *req
	scoped.Files = files
	return a.RunFiles(ctx, &scoped)
}

func (a *App) scanProject(root string) ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(a.Config.Project.ExcludeDirs))
	for _, p := range a.Config.Project.ExcludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	wanted := make(map[string]bool, len(a.Config.Project.Extensions))
	for _, ext := range a.Config.Project.Extensions {
		wanted[ext] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if d.IsDir() {
			for _, g := range dirGlobs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if wanted[filepath.Ext(base)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// locatedMatch is one parsed "path:line:text" hit handed over from a search
// collaborator.
type locatedMatch struct {
	path string
	line int
}

func parseMatches(raw []string) ([]locatedMatch, error) {
	matches := make([]locatedMatch, 0, len(raw))
	for _, m := range raw {
		parts := strings.SplitN(m, ":", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed match %q (want path:line:text)", m)
		}
		line, err := strconv.Atoi(parts[1])
		if err != nil || line < 1 {
			return nil, fmt.Errorf("malformed line number in match %q", m)
		}
		matches = append(matches, locatedMatch{path: parts[0], line: line})
	}
	return matches, nil
}

// RunMatches applies line-targeted whole-word replacements. Hits are grouped
// per file and applied from the highest line downward so earlier hits keep
// their line numbers; each file is read and written exactly once.
func (a *App) RunMatches(ctx context.Context, raw []string, req *rename.Request) (rename.RefactorResult, error) {
	matches, err := parseMatches(raw)
	if err != nil {
		return rename.RefactorResult{}, err
	}

	byFile := make(map[string][]int)
	for _, m := range matches {
		byFile[m.path] = append(byFile[m.path], m.line)
	}
	paths := util.SortedStringKeys(byFile)

	scoped := *req
	scoped.Files = paths
	if err := scoped.Validate(); err != nil {
		return rename.RefactorResult{}, err
	}

	results := make([]rename.FileResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return rename.RefactorResult{}, err
		}
		results = append(results, a.renameMatches(path, byFile[path], &scoped))
	}
	return rename.Aggregate(results), nil
}

func (a *App) renameMatches(path string, lines []int, req *rename.Request) rename.FileResult {
	result := rename.FileResult{File: path, Engine: rename.EngineText}

	content, err := os.ReadFile(path)
	if err != nil {
		return a.fail(result, req, fmt.Errorf("read: %w", err))
	}

	sort.Sort(sort.Reverse(sort.IntSlice(lines)))

	updated := content
	total := 0
	for _, line := range lines {
		var n int
		updated, n = rename.ReplaceOnLine(updated, line, req.OldName, req.NewName)
		total += n
	}

	result.Success = true
	result.Changes = total
	if total > 0 {
		if req.DryRun {
			result.Preview = diffgen.Unified(path, string(content), string(updated))
		} else {
			if err := a.writer.Write(path, updated); err != nil {
				return a.fail(result, req, err)
			}
			result.Modified = true
		}
	}

	observability.RenamesTotal.WithLabelValues(string(result.Engine), "success").Inc()
	observability.OccurrencesRenamedTotal.Add(float64(total))
	a.record(result, req)
	return result
}
