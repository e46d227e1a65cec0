// Package extparser drives the out-of-process Go analyzer (gosym). Parsing
// and scope resolution for Go happen in that separately built binary; this
// side only exchanges flags and JSON over stdin/stdout.
package extparser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"resym/internal/rename"
	"resym/internal/shared/observability"
)

const (
	DefaultProbeTimeout  = 5 * time.Second
	DefaultInvokeTimeout = 30 * time.Second
)

// DefaultCandidates lists where the analyzer binary is searched for, in
// order. A bare name is resolved through PATH.
var DefaultCandidates = []string{
	"gosym",
	"./gosym",
	"/usr/local/bin/gosym",
	"/usr/bin/gosym",
}

var (
	ErrUnavailable      = errors.New("external parser backend unavailable")
	ErrTimeout          = errors.New("external parser timed out")
	ErrMalformedReply   = errors.New("malformed external parser response")
	ErrAnalyzerReported = errors.New("external parser failed")
)

// Summary is the machine-readable rename record the analyzer prints on
// stdout.
type Summary struct {
	Success bool   `json:"success"`
	Changes int    `json:"changes"`
	Preview string `json:"preview,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Client struct {
	Candidates    []string
	ProbeTimeout  time.Duration
	InvokeTimeout time.Duration

	// The availability probe runs once per process; the run is
	// single-threaded but a Once keeps the one-time-init lifecycle explicit.
	probeOnce sync.Once
	binary    string
}

func NewClient(candidates []string, probeTimeout, invokeTimeout time.Duration) *Client {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if invokeTimeout <= 0 {
		invokeTimeout = DefaultInvokeTimeout
	}
	return &Client{Candidates: candidates, ProbeTimeout: probeTimeout, InvokeTimeout: invokeTimeout}
}

func (c *Client) Kind() rename.EngineKind { return rename.EngineExtParser }

// Available probes the candidate locations once and memoizes the result. A
// binary that exists but fails the version check counts as unavailable, not
// as an error.
func (c *Client) Available() bool {
	c.probeOnce.Do(func() {
		for _, candidate := range c.Candidates {
			path := candidate
			if !strings.ContainsAny(candidate, "/\\") {
				resolved, err := exec.LookPath(candidate)
				if err != nil {
					continue
				}
				path = resolved
			}
			if c.healthCheck(path) {
				c.binary = path
				return
			}
		}
	})
	return c.binary != ""
}

func (c *Client) healthCheck(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.ProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	return err == nil && strings.HasPrefix(strings.TrimSpace(string(out)), "gosym")
}

func (c *Client) Apply(ctx context.Context, path string, _ []byte, req *rename.Request) (*rename.Edit, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	args := []string{
		"--file", path,
		"--old", req.OldName,
		"--new", req.NewName,
		"--type", string(req.Kind),
	}
	if req.DryRun {
		args = append(args, "--dry-run")
	}

	stdout, err := c.invoke(ctx, args)
	if err != nil {
		return nil, err
	}

	var summary Summary
	if err := json.Unmarshal(stdout, &summary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if !summary.Success {
		return nil, fmt.Errorf("%w: %s", ErrAnalyzerReported, summary.Error)
	}

	// The analyzer wrote (or, in dry-run, previewed) the file itself.
	return &rename.Edit{Applied: !req.DryRun, Changes: summary.Changes, Preview: summary.Preview}, nil
}

// AnalyzeScopes asks the analyzer for the file's scope tree.
func (c *Client) AnalyzeScopes(ctx context.Context, path string) (*rename.ScopeNode, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	stdout, err := c.invoke(ctx, []string{"--file", path, "--analyze"})
	if err != nil {
		return nil, err
	}

	var root rename.ScopeNode
	if err := json.Unmarshal(stdout, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	rewireParents(&root)
	return &root, nil
}

func rewireParents(node *rename.ScopeNode) {
	for _, child := range node.Children {
		child.Parent = node
		rewireParents(child)
	}
}

func (c *Client) invoke(ctx context.Context, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.InvokeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		observability.SubprocessTimeoutsTotal.Inc()
		return nil, fmt.Errorf("%w after %s", ErrTimeout, c.InvokeTimeout)
	}
	if err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrAnalyzerReported, diag)
	}
	return stdout.Bytes(), nil
}
