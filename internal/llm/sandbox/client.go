// Package sandbox runs an external generator command in a scratch workspace.
// The prompt is written to the command's stdin. The command may write its
// answer to the file named by GAP_OUTPUT_FILE; whatever it prints is kept as
// the console channel.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"estate-gap-backend/internal/llm"
	"estate-gap-backend/internal/shared/telemetry"
)

const (
	// OutputFileEnv names the environment variable carrying the side-file path.
	OutputFileEnv  = "GAP_OUTPUT_FILE"
	defaultTimeout = 5 * time.Minute
	maxStderrLog   = 500
)

// Client implements llm.Client by invoking a local command.
type Client struct {
	command string
	args    []string
	baseDir string
	timeout time.Duration
}

// NewClient parses a command line such as "claude -p --output-format text".
// baseDir is where per-run workspaces are created; empty uses os.TempDir.
func NewClient(commandLine, baseDir string, timeout time.Duration) (*Client, error) {
	parts := strings.Fields(commandLine)
	if len(parts) == 0 {
		return nil, fmt.Errorf("SANDBOX_COMMAND is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Client{command: parts[0], args: parts[1:], baseDir: baseDir, timeout: timeout}, nil
}

// GenerateGapAnalysis runs the command once. A command that exits non-zero
// still returns whatever both channels captured alongside the error.
func (c *Client) GenerateGapAnalysis(ctx context.Context, input llm.GapInput) (llm.Output, error) {
	workDir, cleanup, err := c.workspace()
	if err != nil {
		return llm.Output{}, err
	}
	defer cleanup()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	outputPath := filepath.Join(workDir, "analysis.json")
	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), OutputFileEnv+"="+outputPath)
	cmd.Stdin = strings.NewReader(input.Prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()

	out := llm.Output{Console: stdout.String()}
	if data, err := os.ReadFile(outputPath); err == nil {
		out.File = string(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return out, fmt.Errorf("read generator output file: %w", err)
	}

	fields := map[string]any{
		"analysis_id": input.AnalysisID,
		"command":     c.command,
		"file_len":    len(out.File),
		"console_len": len(out.Console),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		fields["stderr"] = truncate(stderr.String(), maxStderrLog)
		telemetry.Warn("generator.sandbox_failed", fields)
		if ctx.Err() != nil {
			return out, fmt.Errorf("sandbox generator timeout: %w", ctx.Err())
		}
		return out, fmt.Errorf("sandbox generator error: %w", runErr)
	}
	telemetry.Info("generator.response", fields)
	return out, nil
}

func (c *Client) workspace() (string, func(), error) {
	if err := os.MkdirAll(c.baseDir, 0o700); err != nil {
		return "", nil, fmt.Errorf("create sandbox base dir: %w", err)
	}
	dir := filepath.Join(c.baseDir, "gap-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", nil, fmt.Errorf("create sandbox workspace: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ llm.Client = (*Client)(nil)
