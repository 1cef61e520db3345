package judge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	dockerexec "github.com/sarthi-labs/hireflow-api/pkg/docker"
)

type localLanguage struct {
	Image    string
	FileName string
	Run      string
}

var localLanguages = map[int]localLanguage{
	71: {Image: "python:3.11-alpine", FileName: "main.py", Run: "python main.py"},
	63: {Image: "node:20-alpine", FileName: "main.js", Run: "node main.js"},
	60: {Image: "golang:1.22-alpine", FileName: "main.go", Run: "go run main.go"},
}

// LocalJudge runs submissions in sandboxed containers. It is a development
// stand-in for the hosted judge and honours the same submit-and-wait contract.
type LocalJudge struct {
	sandbox       dockerexec.Sandbox
	workspaceRoot string
	timeout       time.Duration
	memoryLimitMB int64
	cpuShares     int64
	logger        zerolog.Logger
}

// LocalConfig groups the local judge's execution knobs.
type LocalConfig struct {
	WorkspaceRoot string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	Logger        zerolog.Logger
}

// NewLocalJudge wraps a container sandbox in the judge contract.
func NewLocalJudge(sandbox dockerexec.Sandbox, cfg LocalConfig) *LocalJudge {
	root := cfg.WorkspaceRoot
	if root == "" {
		root = os.TempDir()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &LocalJudge{
		sandbox:       sandbox,
		workspaceRoot: root,
		timeout:       timeout,
		memoryLimitMB: cfg.MemoryLimitMB,
		cpuShares:     cfg.CPUShares,
		logger:        cfg.Logger.With().Str("component", "local_judge").Logger(),
	}
}

// SubmitAndWait executes the code in a container and reports a judge-shaped
// result. Expected-output comparison stays with the caller, so a clean run
// always reports Accepted.
func (j *LocalJudge) SubmitAndWait(ctx context.Context, sourceCode string, languageID int, stdin string) (Result, error) {
	lang, ok := localLanguages[languageID]
	if !ok {
		return Result{}, fmt.Errorf("%w: judge language id %d has no local runtime", ErrUnknownLanguage, languageID)
	}

	workspace, err := os.MkdirTemp(j.workspaceRoot, "judge-")
	if err != nil {
		return Result{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := os.WriteFile(filepath.Join(workspace, lang.FileName), []byte(sourceCode), 0600); err != nil {
		return Result{}, fmt.Errorf("write source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, "input.txt"), []byte(stdin), 0600); err != nil {
		return Result{}, fmt.Errorf("write stdin: %w", err)
	}

	spec := dockerexec.RunSpec{
		Image:         lang.Image,
		Cmd:           []string{"sh", "-c", lang.Run + " < input.txt"},
		Timeout:       j.timeout,
		Workspace:     workspace,
		MemoryLimitMB: j.memoryLimitMB,
		CPUShares:     j.cpuShares,
	}

	outcome, runErr := j.sandbox.Run(ctx, spec)

	result := Result{
		Stdout: outcome.Stdout,
		Stderr: outcome.Stderr,
		Time:   strconv.FormatFloat(outcome.Duration.Seconds(), 'f', 3, 64),
		Memory: float64(outcome.MemoryPeakBytes) / 1024,
	}

	switch {
	case outcome.TimedOut:
		result.Status = Status{ID: StatusTimeLimitExceeded, Description: "Time Limit Exceeded"}
	case runErr != nil:
		return Result{}, runErr
	case outcome.ExitCode != 0:
		result.Status = Status{ID: StatusRuntimeErrorNZEC, Description: "Runtime Error (NZEC)"}
	default:
		result.Status = Status{ID: StatusAccepted, Description: "Accepted"}
	}

	return result, nil
}
