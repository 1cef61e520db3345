package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const workspaceTarget = "/workspace"

var (
	sandboxDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hireflow",
		Subsystem: "sandbox",
		Name:      "run_duration_seconds",
		Help:      "Duration of candidate code runs",
		Buckets:   prometheus.DefBuckets,
	}, []string{"image"})

	sandboxTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireflow",
		Subsystem: "sandbox",
		Name:      "run_timeouts_total",
		Help:      "Candidate code runs that hit the time limit",
	}, []string{"image"})

	sandboxFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireflow",
		Subsystem: "sandbox",
		Name:      "run_failures_total",
		Help:      "Candidate code runs that failed before producing a verdict",
	}, []string{"image"})
)

// Sandbox runs untrusted candidate code inside an isolated container.
type Sandbox interface {
	Run(ctx context.Context, spec RunSpec) (RunOutcome, error)
}

// RunSpec describes a single candidate code run. The workspace directory is
// bind-mounted at /workspace and the container never gets network access.
type RunSpec struct {
	Image         string
	Cmd           []string
	Workspace     string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
}

// RunOutcome summarises a finished (or killed) run.
type RunOutcome struct {
	Stdout          string
	Stderr          string
	ExitCode        int
	Duration        time.Duration
	TimedOut        bool
	MemoryPeakBytes int64
}

// Config groups sandbox defaults applied when a RunSpec leaves them unset.
type Config struct {
	Host          string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	Logger        zerolog.Logger
}

// DockerSandbox implements Sandbox on top of the Docker engine API.
type DockerSandbox struct {
	client *client.Client
	cfg    Config
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewSandbox connects to the Docker daemon and returns a sandbox runner.
func NewSandbox(cfg Config) (*DockerSandbox, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &DockerSandbox{
		client: cli,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/sarthi-labs/hireflow-api/pkg/docker"),
		logger: cfg.Logger.With().Str("component", "sandbox").Logger(),
	}, nil
}

// Run executes the spec and always cleans the container up afterwards.
// A timeout is reported through RunOutcome.TimedOut rather than an error,
// so the grading layer can map it to a Time Limit Exceeded verdict.
func (s *DockerSandbox) Run(parent context.Context, spec RunSpec) (RunOutcome, error) {
	if spec.Image == "" {
		return RunOutcome{}, errors.New("image is required")
	}
	if spec.Workspace == "" {
		return RunOutcome{}, errors.New("workspace is required")
	}

	ctx, span := s.tracer.Start(parent, "sandbox.run", trace.WithAttributes(
		attribute.String("sandbox.image", spec.Image),
	))
	defer span.End()

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = s.cfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	memoryMB := spec.MemoryLimitMB
	if memoryMB <= 0 {
		memoryMB = s.cfg.MemoryLimitMB
	}
	cpuShares := spec.CPUShares
	if cpuShares <= 0 {
		cpuShares = s.cfg.CPUShares
	}

	pidsLimit := int64(128)
	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:    memoryMB * 1024 * 1024,
			CPUShares: cpuShares,
			PidsLimit: &pidsLimit,
		},
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: spec.Workspace,
			Target: workspaceTarget,
		}},
	}

	containerCfg := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		WorkingDir:   workspaceTarget,
		AttachStdout: true,
		AttachStderr: true,
	}

	created, err := s.client.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		sandboxFailures.WithLabelValues(spec.Image).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunOutcome{}, fmt.Errorf("container create: %w", err)
	}

	containerID := created.ID
	defer s.remove(containerID)

	start := time.Now()
	if err := s.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		sandboxFailures.WithLabelValues(spec.Image).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunOutcome{}, fmt.Errorf("container start: %w", err)
	}

	outcome := RunOutcome{}
	statusCh, errCh := s.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		outcome.ExitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	outcome.Duration = time.Since(start)
	sandboxDuration.WithLabelValues(spec.Image).Observe(outcome.Duration.Seconds())

	if waitErr != nil {
		if errors.Is(waitErr, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			outcome.TimedOut = true
			sandboxTimeouts.WithLabelValues(spec.Image).Inc()
			s.kill(containerID)
			span.SetStatus(codes.Error, "time limit exceeded")
		} else if !errors.Is(waitErr, context.Canceled) {
			sandboxFailures.WithLabelValues(spec.Image).Inc()
			span.RecordError(waitErr)
			span.SetStatus(codes.Error, waitErr.Error())
			return outcome, fmt.Errorf("container wait: %w", waitErr)
		}
	}

	s.collectLogs(parent, containerID, &outcome)
	s.collectStats(parent, containerID, &outcome)

	return outcome, nil
}

func (s *DockerSandbox) collectLogs(ctx context.Context, containerID string, outcome *RunOutcome) {
	reader, err := s.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to fetch container logs")
		return
	}
	defer reader.Close()

	stdout, stderr, err := demuxLogs(reader)
	if err != nil {
		s.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to read container logs")
		return
	}
	outcome.Stdout = stdout
	outcome.Stderr = stderr
}

func (s *DockerSandbox) collectStats(ctx context.Context, containerID string, outcome *RunOutcome) {
	statsCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	stats, err := s.client.ContainerStatsOneShot(statsCtx, containerID)
	if err != nil {
		return
	}
	defer stats.Body.Close()

	var data types.StatsJSON
	if err := json.NewDecoder(stats.Body).Decode(&data); err != nil {
		return
	}
	outcome.MemoryPeakBytes = int64(data.MemoryStats.MaxUsage)
	if outcome.MemoryPeakBytes == 0 {
		outcome.MemoryPeakBytes = int64(data.MemoryStats.Usage)
	}
}

func (s *DockerSandbox) kill(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.ContainerKill(ctx, containerID, "KILL"); err != nil {
		s.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to kill timed out container")
	}
}

func (s *DockerSandbox) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		s.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
	}
}

func demuxLogs(reader io.Reader) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", err
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Close releases the underlying Docker client.
func (s *DockerSandbox) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
