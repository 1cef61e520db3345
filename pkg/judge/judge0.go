package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	judgeRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hireflow",
		Subsystem: "judge",
		Name:      "request_duration_seconds",
		Help:      "Duration of submit-and-wait judge calls",
		Buckets:   prometheus.DefBuckets,
	})

	judgeRequestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hireflow",
		Subsystem: "judge",
		Name:      "request_failures_total",
		Help:      "Number of judge calls that failed at the transport level",
	})
)

// Judge0Config groups the settings for the hosted judge client.
type Judge0Config struct {
	BaseURL      string
	AuthToken    string
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       zerolog.Logger
}

// Judge0Client talks to a Judge0-compatible HTTP service.
type Judge0Client struct {
	baseURL      string
	authToken    string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       zerolog.Logger
}

// NewJudge0Client constructs a client for a Judge0-compatible service.
func NewJudge0Client(cfg Judge0Config) (*Judge0Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("judge base url must not be empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid judge base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}

	return &Judge0Client{
		baseURL:      cfg.BaseURL,
		authToken:    cfg.AuthToken,
		pollInterval: pollInterval,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       cfg.Logger.With().Str("component", "judge0_client").Logger(),
	}, nil
}

type submissionRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type submissionResponse struct {
	Token         string   `json:"token"`
	Status        Status   `json:"status"`
	Stdout        *string  `json:"stdout"`
	Stderr        *string  `json:"stderr"`
	CompileOutput *string  `json:"compile_output"`
	Time          *string  `json:"time"`
	Memory        *float64 `json:"memory"`
}

// SubmitAndWait sends the code to the judge and blocks until a terminal
// status is reported. The caller's context bounds the total wait.
func (c *Judge0Client) SubmitAndWait(ctx context.Context, sourceCode string, languageID int, stdin string) (Result, error) {
	start := time.Now()
	result, err := c.submitAndWait(ctx, sourceCode, languageID, stdin)
	judgeRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		judgeRequestFailures.Inc()
	}
	return result, err
}

func (c *Judge0Client) submitAndWait(ctx context.Context, sourceCode string, languageID int, stdin string) (Result, error) {
	payload := submissionRequest{SourceCode: sourceCode, LanguageID: languageID, Stdin: stdin}

	created, err := c.do(ctx, http.MethodPost, "/submissions?base64_encoded=false&wait=true", payload)
	if err != nil {
		return Result{}, err
	}

	// wait=true usually returns the terminal status directly; fall back to
	// polling the token when the service queued the submission instead.
	for !created.Status.Terminal() {
		if created.Token == "" {
			return Result{}, fmt.Errorf("judge returned non-terminal status %d without a token", created.Status.ID)
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		created, err = c.do(ctx, http.MethodGet, "/submissions/"+created.Token+"?base64_encoded=false", nil)
		if err != nil {
			return Result{}, err
		}
	}

	return created.toResult(), nil
}

func (c *Judge0Client) do(ctx context.Context, method, path string, payload interface{}) (submissionResponse, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return submissionResponse{}, fmt.Errorf("encode judge request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return submissionResponse{}, fmt.Errorf("build judge request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("X-Auth-Token", c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return submissionResponse{}, fmt.Errorf("judge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error().Int("status", resp.StatusCode).Bytes("body", raw).Msg("judge returned error response")
		return submissionResponse{}, fmt.Errorf("judge returned status %d", resp.StatusCode)
	}

	var decoded submissionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return submissionResponse{}, fmt.Errorf("decode judge response: %w", err)
	}

	return decoded, nil
}

func (r submissionResponse) toResult() Result {
	result := Result{Status: r.Status}
	if r.Stdout != nil {
		result.Stdout = *r.Stdout
	}
	if r.Stderr != nil {
		result.Stderr = *r.Stderr
	}
	if r.CompileOutput != nil {
		result.CompileOutput = *r.CompileOutput
	}
	if r.Time != nil {
		result.Time = *r.Time
	}
	if r.Memory != nil {
		result.Memory = *r.Memory
	}
	return result
}
