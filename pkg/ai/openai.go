package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hireflow",
		Subsystem: "ai",
		Name:      "shortlist_duration_seconds",
		Help:      "Duration of AI shortlist scoring requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hireflow",
		Subsystem: "ai",
		Name:      "shortlist_failures_total",
		Help:      "Number of AI shortlist scoring failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI shortlist scorer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIScorer implements ShortlistScorer against the chat completion API.
type OpenAIScorer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIScorer builds a new scorer using the provided configuration.
func NewOpenAIScorer(cfg OpenAIConfig) (*OpenAIScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}

	tracer := otel.Tracer("github.com/sarthi-labs/hireflow-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIScorer{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Score asks the model whether the resume fits the role and parses its verdict.
func (s *OpenAIScorer) Score(parent context.Context, input ShortlistInput) (ShortlistDecision, error) {
	ctx, span := s.tracer.Start(parent, "openai.shortlist", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: shortlistSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildShortlistPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(s.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ShortlistDecision{}, fmt.Errorf("openai shortlist: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ShortlistDecision{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	decision, err := parseShortlistResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(s.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ShortlistDecision{}, err
	}

	return decision, nil
}

func shortlistSystemPrompt() string {
	return "You are a resume screener for a hiring drive. Respond with a JSON object containing shortlist (boolean), " +
		"score (0-1 fit against the role and required skills), and reason (one sentence)."
}

func buildShortlistPrompt(input ShortlistInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Role\n")
	builder.WriteString(input.Role)
	builder.WriteString("\n\n## Required Skills\n")
	builder.WriteString(strings.Join(input.Skills, ", "))
	builder.WriteString("\n\n## Candidate\n")
	builder.WriteString(input.CandidateName)
	builder.WriteString("\n\n## Resume\n")
	builder.WriteString(input.ResumeText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseShortlistResponse(content string) (ShortlistDecision, error) {
	var decision ShortlistDecision
	if err := json.Unmarshal([]byte(content), &decision); err != nil {
		return ShortlistDecision{}, fmt.Errorf("parse shortlist json: %w", err)
	}

	if decision.Score < 0 {
		decision.Score = 0
	}
	if decision.Score > 1 {
		decision.Score = 1
	}

	return decision, nil
}
