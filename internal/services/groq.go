package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/twodc/pre-view-sub000/internal/config"
	"github.com/twodc/pre-view-sub000/internal/metrics"
)

// chatAgentClient talks to an OpenAI-compatible chat completion endpoint.
// Each call goes to the primary model first and falls back to the secondary
// model when the primary is rate limited or errors.
type chatAgentClient struct {
	client        *openai.Client
	primaryModel  string
	fallbackModel string
	temperature   float32
	maxTokens     int
	prompts       *PromptBuilder
	recorder      *metrics.Recorder
}

func NewChatAgentClient(cfg config.AgentConfig, recorder *metrics.Recorder) AgentClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &chatAgentClient{
		client:        openai.NewClientWithConfig(clientCfg),
		primaryModel:  cfg.PrimaryModel,
		fallbackModel: cfg.FallbackModel,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		prompts:       NewPromptBuilder(),
		recorder:      recorder,
	}
}

func (c *chatAgentClient) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	content, err := c.chat(ctx, c.prompts.FeedbackSystemPrompt(), c.prompts.BuildFeedbackUserPrompt(req.Phase, req.Question, req.Answer))
	if err != nil {
		return nil, err
	}
	var payload feedbackPayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse feedback response: %w", err)
	}
	if strings.TrimSpace(payload.Feedback) == "" {
		return nil, fmt.Errorf("feedback response missing feedback text")
	}
	return &FeedbackResult{
		Feedback: payload.Feedback,
		Score:    clampScorePtr(payload.Score),
	}, nil
}

func (c *chatAgentClient) ProcessInterviewStep(ctx context.Context, req StepRequest) (*AgentDecision, error) {
	content, err := c.chat(ctx, c.prompts.InterviewStepSystemPrompt(req.Phase), c.prompts.BuildInterviewStepUserPrompt(req))
	if err != nil {
		return nil, err
	}
	var payload stepPayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse interview step response: %w", err)
	}
	return &AgentDecision{
		Thought:    payload.Thought,
		Action:     normalizeAction(payload.Action),
		Message:    strings.TrimSpace(payload.Message),
		Evaluation: payload.Evaluation,
	}, nil
}

func (c *chatAgentClient) GenerateReport(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	content, err := c.chat(ctx, c.prompts.ReportSystemPrompt(), c.prompts.BuildReportUserPrompt(req.Context, req.Entries))
	if err != nil {
		return nil, err
	}
	var payload reportPayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse report response: %w", err)
	}
	return reportFromPayload(payload, req), nil
}

// chat runs one completion against the primary model, then once against the
// fallback model when the primary fails.
func (c *chatAgentClient) chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	content, err := c.complete(ctx, c.primaryModel, systemPrompt, userPrompt)
	if err == nil {
		c.recorder.ObserveModelRequest("primary")
		return content, nil
	}
	if isRateLimited(err) {
		c.recorder.ObserveRateLimit()
		log.Printf("⚠️ Primary model %s rate limited, switching to fallback %s", c.primaryModel, c.fallbackModel)
	} else {
		log.Printf("⚠️ Primary model %s failed, trying fallback %s: %v", c.primaryModel, c.fallbackModel, err)
	}

	content, fallbackErr := c.complete(ctx, c.fallbackModel, systemPrompt, userPrompt)
	if fallbackErr != nil {
		if isRateLimited(fallbackErr) {
			c.recorder.ObserveRateLimit()
		}
		return "", fmt.Errorf("both models failed (primary: %v): %w", err, fallbackErr)
	}
	c.recorder.ObserveModelRequest("fallback")
	return content, nil
}

func (c *chatAgentClient) complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no choices", model)
	}
	return resp.Choices[0].Message.Content, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// extractJSON strips markdown fences and surrounding prose so the payload
// can be unmarshalled even when the model ignores the JSON-only instruction.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
