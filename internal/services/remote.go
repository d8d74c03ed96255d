package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/twodc/pre-view-sub000/internal/config"
)

// remoteAgentClient delegates prompt execution to a companion AI service.
// Prompts are still built locally; the service only runs them.
type remoteAgentClient struct {
	baseURL    string
	httpClient *http.Client
	prompts    *PromptBuilder
}

func NewRemoteAgentClient(cfg config.AgentConfig) AgentClient {
	return &remoteAgentClient{
		baseURL:    strings.TrimSuffix(cfg.ServiceURL, "/"),
		httpClient: &http.Client{Timeout: cfg.ServiceTimeout},
		prompts:    NewPromptBuilder(),
	}
}

type remotePromptRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

func (c *remoteAgentClient) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	var payload feedbackPayload
	err := c.post(ctx, "/api/feedback", remotePromptRequest{
		SystemPrompt: c.prompts.FeedbackSystemPrompt(),
		UserPrompt:   c.prompts.BuildFeedbackUserPrompt(req.Phase, req.Question, req.Answer),
	}, &payload)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.Feedback) == "" {
		return nil, fmt.Errorf("feedback response missing feedback text")
	}
	return &FeedbackResult{
		Feedback: payload.Feedback,
		Score:    clampScorePtr(payload.Score),
	}, nil
}

func (c *remoteAgentClient) ProcessInterviewStep(ctx context.Context, req StepRequest) (*AgentDecision, error) {
	var payload stepPayload
	err := c.post(ctx, "/api/interview/step", remotePromptRequest{
		SystemPrompt: c.prompts.InterviewStepSystemPrompt(req.Phase),
		UserPrompt:   c.prompts.BuildInterviewStepUserPrompt(req),
	}, &payload)
	if err != nil {
		return nil, err
	}
	return &AgentDecision{
		Thought:    payload.Thought,
		Action:     normalizeAction(payload.Action),
		Message:    strings.TrimSpace(payload.Message),
		Evaluation: payload.Evaluation,
	}, nil
}

func (c *remoteAgentClient) GenerateReport(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	var payload reportPayload
	err := c.post(ctx, "/api/report", remotePromptRequest{
		SystemPrompt: c.prompts.ReportSystemPrompt(),
		UserPrompt:   c.prompts.BuildReportUserPrompt(req.Context, req.Entries),
	}, &payload)
	if err != nil {
		return nil, err
	}
	return reportFromPayload(payload, req), nil
}

func (c *remoteAgentClient) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("agent service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode agent response: %w", err)
	}
	return nil
}
