package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twodc/pre-view-sub000/internal/config"
	"github.com/twodc/pre-view-sub000/internal/models"
)

type completionCall struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newCompletionServer serves an OpenAI-compatible chat completion endpoint
// whose behavior is keyed by the requested model.
func newCompletionServer(t *testing.T, respond func(call completionCall, w http.ResponseWriter)) (*httptest.Server, *[]completionCall) {
	t.Helper()
	var calls []completionCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		var call completionCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		calls = append(calls, call)
		respond(call, w)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
}

func writeRateLimit(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": "rate limit exceeded",
			"type":    "requests",
		},
	})
}

func chatConfig(baseURL string) config.AgentConfig {
	return config.AgentConfig{
		Mode:          config.AgentModeDirect,
		APIKey:        "test-key",
		BaseURL:       baseURL,
		PrimaryModel:  "primary-model",
		FallbackModel: "fallback-model",
		Temperature:   0.7,
		MaxTokens:     1024,
		Timeout:       5 * time.Second,
	}
}

func TestChatAgentFallsBackOnRateLimit(t *testing.T) {
	srv, calls := newCompletionServer(t, func(call completionCall, w http.ResponseWriter) {
		if call.Model == "primary-model" {
			writeRateLimit(w)
			return
		}
		writeCompletion(w, `{"feedback": "Clear and well structured.", "score": 85}`)
	})

	client := NewChatAgentClient(chatConfig(srv.URL), nil)
	result, err := client.GenerateFeedback(context.Background(), FeedbackRequest{
		Phase:    models.PhaseOpening,
		Question: "Please introduce yourself briefly.",
		Answer:   "I am a backend engineer.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Clear and well structured.", result.Feedback)
	require.NotNil(t, result.Score)
	assert.Equal(t, 85, *result.Score)

	require.Len(t, *calls, 2)
	assert.Equal(t, "primary-model", (*calls)[0].Model)
	assert.Equal(t, "fallback-model", (*calls)[1].Model)
}

func TestChatAgentBothModelsRateLimited(t *testing.T) {
	srv, calls := newCompletionServer(t, func(call completionCall, w http.ResponseWriter) {
		writeRateLimit(w)
	})

	client := NewChatAgentClient(chatConfig(srv.URL), nil)
	_, err := client.GenerateFeedback(context.Background(), FeedbackRequest{})
	require.Error(t, err)
	assert.Len(t, *calls, 2)
}

func TestChatAgentPrimarySucceeds(t *testing.T) {
	srv, calls := newCompletionServer(t, func(call completionCall, w http.ResponseWriter) {
		writeCompletion(w, `{"thought": "good depth", "action": "GENERATE_QUESTION", "message": "How does the scheduler work?", "evaluation": "solid"}`)
	})

	client := NewChatAgentClient(chatConfig(srv.URL), nil)
	decision, err := client.ProcessInterviewStep(context.Background(), StepRequest{Phase: models.PhaseTechnical})
	require.NoError(t, err)
	assert.Equal(t, ActionGenerateQuestion, decision.Action)
	assert.Equal(t, "How does the scheduler work?", decision.Message)

	require.Len(t, *calls, 1)
	assert.Equal(t, "primary-model", (*calls)[0].Model)
}

func TestChatAgentUnknownActionAdvances(t *testing.T) {
	srv, _ := newCompletionServer(t, func(call completionCall, w http.ResponseWriter) {
		writeCompletion(w, `{"thought": "confused", "action": "ESCALATE", "message": "", "evaluation": ""}`)
	})

	client := NewChatAgentClient(chatConfig(srv.URL), nil)
	decision, err := client.ProcessInterviewStep(context.Background(), StepRequest{Phase: models.PhaseTechnical})
	require.NoError(t, err)
	assert.Equal(t, ActionNextPhase, decision.Action)
}

func TestChatAgentReportParsesCodeFencedJSON(t *testing.T) {
	srv, _ := newCompletionServer(t, func(call completionCall, w http.ResponseWriter) {
		writeCompletion(w, "```json\n{\"summary\": \"Strong candidate.\", \"strengths\": [\"Go\"], \"improvements\": [], \"recommended_topics\": [\"profiling\"], \"overall_score\": 88}\n```")
	})

	score := 90
	client := NewChatAgentClient(chatConfig(srv.URL), nil)
	result, err := client.GenerateReport(context.Background(), ReportRequest{
		Context: "Backend Engineer Junior",
		Entries: []ReportEntry{{Phase: models.PhaseOpening, Question: "Q", Answer: "A", Score: &score}},
	})
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, "Strong candidate.", result.Report.Summary)
	assert.Equal(t, 88, result.Report.OverallScore)
	require.Len(t, result.Report.Details, 1)
	assert.Equal(t, "Q", result.Report.Details[0].Question)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"no json", "nothing here", "nothing here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.in))
		})
	}
}
