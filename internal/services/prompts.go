package services

import (
	"fmt"
	"strings"

	"github.com/twodc/pre-view-sub000/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// FeedbackSystemPrompt is shared by every feedback call.
func (pb *PromptBuilder) FeedbackSystemPrompt() string {
	return `You are a professional interviewer evaluating candidate answers in a simulated job interview.

Rules:
- Respond with JSON only, no markdown formatting.
- Be specific and constructive: cover strengths, weaknesses, and concrete improvement suggestions in 4-6 sentences.
- Scores are integers between 0 and 100.`
}

// BuildFeedbackUserPrompt creates the per-answer feedback prompt.
func (pb *PromptBuilder) BuildFeedbackUserPrompt(phase models.InterviewPhase, question, answer string) string {
	return fmt.Sprintf(`Evaluate the candidate's answer for the %s phase of the interview.

Question: %s

Answer: %s

Evaluation criteria: %s

Return your response in the following JSON format:
{
  "feedback": "<4-6 sentences of specific, constructive feedback>",
  "score": <integer 0-100>
}`, phase, question, answer, feedbackCriteria(phase))
}

func feedbackCriteria(phase models.InterviewPhase) string {
	switch phase {
	case models.PhaseOpening:
		return "clarity, relevant experience, sincerity of motivation, logical structure"
	case models.PhaseTechnical:
		return "technical accuracy, depth of understanding, practical applicability, problem-solving ability"
	case models.PhasePersonality:
		return "concrete examples (STAR method), self-awareness, collaboration, growth mindset"
	default:
		return "proactiveness, interest in the role, preparedness"
	}
}

// InterviewStepSystemPrompt returns the agent persona for an AI phase. The
// agent decides between continuing the current topic and moving on.
func (pb *PromptBuilder) InterviewStepSystemPrompt(phase models.InterviewPhase) string {
	focus := "the candidate's technical knowledge, architecture decisions, and hands-on experience"
	if phase == models.PhasePersonality {
		focus = "the candidate's collaboration, conflict resolution, leadership, and self-awareness"
	}
	return fmt.Sprintf(`You are an interview agent running the %s phase of a simulated job interview. You probe %s.

After each candidate answer you decide the next step:
- "GENERATE_QUESTION": ask one more question on the current topic (set "message" to the question text)
- "NEXT_PHASE": the phase has been covered well enough, move on (set "message" to null)

Keep at most two follow-ups on one topic. Respond with JSON only, no markdown:
{
  "thought": "<your reasoning>",
  "action": "GENERATE_QUESTION" or "NEXT_PHASE",
  "message": "<question text or null>",
  "evaluation": "<one-line evaluation of the latest answer>"
}`, phase, focus)
}

// BuildInterviewStepUserPrompt assembles the conversational state handed to
// the agent: context, optional bridge answer and documents, per-phase
// history, and the follow-up depth on the current topic.
func (pb *PromptBuilder) BuildInterviewStepUserPrompt(req StepRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Interview context: %s\n", req.Context)

	if req.BridgeAnswer != "" {
		fmt.Fprintf(&b, `
Bridge answer (the candidate's last answer from the opening phase):
%s

Extract the technologies, experiences, or keywords mentioned above and use them to generate the first question. If the answer is vague, fall back to the interview context.
`, req.BridgeAnswer)
	}

	if req.ResumeText != "" {
		fmt.Fprintf(&b, "\nResume:\n%s\n", truncate(req.ResumeText, 2000))
	}
	if req.PortfolioText != "" {
		fmt.Fprintf(&b, "\nPortfolio:\n%s\n", truncate(req.PortfolioText, 2000))
	}

	if len(req.PreviousQuestions) == 0 {
		b.WriteString("\nThis is the first question of the phase. Action must be GENERATE_QUESTION with one opening question for this phase.\n")
	} else {
		b.WriteString("\nConversation so far in this phase:\n")
		for i, q := range req.PreviousQuestions {
			answer := ""
			if i < len(req.PreviousAnswers) {
				answer = req.PreviousAnswers[i]
			}
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, q, i+1, answer)
		}
		fmt.Fprintf(&b, "\nFollow-up questions already asked on the current topic: %d\n", req.FollowUpDepth)
		b.WriteString("Decide whether to ask another question or move to the next phase.\n")
	}

	return b.String()
}

// ReportSystemPrompt is shared by every report call.
func (pb *PromptBuilder) ReportSystemPrompt() string {
	return `You are a professional interviewer writing the final report for a simulated job interview.

Respond with JSON only, no markdown:
{
  "summary": "<overall evaluation, 2-3 sentences>",
  "strengths": ["<strength>", ...],
  "improvements": ["<area for improvement>", ...],
  "recommended_topics": ["<study topic>", ...],
  "overall_score": <integer 0-100, weighted by the per-answer scores>
}`
}

// BuildReportUserPrompt lays out the full scored transcript for the report.
func (pb *PromptBuilder) BuildReportUserPrompt(context string, entries []ReportEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Position: %s\n\nQuestions, answers, and scores by phase:\n\n", context)
	for _, e := range entries {
		score := "n/a"
		if e.Score != nil {
			score = fmt.Sprintf("%d", *e.Score)
		}
		fmt.Fprintf(&b, "[%s] Question: %s\nAnswer: %s\nScore: %s\n\n", e.Phase, e.Question, e.Answer, score)
	}
	b.WriteString("Create a comprehensive report analyzing the candidate's performance.")
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
