package models

import "time"

type InterviewCreateRequest struct {
	Title      string   `json:"title"`
	Kind       string   `json:"kind"`
	Position   string   `json:"position"`
	Level      string   `json:"level"`
	TechStacks []string `json:"tech_stacks"`
}

type AnswerCreateRequest struct {
	Content string `json:"content"`
}

type TextUpdateRequest struct {
	Text string `json:"text"`
}

type QuestionResponse struct {
	ID         string         `json:"id"`
	Phase      InterviewPhase `json:"phase"`
	Content    string         `json:"content"`
	Sequence   int            `json:"sequence"`
	IsFollowUp bool           `json:"is_follow_up"`
	IsAnswered bool           `json:"is_answered"`
}

func QuestionResponseFrom(q *Question) QuestionResponse {
	return QuestionResponse{
		ID:         q.ID.String(),
		Phase:      q.Phase,
		Content:    q.Content,
		Sequence:   q.Sequence,
		IsFollowUp: q.IsFollowUp,
		IsAnswered: q.IsAnswered,
	}
}

type QuestionListResponse struct {
	InterviewID string             `json:"interview_id"`
	Questions   []QuestionResponse `json:"questions"`
}

// AnswerResponse is what a submission returns: the stored answer plus the
// follow-up question, when the agent decided to generate one.
type AnswerResponse struct {
	ID           string            `json:"id"`
	QuestionID   string            `json:"question_id"`
	Content      string            `json:"content"`
	Feedback     string            `json:"feedback"`
	Score        *int              `json:"score,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	NextQuestion *QuestionResponse `json:"next_question,omitempty"`
}

func AnswerResponseFrom(a *Answer, next *Question) AnswerResponse {
	resp := AnswerResponse{
		ID:         a.ID.String(),
		QuestionID: a.QuestionID.String(),
		Content:    a.Content,
		Feedback:   a.Feedback,
		Score:      a.Score,
		CreatedAt:  a.CreatedAt,
	}
	if next != nil {
		q := QuestionResponseFrom(next)
		resp.NextQuestion = &q
	}
	return resp
}

// TranscriptEntry pairs a question with its answer (nil until answered) in
// the result view.
type TranscriptEntry struct {
	Question QuestionResponse `json:"question"`
	Answer   *AnswerResponse  `json:"answer,omitempty"`
}

type InterviewResultResponse struct {
	InterviewID string            `json:"interview_id"`
	Title       string            `json:"title"`
	Kind        InterviewKind     `json:"kind"`
	Status      InterviewStatus   `json:"status"`
	Transcript  []TranscriptEntry `json:"transcript"`
	Report      *Report           `json:"report,omitempty"`
}
