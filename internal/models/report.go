package models

// Report is the whole-interview AI summary. Its JSON form is what gets
// cached on the interview row, so field names are part of the stored format.
type Report struct {
	Summary           string         `json:"summary"`
	Strengths         []string       `json:"strengths"`
	Improvements      []string       `json:"improvements"`
	RecommendedTopics []string       `json:"recommended_topics"`
	OverallScore      int            `json:"overall_score"`
	Details           []ReportDetail `json:"details"`
}

// ReportDetail is the per-question breakdown inside a report.
type ReportDetail struct {
	Phase    InterviewPhase `json:"phase"`
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Score    *int           `json:"score,omitempty"`
	Feedback string         `json:"feedback,omitempty"`
}
