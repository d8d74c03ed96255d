package services

import (
	"math/rand"

	"github.com/twodc/pre-view-sub000/internal/models"
)

// Template phases draw one question per slot so two runs of the same kind
// get the same structure with varied wording.
var templateSlots = map[models.InterviewPhase][][]string{
	models.PhaseOpening: {
		{
			"Please introduce yourself briefly.",
			"Tell us about yourself and your background in a few sentences.",
			"Could you start with a short self-introduction?",
		},
		{
			"Why did you apply for this position?",
			"What motivated you to pursue this role?",
			"What drew you to this position in particular?",
		},
		{
			"What project or experience are you most proud of? Walk us through it.",
			"Tell us about the most meaningful project you have worked on recently.",
			"Which of your experiences best demonstrates your strengths for this role?",
		},
	},
	models.PhaseClosing: {
		{
			"Where do you see yourself growing over the next few years?",
			"What are your career goals after joining this role?",
			"How do you plan to keep developing your skills going forward?",
		},
		{
			"Is there anything you would like to add or ask before we wrap up?",
			"Do you have any final remarks or questions for us?",
			"Before we finish, is there anything else you want us to know about you?",
		},
	},
}

// fallbackQuestions keep an AI phase moving when the agent cannot produce a
// question.
var fallbackQuestions = map[models.InterviewPhase][]string{
	models.PhaseTechnical: {
		"Describe the architecture of a system you built recently. What trade-offs did you make and why?",
		"Tell us about the hardest technical problem you have debugged. How did you approach it?",
		"How do you decide when to refactor existing code versus rewriting it?",
		"Walk us through how you would design an API for a feature you shipped recently.",
		"What performance bottleneck have you diagnosed in production, and how did you fix it?",
	},
	models.PhasePersonality: {
		"Tell us about a time you disagreed with a teammate. How did you resolve it?",
		"Describe a situation where you received difficult feedback. What did you do with it?",
		"When a project deadline was at risk, how did you handle the pressure?",
		"Tell us about a time you had to learn something new quickly to unblock your team.",
		"Describe a failure you experienced at work and what you took away from it.",
	},
}

// templateQuestionTexts picks one random question per slot for a template
// phase, in slot order.
func templateQuestionTexts(phase models.InterviewPhase) []string {
	slots := templateSlots[phase]
	texts := make([]string, 0, len(slots))
	for _, slot := range slots {
		texts = append(texts, slot[rand.Intn(len(slot))])
	}
	return texts
}

// fallbackQuestion returns a canned question for an AI phase.
func fallbackQuestion(phase models.InterviewPhase) string {
	bank, ok := fallbackQuestions[phase]
	if !ok || len(bank) == 0 {
		bank = fallbackQuestions[models.PhaseTechnical]
	}
	return bank[rand.Intn(len(bank))]
}
