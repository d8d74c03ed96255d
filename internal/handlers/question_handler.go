package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/twodc/pre-view-sub000/internal/services"
)

type QuestionHandler struct {
	orchestrator services.QuestionOrchestrator
}

func NewQuestionHandler(orchestrator services.QuestionOrchestrator) *QuestionHandler {
	return &QuestionHandler{orchestrator: orchestrator}
}

func (h *QuestionHandler) HandleList(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	questions, err := h.orchestrator.ListQuestions(c.Context(), id, member)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(questions)
}
