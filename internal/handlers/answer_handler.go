package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/twodc/pre-view-sub000/internal/models"
	"github.com/twodc/pre-view-sub000/internal/services"
)

type AnswerHandler struct {
	answerService services.AnswerService
}

func NewAnswerHandler(answerService services.AnswerService) *AnswerHandler {
	return &AnswerHandler{answerService: answerService}
}

func (h *AnswerHandler) HandleSubmit(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}
	interviewID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	questionID, err := pathUUID(c, "questionId")
	if err != nil {
		return err
	}

	var req models.AnswerCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content is required",
		})
	}

	answer, err := h.answerService.SubmitAnswer(c.Context(), interviewID, questionID, member, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(answer)
}
