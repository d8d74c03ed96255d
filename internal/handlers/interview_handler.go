package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/twodc/pre-view-sub000/internal/models"
	"github.com/twodc/pre-view-sub000/internal/services"
)

type InterviewHandler struct {
	interviewService services.InterviewService
}

func NewInterviewHandler(interviewService services.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviewService: interviewService}
}

func (h *InterviewHandler) HandleCreate(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}

	var req models.InterviewCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "title is required",
		})
	}
	if !models.InterviewKind(req.Kind).Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "kind must be one of FULL, TECHNICAL, PERSONALITY",
		})
	}

	interview, err := h.interviewService.CreateInterview(c.Context(), member, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(interview)
}

func (h *InterviewHandler) HandleStart(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	interview, err := h.interviewService.StartInterview(c.Context(), id, member)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(interview)
}

func (h *InterviewHandler) HandleGet(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	interview, err := h.interviewService.GetInterview(c.Context(), id, member)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(interview)
}

func (h *InterviewHandler) HandleList(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}

	interviews, err := h.interviewService.ListInterviews(c.Context(), member)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"interviews": interviews,
	})
}

func (h *InterviewHandler) HandleDelete(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.interviewService.DeleteInterview(c.Context(), id, member); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *InterviewHandler) HandleUpdateResume(c *fiber.Ctx) error {
	return h.handleTextUpdate(c, h.interviewService.UpdateResumeText)
}

func (h *InterviewHandler) HandleUpdatePortfolio(c *fiber.Ctx) error {
	return h.handleTextUpdate(c, h.interviewService.UpdatePortfolioText)
}

func (h *InterviewHandler) handleTextUpdate(c *fiber.Ctx, update func(ctx context.Context, id, member uuid.UUID, text string) error) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req models.TextUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	if err := update(c.Context(), id, member, req.Text); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *InterviewHandler) HandleGetResult(c *fiber.Ctx) error {
	member, err := memberID(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	result, err := h.interviewService.GetResult(c.Context(), id, member)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(result)
}
