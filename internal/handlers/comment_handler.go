package handlers

import (
	"net/http"

	"Stash/internal/dto"
	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	service services.CommentService
}

func NewCommentHandler(service services.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	fileID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	comments, err := h.service.ListComments(c.UserContext(), fileID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	fileID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	comment, err := h.service.CreateComment(c.UserContext(), currentUser(c), fileID, req.Text, req.ParentCommentID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, comment)
}

func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	comment, err := h.service.UpdateComment(c.UserContext(), currentUser(c), id, req.Text)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.service.DeleteComment(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil)
}
