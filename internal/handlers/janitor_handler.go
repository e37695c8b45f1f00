package handlers

import (
	"errors"
	"net/http"

	"Stash/internal/apperr"
	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
)

type JanitorHandler struct {
	janitor services.JanitorService
}

func NewJanitorHandler(janitor services.JanitorService) *JanitorHandler {
	return &JanitorHandler{janitor: janitor}
}

func (h *JanitorHandler) ForceClean(c *fiber.Ctx) error {
	if currentUser(c) == "" {
		return fail(c, apperr.Unauthorized("authentication required"))
	}
	if err := h.janitor.ForceStartCleanCycle(); err != nil {
		if errors.Is(err, services.ErrCleaningInProgress) {
			return fail(c, apperr.State("%s", err.Error()))
		}
		return fail(c, err)
	}
	return respond(c, http.StatusAccepted, map[string]interface{}{"cleaning": true})
}

func (h *JanitorHandler) Status(c *fiber.Ctx) error {
	return respond(c, http.StatusOK, map[string]interface{}{"cleaning": h.janitor.IsCleaning()})
}
