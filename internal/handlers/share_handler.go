package handlers

import (
	"net/http"
	"strconv"

	"Stash/internal/dto"
	"Stash/internal/mapper"
	"Stash/internal/models"
	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
)

const sharePasswordHeader = "X-Share-Password"

type ShareHandler struct {
	service services.ShareService
}

func NewShareHandler(service services.ShareService) *ShareHandler {
	return &ShareHandler{service: service}
}

func (h *ShareHandler) CreateShareLink(c *fiber.Ctx) error {
	var req dto.CreateShareLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	link, err := h.service.CreateShareLink(c.UserContext(), currentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, mapper.ToShareLinkView(link))
}

func (h *ShareHandler) ListShareLinks(c *fiber.Ctx) error {
	targetID, err := strconv.ParseUint(c.Query("target_id"), 10, 32)
	if err != nil {
		return badRequest(c, "invalid target_id")
	}
	links, err := h.service.ListShareLinks(c.UserContext(), models.ShareTargetType(c.Query("target_type")), uint(targetID))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, mapper.ToShareLinkViews(links))
}

func (h *ShareHandler) RevokeShareLink(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.service.RevokeShareLink(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *ShareHandler) ListAccessLogs(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	logs, err := h.service.ListShareAccessLogs(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, logs)
}

// ValidateShareLink is public. The password travels in the X-Share-Password
// header so it never lands in access logs as part of the URL.
func (h *ShareHandler) ValidateShareLink(c *fiber.Ctx) error {
	validation, err := h.service.ValidateShareLink(c.UserContext(), c.Params("token"), sharePassword(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, validation)
}

func (h *ShareHandler) RecordAccess(c *fiber.Ctx) error {
	var req dto.ShareAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	if err := h.service.RecordShareAccess(c.UserContext(), c.Params("token"), sharePassword(c), req.Kind, accessMeta(c, req.FileID)); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *ShareHandler) Download(c *fiber.Ctx) error {
	var req dto.ShareAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	url, err := h.service.GetSharedDownloadURL(c.UserContext(), c.Params("token"), sharePassword(c), accessMeta(c, req.FileID))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, url)
}

func (h *ShareHandler) Preview(c *fiber.Ctx) error {
	var req dto.ShareAccessRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	url, err := h.service.GetSharedPreviewURL(c.UserContext(), c.Params("token"), sharePassword(c), accessMeta(c, req.FileID))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, url)
}

func sharePassword(c *fiber.Ctx) *string {
	value := c.Get(sharePasswordHeader)
	if value == "" {
		return nil
	}
	return &value
}
