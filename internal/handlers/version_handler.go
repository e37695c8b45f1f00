package handlers

import (
	"net/http"

	"Stash/internal/dto"
	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
)

type VersionHandler struct {
	service services.VersionService
}

func NewVersionHandler(service services.VersionService) *VersionHandler {
	return &VersionHandler{service: service}
}

func (h *VersionHandler) ListVersions(c *fiber.Ctx) error {
	fileID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	versions, err := h.service.ListVersions(c.UserContext(), fileID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, versions)
}

// CreateVersion registers content that is already in storage as the file's
// new current version.
func (h *VersionHandler) CreateVersion(c *fiber.Ctx) error {
	fileID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.CreateVersionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	req.FileID = fileID
	file, err := h.service.CreateVersion(c.UserContext(), currentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, file)
}

func (h *VersionHandler) UploadVersion(c *fiber.Ctx) error {
	fileID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "invalid file")
	}
	content, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "invalid file")
	}
	defer content.Close()

	file, err := h.service.UploadVersion(c.UserContext(), currentUser(c), fileID, content, fileHeader.Size,
		c.FormValue("mime_type"), c.FormValue("change_description"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, file)
}

func (h *VersionHandler) RestoreVersion(c *fiber.Ctx) error {
	fileID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	number, err := paramInt(c, "number")
	if err != nil {
		return fail(c, err)
	}
	file, err := h.service.RestoreVersion(c.UserContext(), currentUser(c), fileID, number)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, file)
}

func (h *VersionHandler) DeleteVersion(c *fiber.Ctx) error {
	fileID, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	number, err := paramInt(c, "number")
	if err != nil {
		return fail(c, err)
	}
	if err := h.service.DeleteVersion(c.UserContext(), currentUser(c), fileID, number); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil)
}
