package handlers

import (
	"net/http"

	"Stash/internal/dto"
	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
)

type FileHandler struct {
	service services.FileService
}

func NewFileHandler(service services.FileService) *FileHandler {
	return &FileHandler{service: service}
}

func (h *FileHandler) CreateFile(c *fiber.Ctx) error {
	var req dto.CreateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	file, err := h.service.CreateFile(c.UserContext(), currentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, file)
}

func (h *FileHandler) GetFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	file, err := h.service.GetFile(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, file)
}

func (h *FileHandler) ListFiles(c *fiber.Ctx) error {
	folderID, err := optionalQueryID(c, "folder_id")
	if err != nil {
		return fail(c, err)
	}
	files, err := h.service.GetFiles(c.UserContext(), folderID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, files)
}

func (h *FileHandler) UpdateFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.UpdateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	file, err := h.service.UpdateFile(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, file)
}

func (h *FileHandler) DeleteFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if err := h.service.DeleteFile(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *FileHandler) RestoreFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	file, err := h.service.RestoreFile(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, file)
}

func (h *FileHandler) MoveFile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.MoveFileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	file, err := h.service.MoveFile(c.UserContext(), currentUser(c), id, req.FolderID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, file)
}

func (h *FileHandler) MoveFiles(c *fiber.Ctx) error {
	var req dto.MoveFilesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	if len(req.IDs) == 0 {
		return badRequest(c, "ids are required")
	}
	results, err := h.service.MoveFiles(c.UserContext(), currentUser(c), req.IDs, req.FolderID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, results)
}

func (h *FileHandler) GetDownloadURL(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	url, err := h.service.GetFileDownloadURL(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, url)
}

func (h *FileHandler) ListDeletedFiles(c *fiber.Ctx) error {
	files, err := h.service.ListDeletedFiles(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, files)
}
