package handlers

import (
	"net/http"

	"Stash/internal/dto"
	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
)

type FolderHandler struct {
	service services.FolderService
}

func NewFolderHandler(service services.FolderService) *FolderHandler {
	return &FolderHandler{service: service}
}

func (h *FolderHandler) CreateFolder(c *fiber.Ctx) error {
	var req dto.CreateFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	folder, err := h.service.CreateFolder(c.UserContext(), currentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, folder)
}

func (h *FolderHandler) GetFolder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	folder, err := h.service.GetFolder(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, folder)
}

func (h *FolderHandler) UpdateFolder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.UpdateFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	folder, err := h.service.UpdateFolder(c.UserContext(), currentUser(c), id, req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, folder)
}

func (h *FolderHandler) MoveFolder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req dto.MoveFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	folder, err := h.service.MoveFolder(c.UserContext(), currentUser(c), id, req.TargetParentID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, folder)
}

func (h *FolderHandler) DeleteFolder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	opts := dto.DeleteFolderOptions{
		MoveFilesToParent: c.QueryBool("move_files_to_parent"),
		Recursive:         c.QueryBool("recursive"),
	}
	if err := h.service.DeleteFolder(c.UserContext(), currentUser(c), id, opts); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *FolderHandler) GetFolderContents(c *fiber.Ctx) error {
	folderID, err := optionalQueryID(c, "folder_id")
	if err != nil {
		return fail(c, err)
	}
	contents, err := h.service.GetFolderContents(c.UserContext(), folderID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, contents)
}

func (h *FolderHandler) GetBreadcrumbs(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	chain, err := h.service.GetBreadcrumbs(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, chain)
}
