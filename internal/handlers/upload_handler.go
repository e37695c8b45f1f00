package handlers

import (
	"bytes"
	"net/http"

	"Stash/internal/dto"
	"Stash/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	service services.UploadService
}

func NewUploadHandler(service services.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) CreateSession(c *fiber.Ctx) error {
	var req dto.CreateUploadSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid input")
	}
	session, err := h.service.CreateUploadSession(c.UserContext(), currentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, session)
}

// AppendChunk takes the raw chunk bytes as the request body.
func (h *UploadHandler) AppendChunk(c *fiber.Ctx) error {
	index, err := paramInt(c, "index")
	if err != nil {
		return fail(c, err)
	}
	body := c.Body()
	progress, err := h.service.AppendChunk(c.UserContext(), currentUser(c), c.Params("token"), index, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, progress)
}

func (h *UploadHandler) CompleteUpload(c *fiber.Ctx) error {
	var req dto.CompleteUploadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid input")
		}
	}
	req.SessionToken = c.Params("token")
	file, err := h.service.CompleteUpload(c.UserContext(), currentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, file)
}

func (h *UploadHandler) AbortUpload(c *fiber.Ctx) error {
	if err := h.service.AbortUpload(c.UserContext(), currentUser(c), c.Params("token")); err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *UploadHandler) GetSession(c *fiber.Ctx) error {
	view, err := h.service.GetUploadSession(c.UserContext(), c.Params("token"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, view)
}

// UploadDirect accepts a multipart form with a "file" part and optional
// display_name, mime_type and folder_id fields.
func (h *UploadHandler) UploadDirect(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "invalid file")
	}
	folderID, err := optionalQueryID(c, "folder_id")
	if err != nil {
		return fail(c, err)
	}
	if folderID == nil {
		if folderID, err = formID(c, "folder_id"); err != nil {
			return fail(c, err)
		}
	}
	content, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "invalid file")
	}
	defer content.Close()

	file, err := h.service.UploadDirect(c.UserContext(), currentUser(c), dto.DirectUploadRequest{
		FileName:    fileHeader.Filename,
		DisplayName: c.FormValue("display_name"),
		MimeType:    c.FormValue("mime_type"),
		FolderID:    folderID,
		Size:        fileHeader.Size,
		Reader:      content,
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, file)
}
