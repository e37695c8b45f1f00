package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"Stash/internal/apperr"
	"Stash/internal/dto"
	"Stash/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// ObjectHandler serves objects of the local storage driver through the
// signed URLs it hands out.
type ObjectHandler struct {
	gateway *storage.LocalGateway
	now     func() time.Time
}

func NewObjectHandler(gateway *storage.LocalGateway) *ObjectHandler {
	return &ObjectHandler{gateway: gateway, now: time.Now}
}

func (h *ObjectHandler) ServeObject(c *fiber.Ctx) error {
	objectPath := c.Params("*")
	if !h.gateway.VerifySignature(objectPath, c.Query("expires"), c.Query("signature"), h.now()) {
		return c.Status(http.StatusForbidden).JSON(dto.Fail("FORBIDDEN", "invalid or expired signature"))
	}
	reader, err := h.gateway.Open(c.UserContext(), objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return fail(c, apperr.NotFound("object not found"))
		}
		return fail(c, apperr.Internal(err, "open object"))
	}
	c.Type(filepath.Ext(objectPath))
	c.Set(fiber.HeaderContentDisposition, "inline; filename=\""+filepath.Base(objectPath)+"\"")
	return c.SendStream(reader)
}
