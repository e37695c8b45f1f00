package handlers

import (
	"net/http"
	"strconv"

	"Stash/internal/apperr"
	"Stash/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	userIDHeader = "X-User-ID"
	userIDKey    = "userID"
	causeKey     = "failureCause"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindState:           http.StatusConflict,
	apperr.KindUnauthorized:    http.StatusUnauthorized,
	apperr.KindExpired:         http.StatusGone,
	apperr.KindRevoked:         http.StatusGone,
	apperr.KindQuotaExceeded:   http.StatusTooManyRequests,
	apperr.KindInvalidPassword: http.StatusForbidden,
	apperr.KindInternal:        http.StatusInternalServerError,
}

func StatusFor(kind apperr.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(dto.Ok(data))
}

func fail(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		c.Locals(causeKey, err)
	}
	return c.Status(StatusFor(kind)).JSON(dto.Fail(string(kind), apperr.Message(err)))
}

func badRequest(c *fiber.Ctx, message string) error {
	return fail(c, apperr.Validation("%s", message))
}

// UserIdentity copies the caller id set by the upstream auth provider into
// the request locals. Requests without it continue; services reject them on
// mutating operations.
func UserIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(userIDKey, c.Get(userIDHeader))
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) string {
	userID, _ := c.Locals(userIDKey).(string)
	return userID
}

// LogFailures logs the cause of internal errors, which the envelope hides.
func LogFailures(log *logrus.Entry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if cause, ok := c.Locals(causeKey).(error); ok {
			log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
				"error":  cause.Error(),
			}).Error("request failed")
		}
		return err
	}
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid %s", name)
	}
	return uint(id), nil
}

func paramInt(c *fiber.Ctx, name string) (int, error) {
	value, err := strconv.Atoi(c.Params(name))
	if err != nil {
		return 0, apperr.Validation("invalid %s", name)
	}
	return value, nil
}

// optionalQueryID reads an optional numeric query parameter; absent or empty
// means nil (the root for folder ids).
func optionalQueryID(c *fiber.Ctx, name string) (*uint, error) {
	return optionalID(c.Query(name), name)
}

func formID(c *fiber.Ctx, name string) (*uint, error) {
	return optionalID(c.FormValue(name), name)
}

func optionalID(raw, name string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, apperr.Validation("invalid %s", name)
	}
	value := uint(id)
	return &value, nil
}

func accessMeta(c *fiber.Ctx, fileID *uint) dto.AccessMeta {
	return dto.AccessMeta{
		RemoteAddr: c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
		FileID:     fileID,
	}
}
