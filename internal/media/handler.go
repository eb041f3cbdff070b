package media

import (
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"marketplace-service/internal/middleware"
	"marketplace-service/internal/pipeline"
)

// Handler exposes the direct media endpoints: authenticated upload and URL
// resolution. Resource-attached media rides the pipeline instead.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /media (multipart/form-data 'file')
func (h *Handler) Upload(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalUserID).(string)

	fh, err := c.FormFile("file")
	if err != nil {
		return pipeline.RespondError(c, &pipeline.ValidationError{
			Fields: []pipeline.FieldError{{Field: "file", Message: "is required"}},
		})
	}
	f, err := fh.Open()
	if err != nil {
		return pipeline.RespondError(c, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return pipeline.RespondError(c, err)
	}
	ct := fh.Header.Get(fiber.HeaderContentType)
	if ct == "" {
		ct = http.DetectContentType(data)
	}

	m, err := h.svc.UploadForUser(c.UserContext(), userID, fh.Filename, ct, data)
	if err != nil {
		return pipeline.RespondError(c, err)
	}
	return pipeline.Respond(c, fiber.StatusCreated, "media uploaded", m)
}

// GET /media/:id/url
func (h *Handler) GetURL(c *fiber.Ctx) error {
	url, err := h.svc.SignedURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return pipeline.RespondError(c, err)
	}
	return pipeline.Respond(c, fiber.StatusOK, "media url", fiber.Map{"url": url})
}

// DELETE /media/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Remove(c.UserContext(), c.Params("id")); err != nil {
		return pipeline.RespondError(c, err)
	}
	return pipeline.Respond(c, fiber.StatusOK, "media deleted", nil)
}
