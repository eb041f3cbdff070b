package pipeline

import "github.com/gofiber/fiber/v2"

// Envelope is the uniform response wrapper every handler returns.
type Envelope struct {
	Success    bool         `json:"success"`
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	Data       any          `json:"data"`
	Errors     []FieldError `json:"errors,omitempty"`
}

func Respond(c *fiber.Ctx, status int, msg string, data any) error {
	return c.Status(status).JSON(Envelope{
		Success:    true,
		StatusCode: status,
		Message:    msg,
		Data:       data,
	})
}

// RespondError translates a taxonomy error into its envelope. Field-level
// detail is attached only for validation failures; everything else carries a
// human-readable message alone.
func RespondError(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	env := Envelope{
		Success:    false,
		StatusCode: status,
		Message:    err.Error(),
	}
	if ve, ok := err.(*ValidationError); ok {
		env.Errors = ve.Fields
	}
	if status == fiber.StatusInternalServerError {
		// internal detail stays in the logs
		env.Message = "internal server error"
	}
	return c.Status(status).JSON(env)
}
