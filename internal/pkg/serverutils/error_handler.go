package serverutils

import (
	"errors"

	"ai-novelwriter-be/pkg/embedding"
	"ai-novelwriter-be/pkg/events"
	"ai-novelwriter-be/pkg/similarity"
	"ai-novelwriter-be/pkg/vectorstore"

	"github.com/gofiber/fiber/v2"
)

// ErrBadRequest marks malformed path or query parameters.
var ErrBadRequest = errors.New("bad request")

// StatusCode maps domain errors to HTTP statuses.
func StatusCode(err error) int {
	var fiberErr *fiber.Error
	var validationErr *ValidationError
	var statusErr *embedding.StatusError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErr),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, vectorstore.ErrInvalidContent),
		errors.Is(err, vectorstore.ErrEmptyQuery),
		errors.Is(err, embedding.ErrEmptyText),
		errors.Is(err, events.ErrUnknownEvent),
		errors.Is(err, similarity.ErrDimensionMismatch):
		return fiber.StatusBadRequest
	case errors.Is(err, vectorstore.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, vectorstore.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &statusErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusCode(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
