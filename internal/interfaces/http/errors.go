package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Enrolement-api/internal/application/dto"
	"github.com/jhoicas/Enrolement-api/internal/domain"
	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
)

// errorStatus traduce un error de dominio a estado HTTP y cuerpo.
//
//   - ValidationError / ErrInvalidInput → 400 VALIDATION (con fields si los hay)
//   - ErrNotFound                       → 404 NOT_FOUND
//   - ErrNothingToExport                → 404 NOTHING_TO_EXPORT
//   - ErrViewClosed                     → 410 VIEW_CLOSED
//   - StoreError Validation             → 422 REMOTE_VALIDATION
//   - StoreError Network / Unknown      → 502 NETWORK / UNKNOWN (mensaje tal cual)
//   - otro                              → 500 INTERNAL
func errorStatus(err error) (int, dto.ErrorResponse) {
	var verr *rules.ValidationError
	var serr *domain.StoreError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: "formulaire invalide", Fields: verr.Fields}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrNothingToExport):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOTHING_TO_EXPORT", Message: domain.ErrNothingToExport.Error()}
	case errors.Is(err, domain.ErrViewClosed):
		return fiber.StatusGone, dto.ErrorResponse{Code: "VIEW_CLOSED", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.As(err, &serr):
		if errors.Is(err, domain.ErrRemoteValidation) {
			return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "REMOTE_VALIDATION", Message: err.Error()}
		}
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: domain.StoreErrorCode(err), Message: err.Error()}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	}
}

// writeError responde con el error traducido.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorStatus(err)
	return c.Status(status).JSON(body)
}

// storeErrorBody cuerpo de un fallo remoto incluido en una respuesta exitosa (LocalOnly).
func storeErrorBody(err error) *dto.ErrorResponse {
	if err == nil {
		return nil
	}
	return &dto.ErrorResponse{Code: domain.StoreErrorCode(err), Message: err.Error()}
}
