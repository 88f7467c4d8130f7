package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Enrolement-api/internal/application/dto"
	appenrolement "github.com/jhoicas/Enrolement-api/internal/application/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain"
	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

// EnrolementHandler formulario de enrôlement y operaciones directas sobre el almacén remoto.
type EnrolementHandler struct {
	sync   *appenrolement.Synchronizer
	remote *appenrolement.RemoteUseCase
}

// NewEnrolementHandler construye el handler.
func NewEnrolementHandler(sync *appenrolement.Synchronizer, remote *appenrolement.RemoteUseCase) *EnrolementHandler {
	return &EnrolementHandler{sync: sync, remote: remote}
}

// Submit godoc
// @Summary      Enviar formulario de enrôlement
// @Description  Guarda la copia local y después intenta el almacén remoto. 201 si quedó confirmado, 202 si solo se guardó en local.
// @Tags         enrolements
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SubmitEnrolementRequest  true  "Datos del formulario"
// @Success      201   {object}  dto.SubmitEnrolementResponse
// @Success      202   {object}  dto.SubmitEnrolementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/enrolements [post]
func (h *EnrolementHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitEnrolementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	out, err := h.sync.Submit(c.UserContext(), in.ToInput())
	if err != nil {
		return writeError(c, err)
	}

	resp := dto.SubmitEnrolementResponse{
		Status:     string(out.Status),
		LocalID:    out.Local.LocalID,
		Enrolement: dto.ToEnrolementResponse(out.Record),
	}
	if out.Status == appenrolement.OutcomeCommitted {
		resp.Message = out.Confirmation()
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
	resp.Error = storeErrorBody(out.Err)
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// List godoc
// @Summary      Listar enrôlements del almacén remoto
// @Tags         enrolements
// @Produce      json
// @Param        meterType  query     string  false  "prepaid | postpaid"
// @Param        usage      query     string  false  "domicile | entreprise | campagne | appartement"
// @Param        from       query     string  false  "Desde (RFC3339 o YYYY-MM-DD, inclusive)"
// @Param        to         query     string  false  "Hasta (RFC3339 o YYYY-MM-DD, exclusivo)"
// @Success      200        {object}  dto.ListResponse[dto.EnrolementResponse]
// @Failure      400        {object}  dto.ErrorResponse
// @Failure      502        {object}  dto.ErrorResponse
// @Router       /api/enrolements [get]
func (h *EnrolementHandler) List(c *fiber.Ctx) error {
	filter, err := parseRemoteFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.remote.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(dto.ToEnrolementResponses(list)))
}

// Delete godoc
// @Summary      Borrar un enrôlement del almacén remoto
// @Description  Un id inexistente se considera ya borrado.
// @Tags         enrolements
// @Param        id   path  string  true  "ID remoto"
// @Success      204
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/enrolements/{id} [delete]
func (h *EnrolementHandler) Delete(c *fiber.Ctx) error {
	if err := h.remote.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parseRemoteFilter lee meterType, usage, from y to de la query string.
func parseRemoteFilter(c *fiber.Ctx) (repository.RemoteFilter, error) {
	f := repository.RemoteFilter{
		MeterType: entity.MeterType(c.Query("meterType")),
		Usage:     entity.Usage(c.Query("usage")),
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := parseTime(raw)
		if err != nil {
			return f, fmt.Errorf("%w: parámetro %s inválido: %q", domain.ErrInvalidInput, p.name, raw)
		}
		*p.dst = &t
	}
	return f, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(rules.DateLayout, raw, time.Local)
}
