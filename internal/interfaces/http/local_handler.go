package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Enrolement-api/internal/application/dto"
	appenrolement "github.com/jhoicas/Enrolement-api/internal/application/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/application/export"
)

// LocalHandler registro local de envíos ("Mes enrôlements"): listado, borrado, exportación y reintento.
type LocalHandler struct {
	local  *appenrolement.LocalUseCase
	sync   *appenrolement.Synchronizer
	export *export.ExportUseCase
}

// NewLocalHandler construye el handler.
func NewLocalHandler(local *appenrolement.LocalUseCase, sync *appenrolement.Synchronizer, exp *export.ExportUseCase) *LocalHandler {
	return &LocalHandler{local: local, sync: sync, export: exp}
}

// List godoc
// @Summary      Listar el registro local
// @Tags         local
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.LocalEnrolementResponse]
// @Router       /api/local/enrolements [get]
func (h *LocalHandler) List(c *fiber.Ctx) error {
	list, err := h.local.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(dto.ToLocalEnrolementResponses(list)))
}

// Remove godoc
// @Summary      Borrar una copia local
// @Tags         local
// @Param        localId  path  string  true  "ID local"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/local/enrolements/{localId} [delete]
func (h *LocalHandler) Remove(c *fiber.Ctx) error {
	if err := h.local.Remove(c.UserContext(), c.Params("localId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export godoc
// @Summary      Exportar el registro local a PDF
// @Tags         local
// @Produce      application/pdf
// @Param        name  query  string  false  "Nombre del archivo"  default(MesEnrolements)
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/local/export.pdf [get]
func (h *LocalHandler) Export(c *fiber.Ctx) error {
	pdf, name, err := h.export.ExportLocal(c.UserContext(), c.Query("name"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(pdf)
}

// Sync godoc
// @Summary      Reintentar la sincronización de las copias pendientes
// @Tags         local
// @Produce      json
// @Success      200  {object}  dto.RetryReportResponse
// @Router       /api/local/sync [post]
func (h *LocalHandler) Sync(c *fiber.Ctx) error {
	report, err := h.sync.RetryPending(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RetryReportResponse{
		Attempted: report.Attempted,
		Committed: report.Committed,
		Failed:    report.Failed,
	})
}
