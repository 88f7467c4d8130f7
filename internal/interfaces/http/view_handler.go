package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/Enrolement-api/internal/application/dto"
	"github.com/jhoicas/Enrolement-api/internal/application/live"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

const sseKeepAlive = 15 * time.Second

// ViewHandler vistas vivas: lista sincronizada, búsqueda, estadísticas y flujo SSE.
type ViewHandler struct {
	views *live.Manager
	log   *logger.Logger
}

// NewViewHandler construye el handler.
func NewViewHandler(views *live.Manager, log *logger.Logger) *ViewHandler {
	return &ViewHandler{views: views, log: log.Component("http-views")}
}

// Open godoc
// @Summary      Abrir una vista viva
// @Description  Carga la colección inicial y se suscribe a los cambios. Si la carga falla la vista queda vacía con load_error.
// @Tags         views
// @Produce      json
// @Success      201  {object}  dto.ViewOpenedResponse
// @Router       /api/views [post]
func (h *ViewHandler) Open(c *fiber.Ctx) error {
	v, err := h.views.Open(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	resp := dto.ViewOpenedResponse{ID: v.ID()}
	if loadErr := v.LoadErr(); loadErr != nil {
		resp.LoadError = loadErr.Error()
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Close godoc
// @Summary      Cerrar una vista viva
// @Tags         views
// @Param        id   path  string  true  "ID de la vista"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/views/{id} [delete]
func (h *ViewHandler) Close(c *fiber.Ctx) error {
	if err := h.views.Close(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List godoc
// @Summary      Registros de la vista (con búsqueda)
// @Tags         views
// @Produce      json
// @Param        id  path      string  true   "ID de la vista"
// @Param        q   query     string  false  "Texto en nombre, dirección o número de compteur"
// @Success      200 {object}  dto.ListResponse[dto.EnrolementResponse]
// @Failure      404 {object}  dto.ErrorResponse
// @Router       /api/views/{id}/enrolements [get]
func (h *ViewHandler) List(c *fiber.Ctx) error {
	v, err := h.views.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(dto.ToEnrolementResponses(v.Filter(c.Query("q")))))
}

// RemoveRecord godoc
// @Summary      Quitar un registro solo de esta vista
// @Tags         views
// @Param        id        path  string  true  "ID de la vista"
// @Param        recordId  path  string  true  "ID del registro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      410  {object}  dto.ErrorResponse
// @Router       /api/views/{id}/enrolements/{recordId} [delete]
func (h *ViewHandler) RemoveRecord(c *fiber.Ctx) error {
	v, err := h.views.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if _, err := v.RemoveLocally(c.Params("recordId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteRecordRemote godoc
// @Summary      Borrar un registro del almacén remoto desde la vista
// @Description  Borra en el almacén y, si lo logra (o ya no existía), lo quita de la vista. Un fallo remoto deja la vista intacta.
// @Tags         views
// @Param        id        path  string  true  "ID de la vista"
// @Param        recordId  path  string  true  "ID remoto del registro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      410  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/views/{id}/enrolements/{recordId}/remote [delete]
func (h *ViewHandler) DeleteRecordRemote(c *fiber.Ctx) error {
	v, err := h.views.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if err := v.DeleteRemote(c.UserContext(), c.Params("recordId")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Stats godoc
// @Summary      Estadísticas de la vista
// @Tags         views
// @Produce      json
// @Param        id   path      string  true  "ID de la vista"
// @Success      200  {object}  dto.StatsDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/views/{id}/stats [get]
func (h *ViewHandler) Stats(c *fiber.Ctx) error {
	v, err := h.views.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToStatsDTO(v.Stats()))
}

// Events godoc
// @Summary      Flujo SSE de la vista
// @Description  Emite un evento "snapshot" (registros + estadísticas) al conectar y tras cada cambio.
// @Tags         views
// @Produce      text/event-stream
// @Param        id   path  string  true  "ID de la vista"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/views/{id}/events [get]
func (h *ViewHandler) Events(c *fiber.Ctx) error {
	v, err := h.views.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Se observa antes del primer snapshot para no perder cambios intermedios.
	signal, stop := v.Watch()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stop()
		keepAlive := time.NewTicker(sseKeepAlive)
		defer keepAlive.Stop()

		if err := writeSnapshot(w, v); err != nil {
			return
		}
		for {
			select {
			case _, ok := <-signal:
				if !ok {
					_, _ = fmt.Fprint(w, "event: closed\ndata: {}\n\n")
					_ = w.Flush()
					return
				}
				if err := writeSnapshot(w, v); err != nil {
					h.log.Debug().Err(err).Str("view_id", v.ID()).Msg("cliente SSE desconectado")
					return
				}
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// writeSnapshot escribe el evento "snapshot" con el estado actual de la vista.
func writeSnapshot(w *bufio.Writer, v *live.View) error {
	records, stats, version := v.State()
	payload, err := json.Marshal(dto.ViewSnapshotDTO{
		ViewID:  v.ID(),
		Version: version,
		Items:   dto.ToEnrolementResponses(records),
		Stats:   dto.ToStatsDTO(stats),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", version, payload); err != nil {
		return err
	}
	return w.Flush()
}
