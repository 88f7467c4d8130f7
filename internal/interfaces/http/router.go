package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"

	appanalytics "github.com/jhoicas/Enrolement-api/internal/application/analytics"
	appenrolement "github.com/jhoicas/Enrolement-api/internal/application/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/application/export"
	"github.com/jhoicas/Enrolement-api/internal/application/live"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Synchronizer *appenrolement.Synchronizer
	RemoteUC     *appenrolement.RemoteUseCase
	LocalUC      *appenrolement.LocalUseCase
	ExportUC     *export.ExportUseCase
	DashboardUC  *appanalytics.DashboardUseCase
	Views        *live.Manager
	Gatherer     prometheus.Gatherer // nil = sin /metrics
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}

	api := app.Group("/api")

	// Formulario + almacén remoto
	enrolements := api.Group("/enrolements")
	enrolementHandler := NewEnrolementHandler(deps.Synchronizer, deps.RemoteUC)
	enrolements.Post("/", enrolementHandler.Submit)
	enrolements.Get("/", enrolementHandler.List)
	enrolements.Delete("/:id", enrolementHandler.Delete)

	// Vistas vivas (lista sincronizada + estadísticas)
	views := api.Group("/views")
	viewHandler := NewViewHandler(deps.Views, deps.Log)
	views.Post("/", viewHandler.Open)
	views.Delete("/:id", viewHandler.Close)
	views.Get("/:id/enrolements", viewHandler.List)
	views.Delete("/:id/enrolements/:recordId", viewHandler.RemoveRecord)
	views.Delete("/:id/enrolements/:recordId/remote", viewHandler.DeleteRecordRemote)
	views.Get("/:id/stats", viewHandler.Stats)
	views.Get("/:id/events", viewHandler.Events)

	// Dashboard
	dashboard := api.Group("/dashboard")
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/summary", dashboardHandler.GetSummary)

	// Registro local ("Mes enrôlements")
	local := api.Group("/local")
	localHandler := NewLocalHandler(deps.LocalUC, deps.Synchronizer, deps.ExportUC)
	local.Get("/enrolements", localHandler.List)
	local.Delete("/enrolements/:localId", localHandler.Remove)
	local.Get("/export.pdf", localHandler.Export)
	local.Post("/sync", localHandler.Sync)
}
