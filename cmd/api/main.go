package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	_ "github.com/jhoicas/Enrolement-api/docs"
	"github.com/jhoicas/Enrolement-api/internal/bootstrap"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/Enrolement-api/internal/interfaces/http"
	"github.com/jhoicas/Enrolement-api/pkg/config"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// @title        Enrolement API
// @version      1.0
// @description  Enrôlement de clientes y compteurs: formulario, registro local, vistas vivas y exportación PDF.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("remote", cfg.Remote.Backend).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicialización")
	}
	defer deps.Close()

	// Sin WriteTimeout: el flujo SSE de las vistas es de larga duración.
	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Enrolement API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "remote": cfg.Remote.Backend})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Synchronizer: deps.Synchronizer,
		RemoteUC:     deps.RemoteUC,
		LocalUC:      deps.LocalUC,
		ExportUC:     deps.ExportUC,
		DashboardUC:  deps.DashboardUC,
		Views:        deps.Views,
		Gatherer:     deps.Registry,
		Log:          log,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})

	if cfg.Sync.RetrySchedule != "" {
		sched := scheduler.New(log, cfg.Remote.Timeout*5)
		if err := sched.Add("sync-retry", cfg.Sync.RetrySchedule, func(ctx context.Context) error {
			report, err := deps.Synchronizer.RetryPending(ctx)
			if err != nil {
				return err
			}
			if report.Attempted > 0 {
				log.Info().
					Int("attempted", report.Attempted).
					Int("committed", report.Committed).
					Int("failed", report.Failed).
					Msg("reintento de sincronización")
			}
			return nil
		}); err != nil {
			log.Fatal().Err(err).Msg("programar reintentos")
		}
		g.Go(func() error { return sched.Start(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")

		// Las vistas se cierran antes para que los flujos SSE terminen.
		deps.Views.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
		deps.Close()
		os.Exit(1)
	}

	log.Info().Msg("aplicación detenida")
}
