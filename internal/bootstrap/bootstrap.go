// Package bootstrap arma el grafo de dependencias compartido por la API y enrolectl.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	appanalytics "github.com/jhoicas/Enrolement-api/internal/application/analytics"
	appenrolement "github.com/jhoicas/Enrolement-api/internal/application/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/application/export"
	"github.com/jhoicas/Enrolement-api/internal/application/live"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/changefeed"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Enrolement-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/supabase"
	"github.com/jhoicas/Enrolement-api/pkg/config"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// RemoteStore almacén remoto con liberación de recursos (broker, pool).
type RemoteStore interface {
	repository.RemoteEnrolementStore
	Close()
}

// App dependencias construidas a partir de la configuración.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Local  *sqlite.LocalEnrolementRepo
	Remote RemoteStore

	Synchronizer *appenrolement.Synchronizer
	RemoteUC     *appenrolement.RemoteUseCase
	LocalUC      *appenrolement.LocalUseCase
	ExportUC     *export.ExportUseCase
	DashboardUC  *appanalytics.DashboardUseCase
	Views        *live.Manager

	closers []func()
}

// New abre el registro local, conecta el almacén remoto elegido y construye los casos de uso.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	local, err := sqlite.Open(cfg.Local.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("registro local: %w", err)
	}
	a.Local = local
	a.closers = append(a.closers, func() { _ = local.Close() })

	remote, err := openRemote(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Remote = remote
	a.closers = append(a.closers, remote.Close)

	timeout := cfg.Remote.Timeout
	a.Synchronizer = appenrolement.NewSynchronizer(local, remote,
		appenrolement.SyncOptions{RemoteTimeout: timeout}, a.Metrics, log)
	a.RemoteUC = appenrolement.NewRemoteUseCase(remote, timeout, a.Metrics)
	a.LocalUC = appenrolement.NewLocalUseCase(local)
	a.ExportUC = export.NewExportUseCase(local, infrapdf.NewMarotoPDFGenerator(nil), cfg.Export.DefaultName)
	a.DashboardUC = appanalytics.NewDashboardUseCase(remote, local, timeout)
	a.Views = live.NewManager(remote, live.Options{QueryTimeout: timeout, Metrics: a.Metrics, Log: log})
	return a, nil
}

// openRemote selecciona el backend según REMOTE_BACKEND.
func openRemote(ctx context.Context, cfg *config.Config, log *logger.Logger) (RemoteStore, error) {
	switch cfg.Remote.Backend {
	case config.BackendSupabase:
		store, err := supabase.NewEnrolementStore(supabase.Config{
			URL:    cfg.Supabase.URL,
			APIKey: cfg.Supabase.APIKey,
			Table:  cfg.Remote.Table,
		}, changefeed.Options{}, log)
		if err != nil {
			return nil, fmt.Errorf("almacén supabase: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		store := postgres.NewPoolStore(pool, cfg.Remote.Table, cfg.Remote.Channel, changefeed.Options{}, log)
		return &pooledStore{EnrolementStore: store, close: pool.Close}, nil
	default:
		return nil, fmt.Errorf("REMOTE_BACKEND desconocido: %q", cfg.Remote.Backend)
	}
}

// pooledStore cierra el broker y después el pool.
type pooledStore struct {
	*postgres.EnrolementStore
	close func()
}

func (s *pooledStore) Close() {
	s.EnrolementStore.Close()
	s.close()
}

// Close cierra las vistas abiertas y libera los recursos en orden inverso.
func (a *App) Close() {
	if a.Views != nil {
		a.Views.CloseAll()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
