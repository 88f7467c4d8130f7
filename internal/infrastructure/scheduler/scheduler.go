// Package scheduler ejecuta tareas periódicas con expresiones cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// Job tarea programada. El contexto se cancela al detener el scheduler.
type Job func(ctx context.Context) error

// Scheduler envoltorio sobre robfig/cron con cancelación por contexto.
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration

	mu      sync.RWMutex
	ctx     context.Context
	entries int
}

// New construye un scheduler. timeout acota cada ejecución (0 = sin límite).
// Las ejecuciones solapadas de una misma tarea se omiten.
func New(log *logger.Logger, timeout time.Duration) *Scheduler {
	l := log.Component("scheduler")
	cl := cronLogger{l}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:     l,
		timeout: timeout,
		ctx:     context.Background(),
	}
}

// Add registra job bajo spec (cron de 5 campos o descriptores como @every 5m).
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		return fmt.Errorf("scheduler: expresión vacía para %s", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("scheduler: %s: %w", name, err)
	}
	s.mu.Lock()
	s.entries++
	s.mu.Unlock()
	s.log.Info().Str("job", name).Str("spec", spec).Msg("tarea programada")
	return nil
}

// Len número de tareas registradas.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// Start arranca el reloj y bloquea hasta que ctx se cancela; entonces espera
// a que terminen las ejecuciones en curso.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler detenido")
	return nil
}

// RunNow ejecuta job fuera del calendario con las mismas reglas de timeout y log.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("tarea programada fallida")
		return
	}
	s.log.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("tarea programada completada")
}

// cronLogger adapta zerolog a cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
