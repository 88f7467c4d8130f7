// Package enrolement orquesta el ciclo de vida de un enrôlement: validación,
// doble escritura (copia local + almacén remoto), reintento y borrado remoto.
package enrolement

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

const (
	defaultRemoteTimeout = 10 * time.Second
	localIDRandomRange   = 10000
	localIDAttempts      = 3
)

// OutcomeStatus resultado de un envío válido.
type OutcomeStatus string

const (
	// OutcomeCommitted el registro quedó en el almacén remoto.
	OutcomeCommitted OutcomeStatus = "committed"
	// OutcomeLocalOnly solo existe la copia local; Err trae el fallo remoto.
	OutcomeLocalOnly OutcomeStatus = "local_only"
)

// Outcome resultado de Submit.
type Outcome struct {
	Status OutcomeStatus
	// Record es la representación remota si Committed; si no, la copia local con ID = LocalID.
	Record entity.Enrolement
	Local  entity.LocalEnrolement
	Err    error
}

// Confirmation mensaje mostrado al cliente tras un envío confirmado.
func (o *Outcome) Confirmation() string {
	if o == nil || o.Status != OutcomeCommitted {
		return ""
	}
	return fmt.Sprintf("Le compte de %s a été enrôlé avec succès.", o.Record.Name)
}

// SyncOptions parámetros del sincronizador. Now y RandIntN son inyectables para tests.
type SyncOptions struct {
	RemoteTimeout time.Duration
	Now           func() time.Time
	RandIntN      func(n int) int
}

// RetryReport resumen de un reintento de sincronización.
type RetryReport struct {
	Attempted int
	Committed int
	Failed    int
}

// Synchronizer escribe primero en el registro local y después en el almacén remoto.
type Synchronizer struct {
	local   repository.LocalEnrolementRepository
	remote  repository.RemoteEnrolementStore
	timeout time.Duration
	now     func() time.Time
	randN   func(int) int
	metrics *metrics.Metrics
	log     *logger.Logger

	// inFlight ids locales con inserción remota en curso; el reintento los omite.
	inFlight sync.Map
	retryMu  sync.Mutex
}

// NewSynchronizer construye el caso de uso.
func NewSynchronizer(
	local repository.LocalEnrolementRepository,
	remote repository.RemoteEnrolementStore,
	opts SyncOptions,
	m *metrics.Metrics,
	log *logger.Logger,
) *Synchronizer {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = defaultRemoteTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RandIntN == nil {
		opts.RandIntN = rand.IntN
	}
	return &Synchronizer{
		local:   local,
		remote:  remote,
		timeout: opts.RemoteTimeout,
		now:     opts.Now,
		randN:   opts.RandIntN,
		metrics: m,
		log:     log.Component("synchronizer"),
	}
}

// Submit valida el formulario y persiste el registro.
//
// Retorna:
//   - *rules.ValidationError si la entrada es inválida (nada se escribe).
//   - error envuelto si falla la escritura local (no se intenta la remota).
//   - Outcome Committed o LocalOnly en cualquier otro caso.
func (s *Synchronizer) Submit(ctx context.Context, in rules.Input) (*Outcome, error) {
	// ── 1. Validación ─────────────────────────────────────────────────────────
	rec, err := rules.Validate(in)
	if err != nil {
		s.metrics.IncSubmission("invalid")
		return nil, err
	}

	// ── 2. Copia local (pending) ──────────────────────────────────────────────
	now := s.now()
	rec.CreatedAt = now
	local, err := s.appendLocal(ctx, rec, now)
	if err != nil {
		s.metrics.IncSubmission("local_error")
		return nil, fmt.Errorf("synchronizer: guardar copia local: %w", err)
	}
	defer s.inFlight.Delete(local.LocalID)

	// ── 3. Almacén remoto ─────────────────────────────────────────────────────
	stored, remoteErr := s.insertRemote(ctx, rec)

	// ── 4. Reconciliación de la copia local ───────────────────────────────────
	// La copia local se actualiza aunque ctx ya esté cancelado.
	bookkeeping := context.WithoutCancel(ctx)
	if remoteErr != nil {
		s.markFailed(bookkeeping, &local, remoteErr)
		s.metrics.IncSubmission(string(OutcomeLocalOnly))
		s.log.Warn().Err(remoteErr).Str("local_id", local.LocalID).
			Str("code", domain.StoreErrorCode(remoteErr)).Msg("enrôlement guardado solo en local")

		record := local.Enrolement
		record.ID = local.LocalID
		return &Outcome{Status: OutcomeLocalOnly, Record: record, Local: local, Err: remoteErr}, nil
	}

	s.markCommitted(bookkeeping, &local, stored)
	s.metrics.IncSubmission(string(OutcomeCommitted))
	s.log.Info().Str("local_id", local.LocalID).Str("remote_id", stored.ID).Msg("enrôlement sincronizado")
	return &Outcome{Status: OutcomeCommitted, Record: *stored, Local: local}, nil
}

// RetryPending reintenta la inserción remota de cada copia pending o failed, más antigua primero.
// Las ejecuciones concurrentes se serializan.
func (s *Synchronizer) RetryPending(ctx context.Context) (RetryReport, error) {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()

	var report RetryReport
	pending, err := s.local.ListUnsynced(ctx)
	if err != nil {
		return report, fmt.Errorf("synchronizer: listar pendientes: %w", err)
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := &pending[i]
		if _, busy := s.inFlight.Load(item.LocalID); busy {
			continue
		}
		report.Attempted++

		rec := item.Enrolement
		rec.ID = ""
		stored, remoteErr := s.insertRemote(ctx, rec)
		if remoteErr != nil {
			s.markFailed(context.WithoutCancel(ctx), item, remoteErr)
			s.metrics.IncRetry("failed")
			report.Failed++
			continue
		}
		s.markCommitted(context.WithoutCancel(ctx), item, stored)
		s.metrics.IncRetry("committed")
		report.Committed++
	}

	if report.Attempted > 0 {
		s.log.Info().Int("attempted", report.Attempted).Int("committed", report.Committed).
			Int("failed", report.Failed).Msg("reintento de sincronización")
	}
	return report, nil
}

// appendLocal guarda la copia pending. El id queda marcado en vuelo antes de escribirse,
// así RetryPending nunca lo ve sin marca. Ante un local_id repetido se sortea otro sufijo.
func (s *Synchronizer) appendLocal(ctx context.Context, rec entity.Enrolement, now time.Time) (entity.LocalEnrolement, error) {
	var err error
	for range localIDAttempts {
		local := entity.LocalEnrolement{
			Enrolement: rec,
			LocalID:    entity.NewLocalID(now, s.randN(localIDRandomRange)),
			SyncStatus: entity.SyncPending,
		}
		if _, taken := s.inFlight.LoadOrStore(local.LocalID, struct{}{}); taken {
			err = fmt.Errorf("local_id %s en uso: %w", local.LocalID, domain.ErrDuplicate)
			continue
		}
		err = s.local.Append(ctx, &local)
		if err == nil {
			return local, nil
		}
		s.inFlight.Delete(local.LocalID)
		if !errors.Is(err, domain.ErrDuplicate) {
			return entity.LocalEnrolement{}, err
		}
		s.log.Debug().Str("local_id", local.LocalID).Msg("local_id repetido, se sortea otro")
	}
	return entity.LocalEnrolement{}, err
}

// insertRemote aplica el timeout por llamada y garantiza un *domain.StoreError.
func (s *Synchronizer) insertRemote(ctx context.Context, rec entity.Enrolement) (*entity.Enrolement, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, err := s.remote.Insert(callCtx, rec)
	if err != nil {
		err = domain.AsStoreError("insert enrolement", err)
		s.metrics.IncRemoteError("insert", domain.StoreErrorCode(err))
		return nil, err
	}
	if stored == nil {
		return nil, domain.NewStoreError(domain.ErrUnknown, "insert enrolement", errors.New("respuesta vacía"))
	}
	return stored, nil
}

func (s *Synchronizer) markFailed(ctx context.Context, local *entity.LocalEnrolement, cause error) {
	local.SyncStatus = entity.SyncFailed
	local.SyncError = cause.Error()
	if err := s.local.MarkFailed(ctx, local.LocalID, local.SyncError); err != nil {
		s.log.Error().Err(err).Str("local_id", local.LocalID).Msg("marcar copia local como failed")
	}
}

func (s *Synchronizer) markCommitted(ctx context.Context, local *entity.LocalEnrolement, stored *entity.Enrolement) {
	syncedAt := s.now()
	local.ID = stored.ID
	local.CreatedAt = stored.CreatedAt
	local.SyncStatus = entity.SyncCommitted
	local.SyncError = ""
	local.SyncedAt = &syncedAt
	if err := s.local.MarkCommitted(ctx, local.LocalID, stored.ID, stored.CreatedAt, syncedAt); err != nil {
		s.log.Error().Err(err).Str("local_id", local.LocalID).Msg("marcar copia local como committed")
	}
}
