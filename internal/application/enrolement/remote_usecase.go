package enrolement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/metrics"
)

// RemoteUseCase consultas y borrado directos sobre el almacén remoto.
type RemoteUseCase struct {
	remote  repository.RemoteEnrolementStore
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewRemoteUseCase construye el caso de uso. timeout acota cada llamada.
func NewRemoteUseCase(remote repository.RemoteEnrolementStore, timeout time.Duration, m *metrics.Metrics) *RemoteUseCase {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &RemoteUseCase{remote: remote, timeout: timeout, metrics: m}
}

// List devuelve todos los registros o los que cumplen el filtro, más recientes primero.
func (uc *RemoteUseCase) List(ctx context.Context, f repository.RemoteFilter) ([]entity.Enrolement, error) {
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, fmt.Errorf("%w: el rango de fechas está vacío", domain.ErrInvalidInput)
	}
	if f.MeterType != "" && !f.MeterType.IsValid() {
		return nil, fmt.Errorf("%w: meterType %q", domain.ErrInvalidInput, f.MeterType)
	}
	if f.Usage != "" && !f.Usage.IsValid() {
		return nil, fmt.Errorf("%w: usage %q", domain.ErrInvalidInput, f.Usage)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	var (
		list []entity.Enrolement
		err  error
	)
	if f.IsZero() {
		list, err = uc.remote.QueryAll(ctx)
	} else {
		list, err = uc.remote.QueryFiltered(ctx, f)
	}
	if err != nil {
		err = domain.AsStoreError("query enrolements", err)
		uc.metrics.IncRemoteError("query", domain.StoreErrorCode(err))
		return nil, err
	}
	return list, nil
}

// Delete borra por id. Un NotFound del almacén se considera ya satisfecho.
func (uc *RemoteUseCase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id vacío", domain.ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.remote.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		err = domain.AsStoreError("delete enrolement", err)
		uc.metrics.IncRemoteError("delete", domain.StoreErrorCode(err))
		return err
	}
	return nil
}
