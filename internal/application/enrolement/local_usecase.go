package enrolement

import (
	"context"
	"fmt"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

// LocalUseCase operaciones sobre el registro local de envíos ("Mes enrôlements").
type LocalUseCase struct {
	repo repository.LocalEnrolementRepository
}

// NewLocalUseCase construye el caso de uso.
func NewLocalUseCase(repo repository.LocalEnrolementRepository) *LocalUseCase {
	return &LocalUseCase{repo: repo}
}

// List devuelve las copias locales en orden de inserción, con su estado de sincronización.
func (uc *LocalUseCase) List(ctx context.Context) ([]entity.LocalEnrolement, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("registro local: listar: %w", err)
	}
	return list, nil
}

// Remove elimina una copia local. domain.ErrNotFound si no existe.
func (uc *LocalUseCase) Remove(ctx context.Context, localID string) error {
	if localID == "" {
		return fmt.Errorf("%w: id local vacío", domain.ErrInvalidInput)
	}
	return uc.repo.Remove(ctx, localID)
}

// CountUnsynced número de copias pending o failed.
func (uc *LocalUseCase) CountUnsynced(ctx context.Context) (int, error) {
	list, err := uc.repo.ListUnsynced(ctx)
	if err != nil {
		return 0, fmt.Errorf("registro local: pendientes: %w", err)
	}
	return len(list), nil
}
