package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

// LocalEnrolementRepository define el puerto del registro local de envíos.
// Es append-only salvo por la transición de sincronización y el borrado explícito.
type LocalEnrolementRepository interface {
	Append(ctx context.Context, rec *entity.LocalEnrolement) error
	// List devuelve las copias en orden de inserción.
	List(ctx context.Context) ([]entity.LocalEnrolement, error)
	// GetByLocalID devuelve nil, nil si no existe.
	GetByLocalID(ctx context.Context, localID string) (*entity.LocalEnrolement, error)
	Remove(ctx context.Context, localID string) error
	MarkCommitted(ctx context.Context, localID, remoteID string, createdAt, syncedAt time.Time) error
	MarkFailed(ctx context.Context, localID, reason string) error
	// ListUnsynced devuelve las copias pending o failed, más antiguas primero.
	ListUnsynced(ctx context.Context) ([]entity.LocalEnrolement, error)
}

// RemoteFilter criterios de consulta filtrada. Los campos vacíos no filtran.
type RemoteFilter struct {
	MeterType entity.MeterType
	Usage     entity.Usage
	From      *time.Time
	To        *time.Time
}

// IsZero indica si el filtro no restringe nada.
func (f RemoteFilter) IsZero() bool {
	return f.MeterType == "" && f.Usage == "" && f.From == nil && f.To == nil
}

// RemoteEnrolementStore define el puerto hacia el almacén remoto compartido.
// Todas las consultas devuelven created_at DESC. Los errores son *domain.StoreError.
type RemoteEnrolementStore interface {
	Insert(ctx context.Context, rec entity.Enrolement) (*entity.Enrolement, error)
	QueryAll(ctx context.Context) ([]entity.Enrolement, error)
	QueryFiltered(ctx context.Context, filter RemoteFilter) ([]entity.Enrolement, error)
	DeleteByID(ctx context.Context, id string) error
	// Subscribe abre un flujo de cambios; se cancela con Unsubscribe o al cerrarse ctx.
	Subscribe(ctx context.Context) (Subscription, error)
}

// ChangeKind tipo de cambio notificado por el almacén.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeDelete ChangeKind = "DELETE"
	ChangeUpdate ChangeKind = "UPDATE"
)

// ChangeEvent notificación de cambio. Record viene en INSERT/UPDATE; ID siempre que se conozca.
type ChangeEvent struct {
	Kind   ChangeKind
	Record *entity.Enrolement
	ID     string
}

// Subscription flujo de cambios en el orden del almacén.
type Subscription interface {
	Events() <-chan ChangeEvent
	// Unsubscribe es idempotente; tras volver no se entregan más eventos.
	Unsubscribe()
}
