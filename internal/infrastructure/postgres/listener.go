package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/changefeed"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

var _ changefeed.Source = (*Listener)(nil)

// Listener fuente de cambios vía LISTEN/NOTIFY. El trigger del almacén publica en el canal
// un JSON {"eventType": ..., "new": {...}, "old": {"id": ...}}.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	log     *logger.Logger
}

// NewListener construye la fuente sobre el canal indicado.
func NewListener(pool *pgxpool.Pool, channel string, log *logger.Logger) *Listener {
	return &Listener{pool: pool, channel: channel, log: log.Component("pg-listener")}
}

// Listen retiene una conexión del pool y emite cada notificación hasta que ctx se cancela.
func (l *Listener) Listen(ctx context.Context, emit func(repository.ChangeEvent)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return classify("listen acquire", err)
	}
	defer conn.Release()

	ident := pgx.Identifier{l.channel}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+ident); err != nil {
		return classify("listen", err)
	}
	defer func() {
		unlistenCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(unlistenCtx, "UNLISTEN "+ident)
	}()
	l.log.Info().Str("channel", l.channel).Msg("escuchando cambios")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return classify("wait notification", err)
		}
		ev, err := decodeNotification([]byte(n.Payload))
		if err != nil {
			l.log.Warn().Err(err).Str("payload", n.Payload).Msg("notificación descartada")
			continue
		}
		emit(ev)
	}
}

// notificationRow fila tal como la serializa row_to_json.
type notificationRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	MeterType   string    `json:"meterType"`
	MeterNumber string    `json:"meterNumber"`
	Address     string    `json:"address"`
	Usage       string    `json:"usage"`
	CreatedAt   time.Time `json:"created_at"`
}

type notificationPayload struct {
	EventType string           `json:"eventType"`
	New       *notificationRow `json:"new"`
	Old       *struct {
		ID string `json:"id"`
	} `json:"old"`
}

func decodeNotification(payload []byte) (repository.ChangeEvent, error) {
	var p notificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return repository.ChangeEvent{}, fmt.Errorf("decodificar notificación: %w", err)
	}

	ev := repository.ChangeEvent{Kind: repository.ChangeKind(p.EventType)}
	switch ev.Kind {
	case repository.ChangeInsert, repository.ChangeUpdate:
		if p.New == nil {
			return repository.ChangeEvent{}, fmt.Errorf("%s sin fila nueva", p.EventType)
		}
		rec := p.New.toEntity()
		ev.Record = &rec
		ev.ID = rec.ID
	case repository.ChangeDelete:
		if p.Old == nil || p.Old.ID == "" {
			return repository.ChangeEvent{}, fmt.Errorf("DELETE sin id")
		}
		ev.ID = p.Old.ID
	default:
		return repository.ChangeEvent{}, fmt.Errorf("eventType desconocido: %q", p.EventType)
	}
	return ev, nil
}

func (r notificationRow) toEntity() entity.Enrolement {
	return entity.Enrolement{
		ID:          r.ID,
		Name:        r.Name,
		Phone:       r.Phone,
		Email:       r.Email,
		MeterType:   entity.MeterType(r.MeterType),
		MeterNumber: r.MeterNumber,
		Address:     r.Address,
		Usage:       entity.Usage(r.Usage),
		CreatedAt:   r.CreatedAt,
	}
}
