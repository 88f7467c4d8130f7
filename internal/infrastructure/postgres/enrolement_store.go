package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/changefeed"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

var _ repository.RemoteEnrolementStore = (*EnrolementStore)(nil)

// Querier operaciones comunes a pool y tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EnrolementStore almacén remoto sobre PostgreSQL. Los cambios llegan por LISTEN/NOTIFY
// a través del broker compartido.
type EnrolementStore struct {
	q      Querier
	table  string // identificador ya saneado
	broker *changefeed.Broker
}

// NewEnrolementStore construye el adaptador. broker puede ser nil si no se usan suscripciones.
func NewEnrolementStore(q Querier, table string, broker *changefeed.Broker) *EnrolementStore {
	return &EnrolementStore{
		q:      q,
		table:  pgx.Identifier{table}.Sanitize(),
		broker: broker,
	}
}

// NewPoolStore arma store + listener + broker sobre el pool.
func NewPoolStore(pool *pgxpool.Pool, table, channel string, brokerOpts changefeed.Options, log *logger.Logger) *EnrolementStore {
	broker := changefeed.NewBroker(NewListener(pool, channel, log), log, brokerOpts)
	return NewEnrolementStore(pool, table, broker)
}

const enrolementColumns = `id::text, name, phone, email, "meterType", "meterNumber", address, usage, created_at`

// Insert persiste el registro; id y created_at los asigna la base.
func (s *EnrolementStore) Insert(ctx context.Context, rec entity.Enrolement) (*entity.Enrolement, error) {
	query := `
		INSERT INTO ` + s.table + ` (name, phone, email, "meterType", "meterNumber", address, usage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at`
	out := rec
	err := s.q.QueryRow(ctx, query,
		rec.Name, rec.Phone, rec.Email, string(rec.MeterType), rec.MeterNumber, rec.Address, string(rec.Usage),
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, classify("insert enrolement", err)
	}
	return &out, nil
}

// QueryAll devuelve todos los registros, más recientes primero.
func (s *EnrolementStore) QueryAll(ctx context.Context) ([]entity.Enrolement, error) {
	return s.QueryFiltered(ctx, repository.RemoteFilter{})
}

// QueryFiltered aplica los filtros no vacíos, más recientes primero.
func (s *EnrolementStore) QueryFiltered(ctx context.Context, f repository.RemoteFilter) ([]entity.Enrolement, error) {
	where, args := buildWhere(f)
	query := `SELECT ` + enrolementColumns + ` FROM ` + s.table + where + ` ORDER BY created_at DESC`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("query enrolements", err)
	}
	defer rows.Close()

	var list []entity.Enrolement
	for rows.Next() {
		var (
			e         entity.Enrolement
			meterType string
			usage     string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Phone, &e.Email, &meterType, &e.MeterNumber,
			&e.Address, &usage, &e.CreatedAt); err != nil {
			return nil, classify("scan enrolement", err)
		}
		e.MeterType = entity.MeterType(meterType)
		e.Usage = entity.Usage(usage)
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query enrolements", err)
	}
	return list, nil
}

// DeleteByID borra por id. Sin filas afectadas → NotFound.
func (s *EnrolementStore) DeleteByID(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM `+s.table+` WHERE id::text = $1`, id)
	if err != nil {
		return classify("delete enrolement", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewStoreError(domain.ErrNotFound, "delete enrolement", fmt.Errorf("id %s", id))
	}
	return nil
}

// Subscribe abre un flujo de cambios sobre el broker compartido.
func (s *EnrolementStore) Subscribe(ctx context.Context) (repository.Subscription, error) {
	if s.broker == nil {
		return nil, domain.NewStoreError(domain.ErrUnknown, "subscribe", fmt.Errorf("store sin broker de cambios"))
	}
	sub, err := s.broker.Subscribe(ctx)
	if err != nil {
		return nil, classify("subscribe", err)
	}
	return sub, nil
}

// Close detiene la escucha de cambios.
func (s *EnrolementStore) Close() {
	if s.broker != nil {
		s.broker.Close()
	}
}

func buildWhere(f repository.RemoteFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.MeterType != "" {
		add(`"meterType" = $%d`, string(f.MeterType))
	}
	if f.Usage != "" {
		add(`usage = $%d`, string(f.Usage))
	}
	if f.From != nil {
		add(`created_at >= $%d`, f.From.UTC())
	}
	if f.To != nil {
		add(`created_at < $%d`, f.To.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
