package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/changefeed"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

var _ repository.RemoteEnrolementStore = (*EnrolementStore)(nil)

// EnrolementStore almacén remoto sobre Supabase.
type EnrolementStore struct {
	rest   *restClient
	broker *changefeed.Broker
}

// NewEnrolementStore construye REST + Realtime + broker.
func NewEnrolementStore(cfg Config, brokerOpts changefeed.Options, log *logger.Logger) (*EnrolementStore, error) {
	rest, err := newRESTClient(cfg)
	if err != nil {
		return nil, err
	}
	source := NewRealtimeSource(cfg, log)
	return &EnrolementStore{
		rest:   rest,
		broker: changefeed.NewBroker(source, log, brokerOpts),
	}, nil
}

// remoteRow fila tal como la devuelve PostgREST y Realtime.
type remoteRow struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	MeterType   string    `json:"meterType"`
	MeterNumber string    `json:"meterNumber"`
	Address     string    `json:"address"`
	Usage       string    `json:"usage"`
	CreatedAt   time.Time `json:"created_at"`
}

// insertRow cuerpo del insert: sin id ni created_at.
type insertRow struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	MeterType   string `json:"meterType"`
	MeterNumber string `json:"meterNumber"`
	Address     string `json:"address"`
	Usage       string `json:"usage"`
}

func (r remoteRow) toEntity() entity.Enrolement {
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

// Insert crea el registro y devuelve la representación con id y created_at.
func (s *EnrolementStore) Insert(ctx context.Context, rec entity.Enrolement) (*entity.Enrolement, error) {
	body := []insertRow{{
		Name:        rec.Name,
		Phone:       rec.Phone,
		Email:       rec.Email,
		MeterType:   string(rec.MeterType),
		MeterNumber: rec.MeterNumber,
		Address:     rec.Address,
		Usage:       string(rec.Usage),
	}}
	var rows []remoteRow
	if err := s.rest.do(ctx, "insert enrolement", http.MethodPost, nil, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NewStoreError(domain.ErrUnknown, "insert enrolement", fmt.Errorf("respuesta vacía"))
	}
	out := rows[0].toEntity()
	return &out, nil
}

// QueryAll devuelve todos los registros, más recientes primero.
func (s *EnrolementStore) QueryAll(ctx context.Context) ([]entity.Enrolement, error) {
	return s.QueryFiltered(ctx, repository.RemoteFilter{})
}

// QueryFiltered traduce el filtro a operadores PostgREST.
func (s *EnrolementStore) QueryFiltered(ctx context.Context, f repository.RemoteFilter) ([]entity.Enrolement, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.desc")
	if f.MeterType != "" {
		params.Add("meterType", "eq."+string(f.MeterType))
	}
	if f.Usage != "" {
		params.Add("usage", "eq."+string(f.Usage))
	}
	if f.From != nil {
		params.Add("created_at", "gte."+f.From.UTC().Format(time.RFC3339Nano))
	}
	if f.To != nil {
		params.Add("created_at", "lt."+f.To.UTC().Format(time.RFC3339Nano))
	}

	var rows []remoteRow
	if err := s.rest.do(ctx, "query enrolements", http.MethodGet, params, nil, &rows); err != nil {
		return nil, err
	}
	list := make([]entity.Enrolement, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.toEntity())
	}
	return list, nil
}

// DeleteByID borra por id; una representación vacía significa que no existía.
func (s *EnrolementStore) DeleteByID(ctx context.Context, id string) error {
	params := url.Values{}
	params.Set("id", "eq."+id)
	var rows []remoteRow
	if err := s.rest.do(ctx, "delete enrolement", http.MethodDelete, params, nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.NewStoreError(domain.ErrNotFound, "delete enrolement", fmt.Errorf("id %s", id))
	}
	return nil
}

// Subscribe abre un flujo de cambios sobre el broker compartido.
func (s *EnrolementStore) Subscribe(ctx context.Context) (repository.Subscription, error) {
	sub, err := s.broker.Subscribe(ctx)
	if err != nil {
		return nil, domain.NewStoreError(domain.ErrUnknown, "subscribe", err)
	}
	return sub, nil
}

// Close detiene la escucha de cambios.
func (s *EnrolementStore) Close() {
	s.broker.Close()
}
