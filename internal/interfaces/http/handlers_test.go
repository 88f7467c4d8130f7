package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalytics "github.com/jhoicas/Enrolement-api/internal/application/analytics"
	"github.com/jhoicas/Enrolement-api/internal/application/dto"
	appenrolement "github.com/jhoicas/Enrolement-api/internal/application/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/application/export"
	"github.com/jhoicas/Enrolement-api/internal/application/live"
	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Enrolement-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/sqlite"
	apphttp "github.com/jhoicas/Enrolement-api/internal/interfaces/http"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén remoto en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memSub struct {
	events chan repository.ChangeEvent
	once   sync.Once
	store  *memStore
}

func (s *memSub) Events() <-chan repository.ChangeEvent { return s.events }
func (s *memSub) Unsubscribe()                          { s.once.Do(func() { s.store.drop(s) }) }

type memStore struct {
	mu      sync.Mutex
	records []entity.Enrolement // más recientes primero
	subs    map[*memSub]struct{}
	seq     int
	down    bool
}

var _ repository.RemoteEnrolementStore = (*memStore)(nil)

func newMemStore(initial ...entity.Enrolement) *memStore {
	return &memStore{records: initial, subs: make(map[*memSub]struct{})}
}

func (m *memStore) setDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func (m *memStore) unavailable(op string) error {
	return domain.NewStoreError(domain.ErrNetwork, op, errors.New("connection refused"))
}

func (m *memStore) Insert(_ context.Context, rec entity.Enrolement) (*entity.Enrolement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, m.unavailable("insert enrolement")
	}
	m.seq++
	rec.ID = fmt.Sprintf("uuid-%d", m.seq)
	m.records = append([]entity.Enrolement{rec}, m.records...)
	out := rec
	m.publish(repository.ChangeEvent{Kind: repository.ChangeInsert, Record: &out, ID: rec.ID})
	return &rec, nil
}

func (m *memStore) QueryAll(context.Context) ([]entity.Enrolement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, m.unavailable("query enrolements")
	}
	return append([]entity.Enrolement(nil), m.records...), nil
}

func (m *memStore) QueryFiltered(ctx context.Context, f repository.RemoteFilter) ([]entity.Enrolement, error) {
	all, err := m.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Enrolement, 0, len(all))
	for _, r := range all {
		if f.MeterType != "" && r.MeterType != f.MeterType {
			continue
		}
		if f.Usage != "" && r.Usage != f.Usage {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return m.unavailable("delete enrolement")
	}
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i:i], m.records[i+1:]...)
			m.publish(repository.ChangeEvent{Kind: repository.ChangeDelete, ID: id})
			return nil
		}
	}
	return domain.NewStoreError(domain.ErrNotFound, "delete enrolement", fmt.Errorf("id %s", id))
}

func (m *memStore) Subscribe(context.Context) (repository.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &memSub{events: make(chan repository.ChangeEvent, 16), store: m}
	m.subs[s] = struct{}{}
	return s, nil
}

func (m *memStore) drop(s *memSub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, s)
}

// publish se llama con mu tomado.
func (m *memStore) publish(ev repository.ChangeEvent) {
	for s := range m.subs {
		select {
		case s.events <- ev:
		default:
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type testEnv struct {
	app    *fiber.App
	remote *memStore
	views  *live.Manager
}

func buildTestApp(t *testing.T, remote *memStore) *testEnv {
	t.Helper()
	local, err := sqlite.Open(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logger.Nop()

	views := live.NewManager(remote, live.Options{QueryTimeout: time.Second, Metrics: m, Log: log})
	t.Cleanup(views.CloseAll)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	apphttp.Router(app, apphttp.RouterDeps{
		Synchronizer: appenrolement.NewSynchronizer(local, remote, appenrolement.SyncOptions{RemoteTimeout: time.Second}, m, log),
		RemoteUC:     appenrolement.NewRemoteUseCase(remote, time.Second, m),
		LocalUC:      appenrolement.NewLocalUseCase(local),
		ExportUC:     export.NewExportUseCase(local, infrapdf.NewMarotoPDFGenerator(time.UTC), ""),
		DashboardUC:  appanalytics.NewDashboardUseCase(remote, local, time.Second),
		Views:        views,
		Gatherer:     reg,
		Log:          log,
	})
	return &testEnv{app: app, remote: remote, views: views}
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func validRequest() dto.SubmitEnrolementRequest {
	return dto.SubmitEnrolementRequest{
		Name:        "Jean Paul",
		Phone:       "699640151",
		Email:       "jean@mail.com",
		MeterType:   "prepaid",
		MeterNumber: "011234567890",
		Address:     "Bonamoussadi",
		Usage:       "domicile",
	}
}

func seed(id, name string, mt entity.MeterType) entity.Enrolement {
	return entity.Enrolement{
		ID: id, Name: name, MeterType: mt, Usage: entity.UsageDomicile,
		Address: "Akwa", MeterNumber: "011234567890", CreatedAt: time.Now(),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Formulario
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_Confirmado201(t *testing.T) {
	env := buildTestApp(t, newMemStore())

	resp := doJSON(t, env.app, http.MethodPost, "/api/enrolements", validRequest())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	out := decode[dto.SubmitEnrolementResponse](t, resp)
	assert.Equal(t, "committed", out.Status)
	assert.Equal(t, "uuid-1", out.Enrolement.ID)
	assert.Equal(t, "Le compte de Jean Paul a été enrôlé avec succès.", out.Message)
	assert.NotEmpty(t, out.LocalID)
	assert.Nil(t, out.Error)
}

func TestSubmit_SoloLocal202(t *testing.T) {
	remote := newMemStore()
	remote.setDown(true)
	env := buildTestApp(t, remote)

	resp := doJSON(t, env.app, http.MethodPost, "/api/enrolements", validRequest())
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	out := decode[dto.SubmitEnrolementResponse](t, resp)
	assert.Equal(t, "local_only", out.Status)
	require.NotNil(t, out.Error)
	assert.Equal(t, "NETWORK", out.Error.Code)
	assert.Equal(t, out.LocalID, out.Enrolement.ID)

	// La copia local existe aunque el almacén remoto no respondió.
	list := decode[dto.ListResponse[dto.LocalEnrolementResponse]](t,
		doJSON(t, env.app, http.MethodGet, "/api/local/enrolements", nil))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "failed", list.Items[0].SyncStatus)
}

func TestSubmit_Invalido400ConCampos(t *testing.T) {
	env := buildTestApp(t, newMemStore())
	in := validRequest()
	in.Phone = "69964015"
	in.MeterType = "postpaid"

	resp := doJSON(t, env.app, http.MethodPost, "/api/enrolements", in)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Fields, "phone")
	assert.Contains(t, out.Fields, "meterNumber")
}

func TestSubmit_CuerpoInvalido(t *testing.T) {
	env := buildTestApp(t, newMemStore())
	req := httptest.NewRequest(http.MethodPost, "/api/enrolements", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Almacén remoto
// ──────────────────────────────────────────────────────────────────────────────

func TestListRemoto_ConFiltros(t *testing.T) {
	env := buildTestApp(t, newMemStore(
		seed("b", "Marie", entity.MeterPostpaid),
		seed("a", "Jean", entity.MeterPrepaid),
	))

	all := decode[dto.ListResponse[dto.EnrolementResponse]](t, doJSON(t, env.app, http.MethodGet, "/api/enrolements", nil))
	assert.Equal(t, 2, all.Total)

	prepaid := decode[dto.ListResponse[dto.EnrolementResponse]](t,
		doJSON(t, env.app, http.MethodGet, "/api/enrolements?meterType=prepaid", nil))
	require.Equal(t, 1, prepaid.Total)
	assert.Equal(t, "a", prepaid.Items[0].ID)

	resp := doJSON(t, env.app, http.MethodGet, "/api/enrolements?from=ayer", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListRemoto_CaidoEs502(t *testing.T) {
	remote := newMemStore()
	remote.setDown(true)
	env := buildTestApp(t, remote)

	resp := doJSON(t, env.app, http.MethodGet, "/api/enrolements", nil)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "NETWORK", decode[dto.ErrorResponse](t, resp).Code)
}

func TestDeleteRemoto_IdempotenteAnteNotFound(t *testing.T) {
	env := buildTestApp(t, newMemStore(seed("a", "Jean", entity.MeterPrepaid)))

	assert.Equal(t, fiber.StatusNoContent, doJSON(t, env.app, http.MethodDelete, "/api/enrolements/a", nil).StatusCode)
	assert.Equal(t, fiber.StatusNoContent, doJSON(t, env.app, http.MethodDelete, "/api/enrolements/a", nil).StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro local
// ──────────────────────────────────────────────────────────────────────────────

func TestLocal_ExportYBorrado(t *testing.T) {
	env := buildTestApp(t, newMemStore())

	resp := doJSON(t, env.app, http.MethodGet, "/api/local/export.pdf", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "NOTHING_TO_EXPORT", out.Code)
	assert.Equal(t, "Aucun enrôlement à exporter.", out.Message)

	submitted := decode[dto.SubmitEnrolementResponse](t, doJSON(t, env.app, http.MethodPost, "/api/enrolements", validRequest()))

	resp = doJSON(t, env.app, http.MethodGet, "/api/local/export.pdf?name=Rapport", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="Rapport.pdf"`)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "%PDF-"))

	assert.Equal(t, fiber.StatusNoContent,
		doJSON(t, env.app, http.MethodDelete, "/api/local/enrolements/"+submitted.LocalID, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound,
		doJSON(t, env.app, http.MethodDelete, "/api/local/enrolements/"+submitted.LocalID, nil).StatusCode)
}

func TestLocal_SyncReintentaPendientes(t *testing.T) {
	remote := newMemStore()
	remote.setDown(true)
	env := buildTestApp(t, remote)

	doJSON(t, env.app, http.MethodPost, "/api/enrolements", validRequest())
	remote.setDown(false)

	resp := doJSON(t, env.app, http.MethodPost, "/api/local/sync", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	report := decode[dto.RetryReportResponse](t, resp)
	assert.Equal(t, dto.RetryReportResponse{Attempted: 1, Committed: 1}, report)

	list := decode[dto.ListResponse[dto.LocalEnrolementResponse]](t,
		doJSON(t, env.app, http.MethodGet, "/api/local/enrolements", nil))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "committed", list.Items[0].SyncStatus)
	assert.Equal(t, "uuid-1", list.Items[0].ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Vistas vivas y dashboard
// ──────────────────────────────────────────────────────────────────────────────

func TestViews_CicloCompleto(t *testing.T) {
	env := buildTestApp(t, newMemStore(seed("a", "Jean Paul", entity.MeterPrepaid)))

	resp := doJSON(t, env.app, http.MethodPost, "/api/views", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	opened := decode[dto.ViewOpenedResponse](t, resp)
	require.NotEmpty(t, opened.ID)
	assert.Empty(t, opened.LoadError)
	base := "/api/views/" + opened.ID

	// Un envío confirmado llega a la vista por el flujo de cambios.
	in := validRequest()
	in.Name = "Marie"
	in.MeterType = "postpaid"
	in.MeterNumber = "200123456789"
	doJSON(t, env.app, http.MethodPost, "/api/enrolements", in)

	require.Eventually(t, func() bool {
		stats := decode[dto.StatsDTO](t, doJSON(t, env.app, http.MethodGet, base+"/stats", nil))
		return stats.Total == 2 && stats.Postpaid == 1
	}, 2*time.Second, 10*time.Millisecond)

	found := decode[dto.ListResponse[dto.EnrolementResponse]](t, doJSON(t, env.app, http.MethodGet, base+"/enrolements?q=jean", nil))
	require.Equal(t, 1, found.Total)
	assert.Equal(t, "a", found.Items[0].ID)

	assert.Equal(t, fiber.StatusNoContent, doJSON(t, env.app, http.MethodDelete, base+"/enrolements/a", nil).StatusCode)
	all := decode[dto.ListResponse[dto.EnrolementResponse]](t, doJSON(t, env.app, http.MethodGet, base+"/enrolements", nil))
	assert.Equal(t, 1, all.Total, "el borrado local no toca el almacén")

	assert.Equal(t, fiber.StatusNoContent, doJSON(t, env.app, http.MethodDelete, base, nil).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, doJSON(t, env.app, http.MethodGet, base+"/stats", nil).StatusCode)
}

func TestViews_BorradoRemotoDesdeLaVista(t *testing.T) {
	remote := newMemStore(seed("a", "Jean Paul", entity.MeterPrepaid), seed("b", "Marie", entity.MeterPostpaid))
	env := buildTestApp(t, remote)

	first := decode[dto.ViewOpenedResponse](t, doJSON(t, env.app, http.MethodPost, "/api/views", nil))
	other := decode[dto.ViewOpenedResponse](t, doJSON(t, env.app, http.MethodPost, "/api/views", nil))
	base := "/api/views/" + first.ID

	resp := doJSON(t, env.app, http.MethodDelete, base+"/enrolements/a/remote", nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	all := decode[dto.ListResponse[dto.EnrolementResponse]](t, doJSON(t, env.app, http.MethodGet, base+"/enrolements", nil))
	require.Equal(t, 1, all.Total)
	assert.Equal(t, "b", all.Items[0].ID)
	remaining, err := remote.QueryAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "el registro sale del almacén")

	// La otra vista lo pierde por el flujo de cambios.
	require.Eventually(t, func() bool {
		list := decode[dto.ListResponse[dto.EnrolementResponse]](t,
			doJSON(t, env.app, http.MethodGet, "/api/views/"+other.ID+"/enrolements", nil))
		return list.Total == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Ya borrado: se considera satisfecho.
	assert.Equal(t, fiber.StatusNoContent, doJSON(t, env.app, http.MethodDelete, base+"/enrolements/a/remote", nil).StatusCode)

	remote.setDown(true)
	resp = doJSON(t, env.app, http.MethodDelete, base+"/enrolements/b/remote", nil)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "NETWORK", body.Code)

	all = decode[dto.ListResponse[dto.EnrolementResponse]](t, doJSON(t, env.app, http.MethodGet, base+"/enrolements", nil))
	assert.Equal(t, 1, all.Total, "un fallo remoto deja la vista intacta")

	metricsResp := doJSON(t, env.app, http.MethodGet, "/metrics", nil)
	raw, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `enrolement_remote_errors_total{code="NETWORK",op="delete"} 1`)

	assert.Equal(t, fiber.StatusNotFound,
		doJSON(t, env.app, http.MethodDelete, "/api/views/desconocida/enrolements/b/remote", nil).StatusCode)
}

func TestViews_CargaInicialFallida(t *testing.T) {
	remote := newMemStore()
	remote.setDown(true)
	env := buildTestApp(t, remote)

	resp := doJSON(t, env.app, http.MethodPost, "/api/views", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	opened := decode[dto.ViewOpenedResponse](t, resp)
	assert.Contains(t, opened.LoadError, "connection refused")
}

func TestViews_EventosSSE(t *testing.T) {
	env := buildTestApp(t, newMemStore(seed("a", "Jean", entity.MeterPrepaid)))
	opened := decode[dto.ViewOpenedResponse](t, doJSON(t, env.app, http.MethodPost, "/api/views", nil))

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = env.views.Close(opened.ID)
	}()

	resp := doJSON(t, env.app, http.MethodGet, "/api/views/"+opened.ID+"/events", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "event: snapshot")
	assert.Contains(t, string(body), `"view_id":"`+opened.ID+`"`)
	assert.Contains(t, string(body), "event: closed")
}

func TestDashboardSummary(t *testing.T) {
	env := buildTestApp(t, newMemStore(
		seed("b", "Marie", entity.MeterPostpaid),
		seed("a", "Jean", entity.MeterPrepaid),
	))

	resp := doJSON(t, env.app, http.MethodGet, "/api/dashboard/summary", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	summary := decode[dto.DashboardSummaryDTO](t, resp)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Prepaid)
	assert.Equal(t, 1, summary.Postpaid)
	assert.Equal(t, 2, summary.Today)
	assert.Zero(t, summary.PendingSync)
}

func TestMetrics(t *testing.T) {
	env := buildTestApp(t, newMemStore())
	doJSON(t, env.app, http.MethodPost, "/api/enrolements", validRequest())

	resp := doJSON(t, env.app, http.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `enrolement_submissions_total{outcome="committed"} 1`)
}
