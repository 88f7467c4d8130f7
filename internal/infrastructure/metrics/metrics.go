// Package metrics expone los contadores Prometheus del motor de sincronización.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los instrumentos. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	// Resultado de cada envío: committed, local_only, invalid, local_error
	Submissions *prometheus.CounterVec

	// Eventos de cambio aplicados por las vistas, por tipo
	ChangeEvents *prometheus.CounterVec

	// Vistas vivas abiertas
	OpenViews prometheus.Gauge

	// Reintentos de sincronización: committed, failed
	RetryResults *prometheus.CounterVec

	// Fallos del almacén remoto por operación y clase
	RemoteErrors *prometheus.CounterVec
}

// New registra los instrumentos en reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrolement_submissions_total",
			Help: "Envíos de formulario por resultado",
		}, []string{"outcome"}),

		ChangeEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrolement_change_events_total",
			Help: "Eventos de cambio remotos aplicados por las vistas",
		}, []string{"kind"}),

		OpenViews: f.NewGauge(prometheus.GaugeOpts{
			Name: "enrolement_open_views",
			Help: "Vistas vivas abiertas",
		}),

		RetryResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrolement_sync_retries_total",
			Help: "Resultados de reintento de sincronización",
		}, []string{"result"}),

		RemoteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrolement_remote_errors_total",
			Help: "Fallos del almacén remoto por operación y clase",
		}, []string{"op", "code"}),
	}
}

// Handler sirve el formato de exposición de Prometheus para gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncSubmission registra el resultado de un envío.
func (m *Metrics) IncSubmission(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}

// IncChangeEvent registra un evento aplicado.
func (m *Metrics) IncChangeEvent(kind string) {
	if m != nil {
		m.ChangeEvents.WithLabelValues(kind).Inc()
	}
}

// ViewOpened / ViewClosed mantienen el gauge de vistas.
func (m *Metrics) ViewOpened() {
	if m != nil {
		m.OpenViews.Inc()
	}
}

func (m *Metrics) ViewClosed() {
	if m != nil {
		m.OpenViews.Dec()
	}
}

// IncRetry registra el resultado de un reintento.
func (m *Metrics) IncRetry(result string) {
	if m != nil {
		m.RetryResults.WithLabelValues(result).Inc()
	}
}

// IncRemoteError registra un fallo remoto con su código estable.
func (m *Metrics) IncRemoteError(op, code string) {
	if m != nil {
		m.RemoteErrors.WithLabelValues(op, code).Inc()
	}
}
