// Package live mantiene colecciones en memoria sincronizadas con el almacén remoto
// a partir de su flujo de cambios, con búsqueda y estadísticas calculadas al leer.
package live

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

const defaultQueryTimeout = 10 * time.Second

// Options parámetros de una vista.
type Options struct {
	QueryTimeout time.Duration
	Now          func() time.Time
	Metrics      *metrics.Metrics
	Log          *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = defaultQueryTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	return o
}

// removeCmd borrado local encolado al goroutine dueño de la colección.
type removeCmd struct {
	id   string
	done chan bool
}

// View colección viva, más recientes primero.
//
// Un único goroutine aplica eventos y borrados locales en orden de llegada;
// los lectores ven instantáneas inmutables protegidas por RWMutex.
type View struct {
	id      string
	remote  repository.RemoteEnrolementStore
	opts    Options
	log     *logger.Logger
	sub     repository.Subscription
	cancel  context.CancelFunc
	cmds    chan removeCmd
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu      sync.RWMutex
	records []entity.Enrolement
	loadErr error
	version uint64
	closed  bool

	watchMu  sync.Mutex
	watchSeq uint64
	watchers map[uint64]chan struct{}
}

// Open se suscribe a los cambios, carga la colección inicial y arranca el goroutine de la vista.
// La suscripción se adquiere antes de la consulta inicial; los eventos recibidos mientras tanto
// se aplican después. Un fallo de la consulta inicial deja la vista vacía con LoadErr.
func Open(ctx context.Context, id string, remote repository.RemoteEnrolementStore, opts Options) (*View, error) {
	opts = opts.withDefaults()

	subCtx, cancel := context.WithCancel(context.Background())
	sub, err := remote.Subscribe(subCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("vista %s: suscripción: %w", id, err)
	}

	v := &View{
		id:       id,
		remote:   remote,
		opts:     opts,
		log:      opts.Log.Component("live-view"),
		sub:      sub,
		cancel:   cancel,
		cmds:     make(chan removeCmd),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		watchers: make(map[uint64]chan struct{}),
	}

	queryCtx, cancelQuery := context.WithTimeout(ctx, opts.QueryTimeout)
	initial, err := remote.QueryAll(queryCtx)
	cancelQuery()
	if err != nil {
		v.loadErr = err
		v.log.Warn().Err(err).Str("view_id", id).Msg("carga inicial fallida; vista vacía")
		initial = nil
	}
	v.records = dedupe(initial)

	opts.Metrics.ViewOpened()
	go v.loop()
	return v, nil
}

// ID identificador de la vista.
func (v *View) ID() string { return v.id }

func (v *View) loop() {
	defer close(v.stopped)
	events := v.sub.Events()
	for {
		select {
		case <-v.done:
			return
		case ev := <-events:
			v.opts.Metrics.IncChangeEvent(string(ev.Kind))
			v.mutate(func(records []entity.Enrolement) ([]entity.Enrolement, bool) {
				return apply(records, ev)
			})
		case cmd := <-v.cmds:
			removed := v.mutate(func(records []entity.Enrolement) ([]entity.Enrolement, bool) {
				return removeByID(records, cmd.id)
			})
			cmd.done <- removed
		}
	}
}

// mutate aplica fn sobre la colección actual y avanza la versión si hubo cambio.
// Una vista cerrada no vuelve a cambiar.
func (v *View) mutate(fn func([]entity.Enrolement) ([]entity.Enrolement, bool)) bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	next, changed := fn(v.records)
	if changed {
		v.records = next
		v.version++
	}
	v.mu.Unlock()

	if changed {
		v.notify()
	}
	return changed
}

// ── Lectura ───────────────────────────────────────────────────────────────────

// Snapshot copia de la colección, más recientes primero.
func (v *View) Snapshot() []entity.Enrolement {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.records)
}

// Filter búsqueda sin mayúsculas en nombre, dirección o número de compteur.
func (v *View) Filter(query string) []entity.Enrolement {
	v.mu.RLock()
	records := v.records
	v.mu.RUnlock()
	return rules.Filter(records, query)
}

// Stats estadísticas de la colección actual; "hoy" se evalúa contra Options.Now en cada lectura.
func (v *View) Stats() rules.Stats {
	v.mu.RLock()
	records := v.records
	v.mu.RUnlock()
	return rules.Aggregate(records, v.opts.Now())
}

// State colección y estadísticas de la misma versión.
func (v *View) State() ([]entity.Enrolement, rules.Stats, uint64) {
	v.mu.RLock()
	records, version := v.records, v.version
	v.mu.RUnlock()
	return slices.Clone(records), rules.Aggregate(records, v.opts.Now()), version
}

// LoadErr error de la carga inicial, si la hubo.
func (v *View) LoadErr() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadErr
}

// Closed indica si la vista ya fue cerrada.
func (v *View) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}

// ── Escritura ─────────────────────────────────────────────────────────────────

// RemoveLocally quita el registro solo de esta vista. Devuelve false si no estaba.
func (v *View) RemoveLocally(id string) (bool, error) {
	cmd := removeCmd{id: id, done: make(chan bool, 1)}
	select {
	case <-v.done:
		return false, domain.ErrViewClosed
	case v.cmds <- cmd:
	}
	select {
	case removed := <-cmd.done:
		return removed, nil
	case <-v.stopped:
		return false, domain.ErrViewClosed
	}
}

// DeleteRemote borra en el almacén y después en la vista. NotFound se considera ya satisfecho;
// cualquier otro fallo se devuelve como *domain.StoreError y la vista queda intacta.
func (v *View) DeleteRemote(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id vacío", domain.ErrInvalidInput)
	}
	if v.Closed() {
		return domain.ErrViewClosed
	}
	callCtx, cancel := context.WithTimeout(ctx, v.opts.QueryTimeout)
	defer cancel()

	if err := v.remote.DeleteByID(callCtx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		err = domain.AsStoreError("delete enrolement", err)
		v.opts.Metrics.IncRemoteError("delete", domain.StoreErrorCode(err))
		v.log.Warn().Err(err).Str("view_id", v.id).Str("id", id).Msg("borrado remoto fallido")
		return err
	}
	_, err := v.RemoveLocally(id)
	return err
}

// ── Observadores ──────────────────────────────────────────────────────────────

// Watch devuelve una señal que se activa tras cada cambio (las señales se agrupan)
// y una función para dejar de observar. El canal se cierra al cerrar la vista.
func (v *View) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	v.watchMu.Lock()
	if v.watchers == nil {
		v.watchMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	v.watchSeq++
	key := v.watchSeq
	v.watchers[key] = ch
	v.watchMu.Unlock()

	return ch, func() {
		v.watchMu.Lock()
		defer v.watchMu.Unlock()
		if c, ok := v.watchers[key]; ok {
			delete(v.watchers, key)
			close(c)
		}
	}
}

func (v *View) notify() {
	v.watchMu.Lock()
	defer v.watchMu.Unlock()
	for _, ch := range v.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close cancela la suscripción una sola vez y detiene el goroutine de la vista.
func (v *View) Close() {
	v.once.Do(func() {
		v.mu.Lock()
		v.closed = true
		v.mu.Unlock()

		close(v.done)
		v.sub.Unsubscribe()
		v.cancel()
		<-v.stopped

		v.watchMu.Lock()
		for key, ch := range v.watchers {
			delete(v.watchers, key)
			close(ch)
		}
		v.watchers = nil
		v.watchMu.Unlock()

		v.opts.Metrics.ViewClosed()
		v.log.Debug().Str("view_id", v.id).Msg("vista cerrada")
	})
}

// ── Transiciones puras ────────────────────────────────────────────────────────

// apply devuelve la colección resultante de un evento sin modificar la recibida.
// INSERT antepone salvo id repetido; DELETE quita el id si existe; UPDATE se ignora.
func apply(records []entity.Enrolement, ev repository.ChangeEvent) ([]entity.Enrolement, bool) {
	switch ev.Kind {
	case repository.ChangeInsert:
		if ev.Record == nil {
			return records, false
		}
		id := ev.Record.ID
		if id == "" {
			id = ev.ID
		}
		if id == "" || indexOf(records, id) >= 0 {
			return records, false
		}
		rec := *ev.Record
		rec.ID = id
		next := make([]entity.Enrolement, 0, len(records)+1)
		next = append(next, rec)
		return append(next, records...), true
	case repository.ChangeDelete:
		return removeByID(records, ev.ID)
	default:
		return records, false
	}
}

func removeByID(records []entity.Enrolement, id string) ([]entity.Enrolement, bool) {
	i := indexOf(records, id)
	if id == "" || i < 0 {
		return records, false
	}
	next := make([]entity.Enrolement, 0, len(records)-1)
	next = append(next, records[:i]...)
	return append(next, records[i+1:]...), true
}

func indexOf(records []entity.Enrolement, id string) int {
	return slices.IndexFunc(records, func(r entity.Enrolement) bool { return r.ID == id })
}

// dedupe conserva la primera aparición de cada id.
func dedupe(records []entity.Enrolement) []entity.Enrolement {
	seen := make(map[string]struct{}, len(records))
	out := make([]entity.Enrolement, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
