// Package changefeed reparte las notificaciones de cambio del almacén remoto entre
// todos los suscriptores del proceso a partir de una única conexión de escucha.
package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// Source conexión de escucha hacia el almacén. Listen bloquea emitiendo eventos en orden
// hasta que ctx se cancela o la conexión falla.
type Source interface {
	Listen(ctx context.Context, emit func(repository.ChangeEvent)) error
}

// Options ajustes del broker.
type Options struct {
	BufferSize int           // eventos en cola por suscriptor
	MinBackoff time.Duration // primer reintento tras un fallo de la fuente
	MaxBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = 64
	}
	if o.MinBackoff <= 0 {
		o.MinBackoff = 500 * time.Millisecond
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = 30 * time.Second
	}
	return o
}

// Broker arranca la fuente con el primer suscriptor, la reinicia con backoff exponencial
// si falla y la detiene cuando no queda nadie suscrito.
type Broker struct {
	source Source
	log    *logger.Logger
	opts   Options

	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	stop   context.CancelFunc
	closed bool
}

// NewBroker construye el broker sin arrancar la fuente.
func NewBroker(source Source, log *logger.Logger, opts Options) *Broker {
	return &Broker{
		source: source,
		log:    log.Component("changefeed"),
		opts:   opts.withDefaults(),
		subs:   make(map[uint64]*subscription),
	}
}

// Subscribe registra un suscriptor nuevo. La suscripción se cancela con Unsubscribe o al cerrarse ctx.
func (b *Broker) Subscribe(ctx context.Context) (repository.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, context.Canceled
	}
	b.nextID++
	s := &subscription{
		id:     b.nextID,
		broker: b,
		events: make(chan repository.ChangeEvent, b.opts.BufferSize),
		done:   make(chan struct{}),
	}
	b.subs[s.id] = s
	if b.stop == nil {
		runCtx, cancel := context.WithCancel(context.Background())
		b.stop = cancel
		go b.run(runCtx)
	}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe()
		case <-s.done:
		}
	}()
	return s, nil
}

// Close detiene la fuente y cancela todas las suscripciones.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	subs := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	b.stopSource()
}

// Subscribers número de suscripciones activas.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker) run(ctx context.Context) {
	backoff := b.opts.MinBackoff
	for {
		received := false
		err := b.source.Listen(ctx, func(ev repository.ChangeEvent) {
			received = true
			b.publish(ev)
		})
		if ctx.Err() != nil {
			return
		}
		if received {
			backoff = b.opts.MinBackoff
		}
		b.log.Warn().Err(err).Dur("retry_in", backoff).Msg("escucha de cambios interrumpida, reintentando")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > b.opts.MaxBackoff {
			backoff = b.opts.MaxBackoff
		}
	}
}

// publish entrega el evento a cada suscriptor en orden. Un suscriptor lento frena la fuente
// en lugar de perder eventos; uno cancelado se salta.
func (b *Broker) publish(ev repository.ChangeEvent) {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.events <- ev:
		case <-s.done:
		}
	}
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	delete(b.subs, id)
	idle := len(b.subs) == 0
	b.mu.Unlock()

	if idle {
		b.stopSource()
	}
}

func (b *Broker) stopSource() {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Otro suscriptor pudo llegar entre remove y este punto.
	if b.stop != nil && (len(b.subs) == 0 || b.closed) {
		b.stop()
		b.stop = nil
	}
}

type subscription struct {
	id     uint64
	broker *Broker
	events chan repository.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan repository.ChangeEvent { return s.events }

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.broker.remove(s.id)
	})
}
