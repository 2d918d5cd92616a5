package ventanilla

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jhoicas/wms-terminal/internal/domain/entity"
	"github.com/jhoicas/wms-terminal/internal/infrastructure/kv"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

const (
	// DefaultInterval intervalo de sondeo. Es grueso a propósito: supera la
	// latencia típica del fetch, y el fetch corre en línea dentro del loop,
	// así que nunca hay dos sondeos en vuelo.
	DefaultInterval = 5 * time.Second
	// DefaultPageSize tope de eventos por respuesta.
	DefaultPageSize = 20
)

// EventSource define el puerto events-since del backend: eventos con id mayor
// a la marca de agua, en orden ascendente, más el máximo id observado en el
// servidor (permite avanzar la marca aunque ningún evento se muestre).
type EventSource interface {
	EventsSince(ctx context.Context, afterID int64, pageSize int) ([]entity.VentanillaEvent, int64, error)
}

// Handler recibe el evento mostrado al usuario (a lo sumo uno por ciclo).
type Handler func(entity.VentanillaEvent)

// watermarkRecord formato persistido de la marca de agua.
type watermarkRecord struct {
	LastSeenEventID int64 `json:"last_seen_event_id"`
}

// Poller detecta eventos de ventanilla nuevos para el actor actual y muestra
// a lo sumo un evento no visto a la vez, sin alertas duplicadas. La marca de
// agua persistida evita reprocesar entre sesiones; el conjunto processed (en
// memoria, de sesión) evita duplicados dentro de la sesión y se poda a los
// ids por encima de la marca tras cada avance, con lo que queda acotado.
type Poller struct {
	src      EventSource
	kvs      kv.Store
	key      string // clave de la marca de agua en el KV
	log      *logger.Logger
	interval time.Duration
	pageSize int
	onEvent  Handler

	mu        sync.Mutex
	watermark int64
	processed map[int64]struct{}
	loaded    bool
}

// Option configura el poller.
type Option func(*Poller)

// WithInterval ajusta el intervalo de sondeo.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPageSize ajusta el tope de eventos por petición.
func WithPageSize(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// NewPoller construye el poller. onEvent puede ser nil (los eventos solo
// avanzan la marca de agua).
func NewPoller(src EventSource, kvs kv.Store, key string, onEvent Handler, log *logger.Logger, opts ...Option) *Poller {
	p := &Poller{
		src:       src,
		kvs:       kvs,
		key:       key,
		log:       log,
		interval:  DefaultInterval,
		pageSize:  DefaultPageSize,
		onEvent:   onEvent,
		processed: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ejecuta el loop de sondeo hasta que el contexto se cancele. Cancelar
// detiene el ticker de inmediato; un Run posterior retoma desde la marca de
// agua actual, no desde cero. Los errores de red o parseo de un ciclo se
// registran y el loop continúa en el siguiente intervalo.
func (p *Poller) Run(ctx context.Context) {
	p.ensureLoaded(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.log.Warn().Err(err).Msg("sondeo de ventanilla fallido")
			}
		}
	}
}

// PollOnce ejecuta un ciclo de sondeo: pide eventos por encima de la marca,
// filtra los ya procesados, muestra el primero no visto (orden más antiguo
// primero) y avanza la marca al máximo id de toda la respuesta. Devuelve el
// evento mostrado, o nil si no hubo ninguno nuevo.
func (p *Poller) PollOnce(ctx context.Context) (*entity.VentanillaEvent, error) {
	p.ensureLoaded(ctx)

	p.mu.Lock()
	after := p.watermark
	p.mu.Unlock()

	events, maxID, err := p.src.EventsSince(ctx, after, p.pageSize)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	var surfaced *entity.VentanillaEvent
	for i := range events {
		ev := events[i]
		if ev.EventID <= p.watermark {
			continue // respuesta rezagada: ya contabilizado
		}
		if _, done := p.processed[ev.EventID]; done {
			continue
		}
		p.processed[ev.EventID] = struct{}{}
		surfaced = &ev
		break
	}
	advanced := p.advanceLocked(events, maxID)
	p.mu.Unlock()

	if advanced {
		p.persistWatermark(ctx)
	}
	if surfaced != nil && p.onEvent != nil {
		p.onEvent(*surfaced)
	}
	return surfaced, nil
}

// MarkHandled registra de antemano un id como atendido (el usuario actuó
// sobre el evento por otro canal), evitando un aviso duplicado si ese id se
// vuelve a observar de forma independiente.
func (p *Poller) MarkHandled(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id > p.watermark {
		p.processed[id] = struct{}{}
	}
}

// Watermark devuelve la marca de agua actual.
func (p *Poller) Watermark() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watermark
}

// advanceLocked sube la marca al máximo id visto en la respuesta completa
// (no solo el mostrado) y poda processed a los ids por encima de la nueva
// marca. Devuelve true si la marca avanzó. Se llama con p.mu tomado.
func (p *Poller) advanceLocked(events []entity.VentanillaEvent, maxID int64) bool {
	next := p.watermark
	if maxID > next {
		next = maxID
	}
	for i := range events {
		if events[i].EventID > next {
			next = events[i].EventID
		}
	}
	if next == p.watermark {
		return false
	}
	p.watermark = next
	for id := range p.processed {
		if id <= p.watermark {
			delete(p.processed, id)
		}
	}
	return true
}

// ensureLoaded carga la marca persistida una sola vez al arrancar. Un fallo
// de lectura arranca desde cero (fallo abierto) y se registra.
func (p *Poller) ensureLoaded(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return
	}
	p.loaded = true
	data, err := p.kvs.Get(ctx, p.key)
	if err != nil {
		p.log.Error().Err(err).Str("key", p.key).Msg("lectura de marca de agua fallida")
		return
	}
	if data == nil {
		return
	}
	var rec watermarkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		p.log.Error().Err(err).Str("key", p.key).Msg("marca de agua corrupta, se reinicia")
		return
	}
	p.watermark = rec.LastSeenEventID
}

// persistWatermark escribe la marca tras cada avance (mejor esfuerzo).
func (p *Poller) persistWatermark(ctx context.Context) {
	p.mu.Lock()
	rec := watermarkRecord{LastSeenEventID: p.watermark}
	p.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		p.log.Error().Err(err).Msg("serialización de marca de agua fallida")
		return
	}
	if err := p.kvs.Set(ctx, p.key, data); err != nil {
		p.log.Warn().Err(err).Str("key", p.key).Msg("persistencia de marca de agua fallida")
	}
}
