package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/wms-terminal/internal/clock"
	"github.com/jhoicas/wms-terminal/internal/domain"
	"github.com/jhoicas/wms-terminal/internal/domain/entity"
	"github.com/jhoicas/wms-terminal/internal/infrastructure/kv"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

// DefaultDebounce ventana de coalescencia de escrituras: muchas mutaciones
// rápidas del conjunto terminan en una sola escritura persistida.
const DefaultDebounce = 800 * time.Millisecond

// Store persiste el borrador de un movimiento en curso bajo una clave de
// almacenamiento propia (una por tipo de movimiento/pantalla) y lo restaura
// en la siguiente visita. Invariantes:
//   - a lo sumo un borrador sin resolver por clave: Save se rehúsa con
//     ErrBorradorPendiente hasta que el usuario retome (Resume) o descarte
//     (Dismiss/Clear) el candidato;
//   - una escritura programada por Save nunca aterriza después de un Clear
//     posterior (el timer de debounce se cancela).
type Store struct {
	kvs      kv.Store
	key      string
	clk      clock.Clock
	log      *logger.Logger
	debounce time.Duration

	mu         sync.Mutex
	timer      clock.Timer
	snapshot   *entity.Draft // último snapshot programado, pendiente de escribir
	candidate  *entity.Draft // borrador encontrado por Load, a la espera de resume-or-discard
	unresolved bool
}

// Option configura el store.
type Option func(*Store)

// WithDebounce ajusta la ventana de debounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// NewStore construye el store para una clave de movimiento.
func NewStore(kvs kv.Store, key string, clk clock.Clock, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		kvs:      kvs,
		key:      key,
		clk:      clk,
		log:      log,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load lee el borrador persistido al montar la pantalla. Si no existe o su
// lista de líneas quedó vacía, elimina cualquier entrada rancia y devuelve
// nil ("sin borrador pendiente"). Si existe con ≥1 línea lo devuelve como
// candidato que exige resume-or-discard explícito; nunca se restaura solo.
// Un fallo de lectura se registra y se trata como "sin borrador" (fallo
// abierto: no bloquea al usuario).
func (s *Store) Load(ctx context.Context) (*entity.Draft, error) {
	data, err := s.kvs.Get(ctx, s.key)
	if err != nil {
		s.log.Error().Err(err).Str("key", s.key).Msg("lectura de borrador fallida")
		return nil, nil
	}
	if data == nil {
		return nil, nil
	}
	var d entity.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		s.log.Error().Err(err).Str("key", s.key).Msg("borrador corrupto, se descarta")
		_ = s.kvs.Delete(ctx, s.key)
		return nil, nil
	}
	if d.Empty() {
		// Entrada rancia sin líneas: limpiarla y reportar sin borrador.
		if err := s.kvs.Delete(ctx, s.key); err != nil {
			s.log.Warn().Err(err).Str("key", s.key).Msg("no se pudo limpiar borrador vacío")
		}
		return nil, nil
	}

	s.mu.Lock()
	s.candidate = &d
	s.unresolved = true
	s.mu.Unlock()
	return &d, nil
}

// Save programa la escritura del snapshot tras la ventana de debounce contada
// desde la última llamada. Si al disparar el conjunto está vacío, elimina la
// entrada persistida en lugar de escribir un borrador vacío. Se rehúsa
// mientras exista un candidato de Load sin resolver.
func (s *Store) Save(ctx context.Context, lines entity.WorkingSet, loc entity.LocationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unresolved {
		return domain.ErrBorradorPendiente
	}
	s.snapshot = &entity.Draft{Location: loc, Lines: lines.Clone()}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clk.AfterFunc(s.debounce, s.flush)
	return nil
}

// flush escribe (o elimina, si quedó vacío) el último snapshot programado.
// Corre en el goroutine del timer; la escritura es de mejor esfuerzo.
func (s *Store) flush() {
	s.mu.Lock()
	snap := s.snapshot
	s.snapshot = nil
	s.timer = nil
	s.mu.Unlock()

	if snap == nil {
		return
	}
	ctx := context.Background()
	if snap.Empty() {
		if err := s.kvs.Delete(ctx, s.key); err != nil {
			s.log.Warn().Err(err).Str("key", s.key).Msg("eliminación de borrador fallida")
		}
		return
	}
	snap.SavedAt = s.clk.Now()
	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Error().Err(err).Str("key", s.key).Msg("serialización de borrador fallida")
		return
	}
	if err := s.kvs.Set(ctx, s.key, data); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("escritura de borrador fallida")
	}
}

// Resume entrega el candidato pendiente para restaurarlo en la sesión activa
// y lo marca como resuelto. Devuelve nil si no había candidato.
func (s *Store) Resume() *entity.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.candidate
	s.candidate = nil
	s.unresolved = false
	return d
}

// Dismiss marca el candidato como atendido solo en memoria; la eliminación
// del registro persistido queda delegada a Clear (flujo "empezar de cero").
func (s *Store) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = nil
	s.unresolved = false
}

// Clear cancela cualquier escritura programada y elimina la entrada
// persistida de inmediato. Se invoca tras un envío exitoso o un descarte
// explícito. Ninguna escritura programada antes de este Clear puede aterrizar
// después de él.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.snapshot = nil
	s.candidate = nil
	s.unresolved = false
	s.mu.Unlock()

	if err := s.kvs.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAlmacenamiento, err)
	}
	return nil
}

// Close cancela el timer pendiente sin escribir ni borrar (desmontaje de
// pantalla o logout: ningún timer debe actuar sobre estado rancio).
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.snapshot = nil
}
