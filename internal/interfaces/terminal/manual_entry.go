package terminal

import (
	"sync"
	"time"

	"github.com/jhoicas/wms-terminal/internal/clock"
)

// DefaultManualDebounce inactividad antes de auto-enviar en modo manual.
const DefaultManualDebounce = time.Second

// ManualEntry acumula la entrada por teclado en modo manual y la envía tras
// ~1 s de inactividad, o de inmediato con Confirm (enter explícito). El envío
// es una tarea programada cancelable; Close la cancela en el desmontaje.
type ManualEntry struct {
	clk      clock.Clock
	debounce time.Duration
	submit   func(code string)

	mu    sync.Mutex
	buf   string
	timer clock.Timer
}

// NewManualEntry construye el buffer de entrada manual.
func NewManualEntry(clk clock.Clock, debounce time.Duration, submit func(code string)) *ManualEntry {
	if debounce <= 0 {
		debounce = DefaultManualDebounce
	}
	return &ManualEntry{clk: clk, debounce: debounce, submit: submit}
}

// Input agrega un fragmento tecleado y rearma el timer de inactividad.
func (m *ManualEntry) Input(chunk string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf += chunk
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.clk.AfterFunc(m.debounce, m.fire)
}

// Confirm envía el contenido acumulado de inmediato (enter explícito).
func (m *ManualEntry) Confirm() {
	m.fire()
}

// Close cancela el envío pendiente sin disparar (desmontaje de pantalla).
func (m *ManualEntry) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.buf = ""
}

func (m *ManualEntry) fire() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	code := m.buf
	m.buf = ""
	m.mu.Unlock()

	if code != "" {
		m.submit(code)
	}
}
