package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock permite inyectar el tiempo en los casos de uso. Además de Now expone
// AfterFunc para que el debounce y la supresión de escaneos repetidos sean
// tareas programadas cancelables y no timeouts ad hoc.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer es el handle de una tarea programada. Stop devuelve false si la tarea
// ya se ejecutó o ya fue cancelada.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

// NewSystem devuelve un reloj respaldado por time.Now / time.AfterFunc.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ── Reloj manual para tests ───────────────────────────────────────────────────

// Manual es un reloj controlado a mano: el tiempo solo avanza con Advance y los
// timers vencidos se disparan de forma síncrona dentro de esa llamada, lo que
// hace deterministas las carreras entre debounce y cancelación.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManual crea un reloj manual posicionado en t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{clk: m, at: m.now.Add(d), fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance mueve el reloj d hacia adelante y ejecuta, en orden de vencimiento,
// los timers cuyo instante quedó alcanzado.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	var due []*manualTimer
	remaining := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.at.After(now) {
			due = append(due, t)
			continue
		}
		remaining = append(remaining, t)
	}
	m.timers = remaining
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fire()
	}
}

type manualTimer struct {
	clk     *Manual
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *manualTimer) fire() {
	t.clk.mu.Lock()
	if t.stopped {
		t.clk.mu.Unlock()
		return
	}
	t.fired = true
	fn := t.fn
	t.clk.mu.Unlock()
	fn()
}
