package terminal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/wms-terminal/internal/clock"
	"github.com/jhoicas/wms-terminal/internal/interfaces/terminal"
)

func newManual(t *testing.T) (*clock.Manual, *terminal.ManualEntry, *[]string) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	var envios []string
	m := terminal.NewManualEntry(clk, time.Second, func(code string) {
		envios = append(envios, code)
	})
	return clk, m, &envios
}

func TestManualEntry_EnviaTrasInactividad(t *testing.T) {
	clk, m, envios := newManual(t)

	m.Input("ABC")
	m.Input("-123")

	clk.Advance(900 * time.Millisecond)
	assert.Empty(t, *envios, "aún dentro de la ventana de inactividad")

	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, []string{"ABC-123"}, *envios)
}

func TestManualEntry_CadaTeclaRearmaElTimer(t *testing.T) {
	clk, m, envios := newManual(t)

	m.Input("A")
	clk.Advance(800 * time.Millisecond)
	m.Input("B")
	clk.Advance(800 * time.Millisecond)
	m.Input("C")
	assert.Empty(t, *envios, "la inactividad se cuenta desde la última tecla")

	clk.Advance(time.Second)
	assert.Equal(t, []string{"ABC"}, *envios)
}

func TestManualEntry_ConfirmEnviaDeInmediato(t *testing.T) {
	clk, m, envios := newManual(t)

	m.Input("XYZ-9")
	m.Confirm()
	assert.Equal(t, []string{"XYZ-9"}, *envios)

	// El timer quedó cancelado: avanzar el reloj no reenvía.
	clk.Advance(2 * time.Second)
	assert.Equal(t, []string{"XYZ-9"}, *envios)
}

func TestManualEntry_ConfirmSinContenidoNoEnvia(t *testing.T) {
	_, m, envios := newManual(t)

	m.Confirm()
	assert.Empty(t, *envios)
}

func TestManualEntry_CloseCancelaElEnvioPendiente(t *testing.T) {
	clk, m, envios := newManual(t)

	m.Input("ABC-123")
	m.Close()

	clk.Advance(5 * time.Second)
	assert.Empty(t, *envios, "el desmontaje no debe disparar envíos")
}
