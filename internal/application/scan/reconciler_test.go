package scan_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/wms-terminal/internal/application/scan"
	"github.com/jhoicas/wms-terminal/internal/clock"
	"github.com/jhoicas/wms-terminal/internal/domain"
	"github.com/jhoicas/wms-terminal/internal/domain/entity"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeLookup struct {
	calls    int
	articles map[string]entity.Article
	err      error
}

func (f *fakeLookup) LookupArticle(_ context.Context, code string) (*entity.Article, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	art, ok := f.articles[code]
	if !ok {
		return nil, nil
	}
	return &art, nil
}

type fakeCues struct {
	cues    []scan.CueKind
	flashes []string
}

func (f *fakeCues) Cue(kind scan.CueKind) { f.cues = append(f.cues, kind) }
func (f *fakeCues) Flash(key string)      { f.flashes = append(f.flashes, key) }

type fakeSaver struct {
	saves int
	last  entity.WorkingSet
}

func (f *fakeSaver) Save(_ context.Context, lines entity.WorkingSet, _ entity.LocationContext) error {
	f.saves++
	f.last = lines
	return nil
}

const suppressWindow = 300 * time.Millisecond

func newTestReconciler(lookup *fakeLookup) (*scan.Reconciler, *fakeCues, *fakeSaver, *clock.Manual) {
	clk := clock.NewManual(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	cues := &fakeCues{}
	saver := &fakeSaver{}
	rec := scan.NewReconciler(lookup, cues, saver, clk, logger.Nop(),
		scan.WithSuppressWindow(suppressWindow))
	return rec, cues, saver, clk
}

func widgetCatalog() *fakeLookup {
	return &fakeLookup{articles: map[string]entity.Article{
		"ABC-123": {Code: "ABC-123", Name: "Widget", Unit: "EA", Price: decimal.NewFromInt(350)},
		"XYZ-9":   {Code: "XYZ-9", Name: "Gadget", Unit: "CJ", Price: decimal.NewFromInt(90)},
	}}
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconcile
// ──────────────────────────────────────────────────────────────────────────────

// Fallo de caché con registro válido: línea nueva al frente con cantidad 1.
func TestReconcile_InsercionNueva(t *testing.T) {
	rec, cues, saver, _ := newTestReconciler(widgetCatalog())

	out := rec.Reconcile(context.Background(), "abc-123")

	require.Equal(t, scan.OutcomeInserted, out.Kind)
	require.NotNil(t, out.Line)
	assert.Equal(t, "ABC-123", out.Line.Code, "el código debe quedar normalizado")
	assert.Equal(t, "Widget", out.Line.Description)
	assert.Equal(t, 1, out.Line.Quantity)
	assert.NotEmpty(t, out.Line.Key, "toda línea nueva recibe una key opaca")

	lines := rec.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, []scan.CueKind{scan.CueSuccess}, cues.cues)
	assert.Equal(t, []string{out.Line.Key}, cues.flashes)
	assert.Equal(t, 1, saver.saves, "cada mutación dispara el autoguardado")
}

// Acierto: cantidad +1, la línea pasa al frente y el tamaño no cambia.
func TestReconcile_AciertoIncrementaYMueveAlFrente(t *testing.T) {
	rec, _, _, clk := newTestReconciler(widgetCatalog())
	ctx := context.Background()

	rec.Reconcile(ctx, "ABC-123")
	clk.Advance(suppressWindow + time.Millisecond)
	rec.Reconcile(ctx, "XYZ-9")
	clk.Advance(suppressWindow + time.Millisecond)

	out := rec.Reconcile(ctx, "abc’123") // misma identidad tras normalizar

	require.Equal(t, scan.OutcomeIncremented, out.Kind)
	lines := rec.Lines()
	require.Len(t, lines, 2, "el tamaño del conjunto no cambia en un acierto")
	assert.Equal(t, "ABC-123", lines[0].Code, "la línea tocada pasa al frente")
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "XYZ-9", lines[1].Code)
}

// No encontrado: señal de error, mensaje, y el conjunto queda intacto.
func TestReconcile_NoEncontradoNoMuta(t *testing.T) {
	rec, cues, saver, clk := newTestReconciler(widgetCatalog())
	ctx := context.Background()

	rec.Reconcile(ctx, "ABC-123")
	clk.Advance(suppressWindow + time.Millisecond)
	before := rec.Lines()

	out := rec.Reconcile(ctx, "NO-EXISTE")

	require.Equal(t, scan.OutcomeNotFound, out.Kind)
	assert.Contains(t, out.Message, "NO-EXISTE")
	assert.Equal(t, before, rec.Lines(), "el conjunto debe quedar byte a byte igual")
	assert.Equal(t, scan.CueError, cues.cues[len(cues.cues)-1])
	assert.Equal(t, 1, saver.saves, "un no-encontrado no dispara autoguardado")
}

// Fallo de red: señal distinta a no-encontrado y mensaje reintetable.
func TestReconcile_FalloDeRedSeDistingue(t *testing.T) {
	lookup := &fakeLookup{err: domain.ErrConectividad}
	rec, cues, _, _ := newTestReconciler(lookup)

	out := rec.Reconcile(context.Background(), "ABC-123")

	require.Equal(t, scan.OutcomeConnectivity, out.Kind)
	assert.Empty(t, rec.Lines())
	assert.Equal(t, []scan.CueKind{scan.CueWarning}, cues.cues,
		"conectividad y validez deben sonar distinto")
}

// Fallo de red con sesión expirada: el mensaje lo dice explícitamente.
func TestReconcile_SesionExpirada(t *testing.T) {
	lookup := &fakeLookup{err: domain.ErrSesionExpirada}
	rec, _, _, _ := newTestReconciler(lookup)

	out := rec.Reconcile(context.Background(), "ABC-123")

	require.Equal(t, scan.OutcomeConnectivity, out.Kind)
	assert.Equal(t, domain.ErrSesionExpirada.Error(), out.Message)
}

// Código vacío tras normalizar: no-op total.
func TestReconcile_VacioEsNoOp(t *testing.T) {
	lookup := widgetCatalog()
	rec, cues, saver, _ := newTestReconciler(lookup)

	out := rec.Reconcile(context.Background(), "   ")

	assert.Equal(t, scan.OutcomeIgnored, out.Kind)
	assert.Zero(t, lookup.calls)
	assert.Empty(t, cues.cues)
	assert.Zero(t, saver.saves)
}

// ──────────────────────────────────────────────────────────────────────────────
// Supresión de repetidos
// ──────────────────────────────────────────────────────────────────────────────

// La decodificación duplicada dentro de la ventana se suprime en silencio;
// tras la ventana el mismo código vuelve a aceptarse a propósito.
func TestReconcile_SupresionYLiberacion(t *testing.T) {
	rec, _, _, clk := newTestReconciler(widgetCatalog())
	ctx := context.Background()

	first := rec.Reconcile(ctx, "ABC-123")
	dup := rec.Reconcile(ctx, "ABC-123")
	require.Equal(t, scan.OutcomeInserted, first.Kind)
	require.Equal(t, scan.OutcomeSuppressed, dup.Kind, "repetición inmediata debe suprimirse")
	assert.Equal(t, 1, rec.Lines()[0].Quantity, "la supresión no muta el conjunto")

	clk.Advance(suppressWindow + time.Millisecond)

	again := rec.Reconcile(ctx, "ABC-123")
	assert.Equal(t, scan.OutcomeIncremented, again.Kind, "tras la ventana el código se acepta de nuevo")
	assert.Equal(t, 2, rec.Lines()[0].Quantity)
}

// Un código distinto intercalado reemplaza la supresión: A, B, A acepta los tres.
func TestReconcile_CodigoDistintoReemplazaSupresion(t *testing.T) {
	rec, _, _, _ := newTestReconciler(widgetCatalog())
	ctx := context.Background()

	require.Equal(t, scan.OutcomeInserted, rec.Reconcile(ctx, "ABC-123").Kind)
	require.Equal(t, scan.OutcomeInserted, rec.Reconcile(ctx, "XYZ-9").Kind)
	out := rec.Reconcile(ctx, "ABC-123")
	assert.Equal(t, scan.OutcomeIncremented, out.Kind,
		"solo la repetición inmediata se suprime, no la alternada")
}

// Escenario extremo a extremo: dos escaneos deliberados del mismo código en
// modo agresivo → cantidad 2 con exactamente una búsqueda remota.
func TestReconcile_DosEscaneosUnaSolaBusqueda(t *testing.T) {
	lookup := widgetCatalog()
	rec, _, _, clk := newTestReconciler(lookup)
	ctx := context.Background()

	rec.Reconcile(ctx, "abc-123")
	clk.Advance(suppressWindow + time.Millisecond)
	rec.Reconcile(ctx, "abc-123")

	lines := rec.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "ABC-123", lines[0].Code)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lookup.calls, "el segundo escaneo debe resolverse en memoria")
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjust
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_DecrementoACeroElimina(t *testing.T) {
	rec, _, _, clk := newTestReconciler(widgetCatalog())
	ctx := context.Background()

	rec.Reconcile(ctx, "ABC-123")
	clk.Advance(suppressWindow + time.Millisecond)
	rec.Reconcile(ctx, "ABC-123") // cantidad 2

	require.NoError(t, rec.Adjust(ctx, "ABC-123", -2))
	assert.Empty(t, rec.Lines(), "cantidad 0 elimina la línea, nunca queda en 0")
}

func TestAdjust_DecrementoBajoCeroEquivaleAEliminar(t *testing.T) {
	rec, _, _, _ := newTestReconciler(widgetCatalog())
	ctx := context.Background()

	rec.Reconcile(ctx, "ABC-123")

	require.NoError(t, rec.Adjust(ctx, "abc-123", -5))
	assert.Empty(t, rec.Lines(), "nunca debe quedar una cantidad negativa")
}

func TestAdjust_IncrementoYErrores(t *testing.T) {
	rec, _, saver, _ := newTestReconciler(widgetCatalog())
	ctx := context.Background()

	rec.Reconcile(ctx, "ABC-123")
	require.NoError(t, rec.Adjust(ctx, "ABC-123", 3))
	assert.Equal(t, 4, rec.Lines()[0].Quantity)

	assert.ErrorIs(t, rec.Adjust(ctx, "NO-HAY", 1), domain.ErrArticuloNoEncontrado)
	assert.ErrorIs(t, rec.Adjust(ctx, "ABC-123", 0), domain.ErrEntradaInvalida)
	assert.ErrorIs(t, rec.Adjust(ctx, "  ", 1), domain.ErrEntradaInvalida)
	assert.Equal(t, 2, saver.saves, "solo las mutaciones reales autoguardan")
}

// ──────────────────────────────────────────────────────────────────────────────
// Restore / Reset
// ──────────────────────────────────────────────────────────────────────────────

func TestRestoreYReset(t *testing.T) {
	rec, _, _, _ := newTestReconciler(widgetCatalog())

	d := &entity.Draft{
		Location: entity.LocationContext{BranchID: "SUC-1", WarehouseID: "BOD-2"},
		Lines: entity.WorkingSet{
			{Key: "k1", Code: "ABC-123", Description: "Widget", Unit: "EA", Quantity: 7},
		},
	}
	rec.Restore(d)
	require.Len(t, rec.Lines(), 1)
	assert.Equal(t, 7, rec.Lines()[0].Quantity)
	assert.Equal(t, "SUC-1", rec.Location().BranchID)

	// La copia debe ser independiente del borrador restaurado.
	require.NoError(t, rec.Adjust(context.Background(), "ABC-123", 1))
	assert.Equal(t, 7, d.Lines[0].Quantity, "mutar el conjunto no debe tocar el borrador")

	rec.Reset()
	assert.Empty(t, rec.Lines())
}

// Tras un fallo de red, el reintento es un nuevo escaneo explícito (no
// automático): el mismo código debe volver a intentarse y esta vez insertar.
func TestReconcile_ReintentoExplicitoTrasFalloDeRed(t *testing.T) {
	lookup := widgetCatalog()
	lookup.err = errors.New("timeout")
	rec, _, _, clk := newTestReconciler(lookup)
	ctx := context.Background()

	out := rec.Reconcile(ctx, "ABC-123")
	require.Equal(t, scan.OutcomeConnectivity, out.Kind)
	assert.Equal(t, 1, lookup.calls, "jamás se reintenta a ciegas")

	clk.Advance(suppressWindow + time.Millisecond)
	lookup.err = nil

	out = rec.Reconcile(ctx, "ABC-123")
	assert.Equal(t, scan.OutcomeInserted, out.Kind)
	assert.Equal(t, 2, lookup.calls)
}
