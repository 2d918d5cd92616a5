package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/wms-terminal/internal/application/draft"
	"github.com/jhoicas/wms-terminal/internal/application/movement"
	"github.com/jhoicas/wms-terminal/internal/application/scan"
	"github.com/jhoicas/wms-terminal/internal/clock"
	"github.com/jhoicas/wms-terminal/internal/domain"
	"github.com/jhoicas/wms-terminal/internal/domain/entity"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

// Mode modo de entrada del lector.
type Mode int

const (
	// ModeAggressive cada código decodificado se envía de inmediato.
	ModeAggressive Mode = iota
	// ModeManual la entrada se acumula y se auto-envía tras ~1 s de
	// inactividad, o de inmediato con enter explícito (línea vacía).
	ModeManual
)

func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "agresivo"
}

// ClaimPort puerto para reclamar un traslado anunciado en ventanilla.
type ClaimPort interface {
	ClaimVentanilla(ctx context.Context, eventID int64) error
}

// Session es la sesión interactiva del terminal de mano sobre stdin/stdout:
// escanear códigos, ajustar cantidades, retomar o descartar borradores y
// enviar el movimiento. Es una capa delgada: toda la lógica de reconciliación
// vive en los casos de uso.
type Session struct {
	rec       *scan.Reconciler
	drafts    *draft.Store
	submitter *movement.Submitter
	claims    ClaimPort
	clk       clock.Clock
	log       *logger.Logger

	in       io.Reader
	out      io.Writer
	movType  string
	mode     Mode
	manual   *ManualEntry
	inflight bool // lectura remota en vuelo: la entrada se descarta (UI deshabilitada)

	mu        sync.Mutex
	lastEvent *entity.VentanillaEvent // último evento de ventanilla mostrado
}

// SessionConfig dependencias y parámetros de la sesión.
type SessionConfig struct {
	Reconciler     *scan.Reconciler
	Drafts         *draft.Store
	Submitter      *movement.Submitter
	Claims         ClaimPort
	Clock          clock.Clock
	Log            *logger.Logger
	In             io.Reader
	Out            io.Writer
	MovementType   string
	ManualDebounce time.Duration
}

// NewSession construye la sesión en modo agresivo.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		rec:       cfg.Reconciler,
		drafts:    cfg.Drafts,
		submitter: cfg.Submitter,
		claims:    cfg.Claims,
		clk:       cfg.Clock,
		log:       cfg.Log,
		in:        cfg.In,
		out:       cfg.Out,
		movType:   cfg.MovementType,
	}
	s.manual = NewManualEntry(cfg.Clock, cfg.ManualDebounce, func(code string) {
		s.handleScan(context.Background(), code)
	})
	return s
}

// OnVentanilla es el Handler que la sesión registra en el poller: muestra el
// aviso y recuerda el evento para un :reclamar posterior.
func (s *Session) OnVentanilla(ev entity.VentanillaEvent) {
	s.mu.Lock()
	s.lastEvent = &ev
	s.mu.Unlock()
	fmt.Fprintf(s.out, "\n▲ ventanilla: traslado %s de %s listo para reclamar (:reclamar)\n", ev.Reference, ev.FromWarehouse)
}

// Run ejecuta el loop de la sesión hasta :salir o EOF. Primero resuelve el
// borrador pendiente (retomar o descartar) antes de permitir trabajo nuevo.
func (s *Session) Run(ctx context.Context) error {
	reader := bufio.NewScanner(s.in)

	if err := s.resolvePending(ctx, reader); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "terminal listo — movimiento %s, modo %s (:ayuda)\n", s.movType, s.mode)

	for reader.Scan() {
		if err := ctx.Err(); err != nil {
			break
		}
		line := reader.Text()
		if quit := s.handleLine(ctx, line); quit {
			break
		}
	}
	s.teardown()
	return reader.Err()
}

// resolvePending exige resume-or-discard si Load encontró un borrador con
// líneas; nunca se restaura en silencio.
func (s *Session) resolvePending(ctx context.Context, reader *bufio.Scanner) error {
	d, err := s.drafts.Load(ctx)
	if err != nil || d == nil {
		return err
	}
	fmt.Fprintf(s.out, "hay un borrador pendiente con %d línea(s) guardado el %s\n", len(d.Lines), d.SavedAt.Format("2006-01-02 15:04"))
	for {
		fmt.Fprint(s.out, "¿[r]etomar o [d]escartar? ")
		if !reader.Scan() {
			// EOF sin resolver: el borrador queda intacto para la próxima visita.
			return reader.Err()
		}
		switch strings.ToLower(strings.TrimSpace(reader.Text())) {
		case "r":
			s.rec.Restore(s.drafts.Resume())
			fmt.Fprintln(s.out, "borrador retomado")
			return nil
		case "d":
			// El descarte en memoria y la eliminación del registro van juntos
			// en este flujo; Dismiss primero libera el candidato.
			s.drafts.Dismiss()
			if err := s.drafts.Clear(ctx); err != nil {
				fmt.Fprintln(s.out, "aviso: no se pudo eliminar el borrador, se reintentará al guardar")
			}
			fmt.Fprintln(s.out, "borrador descartado")
			return nil
		}
	}
}

// handleLine procesa una línea de entrada. Devuelve true para terminar.
func (s *Session) handleLine(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, ":"):
		return s.handleCommand(ctx, trimmed)
	case strings.HasPrefix(trimmed, "+"), strings.HasPrefix(trimmed, "-"):
		s.handleAdjust(ctx, trimmed)
		return false
	}

	if s.mode == ModeManual {
		if trimmed == "" {
			s.manual.Confirm()
		} else {
			s.manual.Input(trimmed)
		}
		return false
	}
	if trimmed != "" {
		s.handleScan(ctx, trimmed)
	}
	return false
}

// handleScan invoca al reconciliador y traduce el resultado a pantalla. La
// entrada se descarta mientras hay una búsqueda en vuelo: junto con la
// supresión de repetidos, esto impide búsquedas solapadas en la sesión.
func (s *Session) handleScan(ctx context.Context, raw string) {
	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return
	}
	s.inflight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight = false
		s.mu.Unlock()
	}()

	out := s.rec.Reconcile(ctx, raw)
	switch out.Kind {
	case scan.OutcomeIncremented:
		fmt.Fprintf(s.out, "✔ %s ×%d %s\n", out.Line.Code, out.Line.Quantity, out.Line.Description)
	case scan.OutcomeInserted:
		fmt.Fprintf(s.out, "✚ %s ×1 %s\n", out.Line.Code, out.Line.Description)
	case scan.OutcomeNotFound, scan.OutcomeConnectivity:
		fmt.Fprintf(s.out, "✘ %s\n", out.Message)
	}
	// Suppressed e Ignored: silencio, igual que en el dispositivo.
}

// handleAdjust procesa los atajos "+CODE [n]" / "-CODE [n]".
func (s *Session) handleAdjust(ctx context.Context, input string) {
	sign := 1
	if input[0] == '-' {
		sign = -1
	}
	fields := strings.Fields(input[1:])
	if len(fields) == 0 {
		fmt.Fprintln(s.out, "uso: +CODIGO [n] / -CODIGO [n]")
		return
	}
	n := 1
	if len(fields) > 1 {
		parsed, err := strconv.Atoi(fields[1])
		if err != nil || parsed <= 0 {
			fmt.Fprintln(s.out, "cantidad inválida")
			return
		}
		n = parsed
	}
	if err := s.rec.Adjust(ctx, fields[0], sign*n); err != nil {
		fmt.Fprintf(s.out, "✘ %s\n", err)
	}
}

// handleCommand procesa comandos ":". Devuelve true para terminar la sesión.
func (s *Session) handleCommand(ctx context.Context, cmd string) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":salir":
		return true
	case ":modo":
		if s.mode == ModeAggressive {
			s.mode = ModeManual
		} else {
			s.manual.Close()
			s.mode = ModeAggressive
		}
		fmt.Fprintf(s.out, "modo %s\n", s.mode)
	case ":lineas":
		s.printLines()
	case ":ubicacion":
		s.setLocation(ctx, fields[1:])
	case ":enviar":
		s.submit(ctx, fields[1:])
	case ":descartar":
		s.rec.Reset()
		if err := s.drafts.Clear(ctx); err != nil {
			fmt.Fprintf(s.out, "✘ %s\n", err)
			break
		}
		fmt.Fprintln(s.out, "conjunto descartado")
	case ":reclamar":
		s.claim(ctx)
	case ":ayuda":
		s.printHelp()
	default:
		fmt.Fprintf(s.out, "comando desconocido: %s (:ayuda)\n", fields[0])
	}
	return false
}

func (s *Session) printLines() {
	lines := s.rec.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(s.out, "(sin líneas)")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(s.out, "  %-20s ×%-4d %s [%s]\n", l.Code, l.Quantity, l.Description, l.Unit)
	}
	fmt.Fprintf(s.out, "  total: %d unidad(es)\n", lines.TotalUnits())
}

func (s *Session) setLocation(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "uso: :ubicacion SUCURSAL BODEGA [SUBUBICACION]")
		return
	}
	loc := entity.LocationContext{BranchID: args[0], WarehouseID: args[1]}
	if len(args) > 2 {
		loc.SubLocation = strings.Join(args[2:], " ")
	}
	s.rec.SetLocation(ctx, loc)
	fmt.Fprintln(s.out, "ubicación fijada")
}

func (s *Session) submit(ctx context.Context, args []string) {
	movType := s.movType
	if len(args) > 0 {
		movType = strings.ToUpper(args[0])
	}
	resp, err := s.submitter.Submit(ctx, movType, s.rec.Lines(), s.rec.Location())
	if err != nil {
		if err == domain.ErrEntradaInvalida {
			fmt.Fprintln(s.out, "✘ nada que enviar o tipo de movimiento desconocido")
			return
		}
		fmt.Fprintf(s.out, "✘ %s\n", err)
		return
	}
	s.rec.Reset()
	fmt.Fprintf(s.out, "✔ movimiento registrado: folio %s\n", resp.Folio)
}

func (s *Session) claim(ctx context.Context) {
	s.mu.Lock()
	ev := s.lastEvent
	s.mu.Unlock()
	if ev == nil {
		fmt.Fprintln(s.out, "no hay evento de ventanilla pendiente")
		return
	}
	if s.claims == nil {
		fmt.Fprintln(s.out, "reclamo no disponible")
		return
	}
	if err := s.claims.ClaimVentanilla(ctx, ev.EventID); err != nil {
		fmt.Fprintf(s.out, "✘ %s\n", err)
		return
	}
	s.mu.Lock()
	s.lastEvent = nil
	s.mu.Unlock()
	fmt.Fprintf(s.out, "✔ traslado %s reclamado\n", ev.Reference)
}

func (s *Session) printHelp() {
	fmt.Fprint(s.out, `comandos:
  CODIGO            escanear (modo agresivo: inmediato; manual: debounce 1s)
  (línea vacía)     confirmar entrada manual de inmediato
  +CODIGO [n]       sumar cantidad
  -CODIGO [n]       restar cantidad (0 elimina la línea)
  :modo             alternar agresivo/manual
  :lineas           ver el conjunto de trabajo
  :ubicacion S B [U] fijar sucursal/bodega/sububicación
  :enviar [TIPO]    enviar movimiento (ENTRY, EXIT, COUNT, PICKING, PACKING, SHIPPING)
  :descartar        vaciar conjunto y eliminar borrador
  :reclamar         reclamar el último traslado anunciado
  :salir            terminar
`)
}

// teardown cancela timers pendientes; ninguno debe actuar tras el desmontaje.
func (s *Session) teardown() {
	s.manual.Close()
	s.rec.Close()
	s.drafts.Close()
}
