package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/wms-terminal/internal/clock"
	"github.com/jhoicas/wms-terminal/internal/domain"
	"github.com/jhoicas/wms-terminal/internal/domain/entity"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

// defaultSuppressWindow tiempo tras terminar el manejo de un escaneo durante
// el cual el mismo código se ignora (decodificaciones duplicadas de cámara).
const defaultSuppressWindow = 300 * time.Millisecond

// OutcomeKind clase de resultado de una reconciliación.
type OutcomeKind int

const (
	OutcomeIgnored      OutcomeKind = iota // código vacío tras normalizar
	OutcomeSuppressed                      // repetición inmediata, suprimida en silencio
	OutcomeIncremented                     // línea existente, cantidad +1
	OutcomeInserted                        // línea nueva insertada al frente
	OutcomeNotFound                        // el backend no conoce el código
	OutcomeConnectivity                    // fallo de red/sesión, reintentable
)

// Outcome resultado visible para el llamador. Los fallos nunca se propagan
// como error: se convierten en señal + mensaje y el conjunto queda intacto.
type Outcome struct {
	Kind    OutcomeKind
	Code    string           // código normalizado que se procesó
	Line    *entity.LineItem // línea afectada (copia) en Incremented/Inserted
	Message string           // mensaje para el usuario en NotFound/Connectivity
}

// Reconciler convierte escaneos/entradas manuales en mutaciones del conjunto
// de trabajo, minimizando búsquedas de red duplicadas. El llamador serializa
// las invocaciones (la UI se deshabilita durante la búsqueda en vuelo); el
// único elemento asíncrono propio es el timer de liberación de supresión.
type Reconciler struct {
	lookup   ArticleLookup
	cues     FeedbackSink
	saver    DraftSaver // opcional; nil desactiva el autoguardado
	clk      clock.Clock
	log      *logger.Logger
	suppress time.Duration

	mu            sync.Mutex
	set           entity.WorkingSet
	loc           entity.LocationContext
	lastCode      string
	suppressTimer clock.Timer
}

// Option configura el reconciliador.
type Option func(*Reconciler)

// WithSuppressWindow ajusta la ventana de supresión de repeticiones.
func WithSuppressWindow(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.suppress = d
		}
	}
}

// NewReconciler construye el reconciliador.
func NewReconciler(lookup ArticleLookup, cues FeedbackSink, saver DraftSaver, clk clock.Clock, log *logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		lookup:   lookup,
		cues:     cues,
		saver:    saver,
		clk:      clk,
		log:      log,
		suppress: defaultSuppressWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile procesa un código crudo contra el conjunto de trabajo actual.
// Acierto: cantidad +1 y la línea pasa al frente. Fallo de caché: búsqueda
// remota; encontrado inserta al frente con cantidad 1, no-encontrado y fallo
// de red dejan el conjunto intacto con señales distintas. Los errores de red
// solo se reintentan con un nuevo escaneo explícito del usuario.
func (r *Reconciler) Reconcile(ctx context.Context, raw string) Outcome {
	code := Normalize(raw)
	if code == "" {
		return Outcome{Kind: OutcomeIgnored}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if code == r.lastCode {
		// Decodificación duplicada dentro de la ventana: no es un error.
		return Outcome{Kind: OutcomeSuppressed, Code: code}
	}
	r.lastCode = code
	if r.suppressTimer != nil {
		r.suppressTimer.Stop()
	}
	defer r.scheduleSuppressRelease(code)

	if i := r.set.IndexOf(code); i >= 0 {
		r.set[i].Quantity++
		r.set.MoveToFront(i)
		line := r.set[0]
		r.cues.Cue(CueSuccess)
		r.cues.Flash(line.Key)
		r.autosave(ctx)
		return Outcome{Kind: OutcomeIncremented, Code: code, Line: &line}
	}

	art, err := r.lookup.LookupArticle(ctx, code)
	if err != nil {
		r.cues.Cue(CueWarning)
		msg := "sin conexión con el servidor, vuelva a escanear"
		if errors.Is(err, domain.ErrSesionExpirada) {
			msg = domain.ErrSesionExpirada.Error()
		}
		r.log.Warn().Err(err).Str("code", code).Msg("búsqueda remota fallida")
		return Outcome{Kind: OutcomeConnectivity, Code: code, Message: msg}
	}
	if art == nil {
		r.cues.Cue(CueError)
		return Outcome{Kind: OutcomeNotFound, Code: code, Message: "artículo no encontrado: " + code}
	}

	line := entity.NewLineItem(*art)
	r.set = r.set.InsertFront(line)
	r.cues.Cue(CueSuccess)
	r.cues.Flash(line.Key)
	r.autosave(ctx)
	return Outcome{Kind: OutcomeInserted, Code: code, Line: &line}
}

// Adjust modifica la cantidad de la línea con el código dado en delta unidades.
// Si la cantidad resultante es ≤ 0 la línea se elimina del conjunto (nunca
// queda en 0 ni negativa).
func (r *Reconciler) Adjust(ctx context.Context, code string, delta int) error {
	code = Normalize(code)
	if code == "" || delta == 0 {
		return domain.ErrEntradaInvalida
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.set.IndexOf(code)
	if i < 0 {
		return domain.ErrArticuloNoEncontrado
	}
	r.set[i].Quantity += delta
	if r.set[i].Quantity <= 0 {
		r.set = r.set.RemoveAt(i)
	}
	r.autosave(ctx)
	return nil
}

// Lines devuelve una copia del conjunto de trabajo actual.
func (r *Reconciler) Lines() entity.WorkingSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.Clone()
}

// Location devuelve el contexto de ubicación actual.
func (r *Reconciler) Location() entity.LocationContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loc
}

// SetLocation fija el contexto de ubicación y dispara el autoguardado si ya
// hay líneas en el conjunto.
func (r *Reconciler) SetLocation(ctx context.Context, loc entity.LocationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loc = loc
	if len(r.set) > 0 {
		r.autosave(ctx)
	}
}

// Restore carga el conjunto y la ubicación desde un borrador retomado.
func (r *Reconciler) Restore(d *entity.Draft) {
	if d == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = d.Lines.Clone()
	r.loc = d.Location
}

// Reset vacía el conjunto de trabajo en memoria. No toca el almacenamiento;
// el descarte persistido es responsabilidad del Draft Store (Clear).
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = nil
	r.lastCode = ""
	if r.suppressTimer != nil {
		r.suppressTimer.Stop()
		r.suppressTimer = nil
	}
}

// Close cancela el timer de supresión pendiente (teardown de pantalla).
func (r *Reconciler) Close() {
	r.Reset()
}

// scheduleSuppressRelease libera la supresión poco después de terminar el
// manejo, para que el mismo código pueda escanearse de nuevo a propósito.
// Se llama con r.mu tomado.
func (r *Reconciler) scheduleSuppressRelease(code string) {
	r.suppressTimer = r.clk.AfterFunc(r.suppress, func() {
		r.mu.Lock()
		if r.lastCode == code {
			r.lastCode = ""
		}
		r.mu.Unlock()
	})
}

// autosave persiste el snapshot actual (debounced por el store). El fallo de
// escritura no bloquea el trabajo en memoria. Se llama con r.mu tomado.
func (r *Reconciler) autosave(ctx context.Context) {
	if r.saver == nil {
		return
	}
	if err := r.saver.Save(ctx, r.set.Clone(), r.loc); err != nil {
		r.log.Warn().Err(err).Msg("autoguardado de borrador fallido")
	}
}
