package scan

import (
	"context"

	"github.com/jhoicas/wms-terminal/internal/domain/entity"
)

// ArticleLookup define el puerto de búsqueda remota por código (DIP).
// Devuelve (nil, nil) cuando el backend respondió pero el código no existe;
// un error indica fallo de conectividad o sesión, nunca "no encontrado".
type ArticleLookup interface {
	LookupArticle(ctx context.Context, code string) (*entity.Article, error)
}

// CueKind clase de señal hacia el usuario.
type CueKind int

const (
	CueSuccess CueKind = iota // háptico/sonido de éxito
	CueError                  // código inválido o no encontrado
	CueWarning                // fallo de conectividad, reintentar
)

// FeedbackSink recibe señales fire-and-forget de retroalimentación; no se
// consume ningún valor de retorno y la implementación no debe bloquear.
type FeedbackSink interface {
	Cue(kind CueKind)
	// Flash resalta transitoriamente la línea identificada por su Key.
	Flash(lineKey string)
}

// DraftSaver es el puerto de autoguardado: el reconciliador lo invoca tras
// cada mutación del conjunto de trabajo y el store aplica su debounce.
type DraftSaver interface {
	Save(ctx context.Context, lines entity.WorkingSet, loc entity.LocationContext) error
}
