package feedback

import (
	"github.com/jhoicas/wms-terminal/internal/application/scan"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

var _ scan.FeedbackSink = (*LogSink)(nil)

// LogSink implementa el puerto de retroalimentación registrando las señales.
// En el dispositivo real este puerto lo cubre el háptico/altavoz del equipo;
// en el terminal de consola y en desarrollo basta con el log.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Cue emite la señal. Fire-and-forget: jamás bloquea ni devuelve error.
func (s *LogSink) Cue(kind scan.CueKind) {
	switch kind {
	case scan.CueSuccess:
		s.log.Debug().Str("cue", "éxito").Msg("señal")
	case scan.CueError:
		s.log.Debug().Str("cue", "error").Msg("señal")
	case scan.CueWarning:
		s.log.Debug().Str("cue", "advertencia").Msg("señal")
	}
}

// Flash registra el resaltado transitorio de una línea.
func (s *LogSink) Flash(lineKey string) {
	s.log.Debug().Str("line_key", lineKey).Msg("flash")
}

// Null es un sink que descarta todas las señales (tests).
type Null struct{}

func (Null) Cue(scan.CueKind) {}
func (Null) Flash(string)     {}
