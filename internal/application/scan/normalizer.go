package scan

import "strings"

// Variantes de apóstrofo que los lectores y teclados producen para el mismo
// separador de referencia; todas se mapean al separador canónico "-".
var apostropheReplacer = strings.NewReplacer(
	"'", "-",
	"’", "-",
	"‘", "-",
	"`", "-",
	"´", "-",
)

// Normalize convierte un código crudo (cámara o teclado) a su forma canónica:
// recorta espacios, mapea variantes de apóstrofo a "-" y pasa a mayúsculas.
// Dos códigos son el mismo artículo si y solo si sus formas normalizadas son
// idénticas byte a byte. Normalize es idempotente.
func Normalize(raw string) string {
	code := strings.TrimSpace(raw)
	code = apostropheReplacer.Replace(code)
	return strings.ToUpper(code)
}
