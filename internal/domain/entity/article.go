package entity

import "github.com/shopspring/decimal"

// Article representa la ficha de un artículo devuelta por el backend al buscar
// por código. El cliente no mantiene catálogo local: cada código desconocido se
// resuelve contra el servidor y el resultado vive solo en el conjunto de trabajo.
type Article struct {
	Code  string          `json:"code"` // código normalizado (identidad)
	Name  string          `json:"name"`
	Unit  string          `json:"unit"`            // unidad de medida (ej. "EA", "CJ")
	Price decimal.Decimal `json:"price,omitempty"` // precio de venta (pantallas POS)
}
