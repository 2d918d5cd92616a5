package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem es una línea del conjunto de trabajo de un movimiento en curso.
// Invariante: dentro de un conjunto existe exactamente una línea por código
// normalizado, y Quantity > 0 mientras la línea exista (al llegar a 0 se elimina).
type LineItem struct {
	Key         string          `json:"key"` // identificador opaco estable, generado al insertar, nunca reutilizado
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price,omitempty"` // precio unitario informativo (POS)
}

// NewLineItem crea una línea a partir de la ficha del artículo con cantidad 1.
func NewLineItem(art Article) LineItem {
	return LineItem{
		Key:         uuid.New().String(),
		Code:        art.Code,
		Description: art.Name,
		Unit:        art.Unit,
		Quantity:    1,
		Price:       art.Price,
	}
}

// WorkingSet es la secuencia ordenada de líneas en construcción, con la línea
// tocada más recientemente al frente.
type WorkingSet []LineItem

// IndexOf devuelve la posición de la línea con el código dado, o -1.
func (ws WorkingSet) IndexOf(code string) int {
	for i := range ws {
		if ws[i].Code == code {
			return i
		}
	}
	return -1
}

// MoveToFront mueve la línea en la posición i al frente preservando el orden
// relativo del resto.
func (ws WorkingSet) MoveToFront(i int) {
	if i <= 0 || i >= len(ws) {
		return
	}
	line := ws[i]
	copy(ws[1:i+1], ws[0:i])
	ws[0] = line
}

// InsertFront inserta una línea nueva al frente del conjunto.
func (ws WorkingSet) InsertFront(line LineItem) WorkingSet {
	out := make(WorkingSet, 0, len(ws)+1)
	out = append(out, line)
	return append(out, ws...)
}

// RemoveAt elimina la línea en la posición i.
func (ws WorkingSet) RemoveAt(i int) WorkingSet {
	if i < 0 || i >= len(ws) {
		return ws
	}
	return append(ws[:i:i], ws[i+1:]...)
}

// Clone devuelve una copia independiente (para snapshots de autoguardado).
func (ws WorkingSet) Clone() WorkingSet {
	if ws == nil {
		return nil
	}
	out := make(WorkingSet, len(ws))
	copy(out, ws)
	return out
}

// TotalUnits suma las cantidades de todas las líneas.
func (ws WorkingSet) TotalUnits() int {
	total := 0
	for i := range ws {
		total += ws[i].Quantity
	}
	return total
}

// TotalAmount suma cantidad × precio de todas las líneas.
func (ws WorkingSet) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range ws {
		total = total.Add(ws[i].Price.Mul(decimal.NewFromInt(int64(ws[i].Quantity))))
	}
	return total
}
