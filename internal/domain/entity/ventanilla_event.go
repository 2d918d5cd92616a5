package entity

import "time"

// VentanillaEvent es un evento de entrega originado en el servidor: un traslado
// quedó listo en ventanilla para ser reclamado por un actor de picking.
// El servidor es la fuente de verdad; el cliente solo guarda la marca de agua
// (último EventID contabilizado) y un conjunto en memoria de ids ya mostrados.
type VentanillaEvent struct {
	EventID       int64     `json:"event_id"` // monotónico, asignado por el servidor
	Reference     string    `json:"reference"` // consecutivo del traslado
	FromWarehouse string    `json:"from_warehouse"`
	ToWarehouse   string    `json:"to_warehouse"`
	Message       string    `json:"message"`
	OccurredAt    time.Time `json:"occurred_at"`
}
