package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ArticleResponse respuesta de GET /api/articles/{code}.
type ArticleResponse struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Unit  string          `json:"unit"`
	Price decimal.Decimal `json:"price"`
}

// EventDTO evento de ventanilla en la respuesta events-since.
type EventDTO struct {
	EventID       int64     `json:"event_id"`
	Reference     string    `json:"reference"`
	FromWarehouse string    `json:"from_warehouse"`
	ToWarehouse   string    `json:"to_warehouse"`
	Message       string    `json:"message"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventsResponse respuesta de GET /api/ventanilla/events.
// MaxEventID es el máximo id observado en el servidor, no solo en la página:
// permite avanzar la marca de agua aunque no se muestre ningún evento.
type EventsResponse struct {
	Events     []EventDTO `json:"events"`
	MaxEventID int64      `json:"max_event_id"`
}

// MovementLineDTO línea del movimiento a enviar.
type MovementLineDTO struct {
	Code      string          `json:"code"`
	Quantity  int             `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price,omitempty"`
	Total     decimal.Decimal `json:"total,omitempty"`
}

// SubmitMovementRequest body para POST /api/movements.
type SubmitMovementRequest struct {
	Type        string            `json:"type"`
	BranchID    string            `json:"branch_id,omitempty"`
	WarehouseID string            `json:"warehouse_id,omitempty"`
	SubLocation string            `json:"sub_location,omitempty"`
	Lines       []MovementLineDTO `json:"lines"`
	TotalUnits  int               `json:"total_units"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	DeviceID    string            `json:"device_id,omitempty"`
}

// SubmitMovementResponse respuesta del backend al registrar el movimiento.
type SubmitMovementResponse struct {
	MovementID string `json:"movement_id"`
	Folio      string `json:"folio"` // consecutivo legible asignado por el servidor
}

// ErrorResponse cuerpo de error HTTP del backend.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
