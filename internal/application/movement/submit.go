package movement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/wms-terminal/internal/application/dto"
	"github.com/jhoicas/wms-terminal/internal/application/draft"
	"github.com/jhoicas/wms-terminal/internal/domain"
	"github.com/jhoicas/wms-terminal/internal/domain/entity"
	"github.com/jhoicas/wms-terminal/pkg/logger"
)

// Tipos de movimiento que el terminal puede registrar.
const (
	TypeEntry    = "ENTRY"    // entrada de mercancía
	TypeExit     = "EXIT"     // salida
	TypeCount    = "COUNT"    // conteo cíclico
	TypePicking  = "PICKING"  // surtido
	TypePacking  = "PACKING"  // empaque
	TypeShipping = "SHIPPING" // despacho
)

// ValidType indica si el tipo de movimiento es conocido.
func ValidType(t string) bool {
	switch t {
	case TypeEntry, TypeExit, TypeCount, TypePicking, TypePacking, TypeShipping:
		return true
	}
	return false
}

// SubmitPort define el puerto de envío del movimiento al backend.
type SubmitPort interface {
	SubmitMovement(ctx context.Context, req dto.SubmitMovementRequest) (*dto.SubmitMovementResponse, error)
}

// Submitter convierte el conjunto de trabajo y su ubicación en un movimiento y
// lo registra en el backend. En caso de éxito limpia el borrador persistido
// (la escritura debounced pendiente se cancela con él).
type Submitter struct {
	api      SubmitPort
	drafts   *draft.Store
	deviceID string
	log      *logger.Logger
}

// NewSubmitter construye el caso de uso.
func NewSubmitter(api SubmitPort, drafts *draft.Store, deviceID string, log *logger.Logger) *Submitter {
	return &Submitter{api: api, drafts: drafts, deviceID: deviceID, log: log}
}

// Submit valida y envía el movimiento. Requiere tipo conocido y al menos una
// línea con cantidad positiva (el reconciliador ya garantiza esto último).
func (s *Submitter) Submit(ctx context.Context, movType string, lines entity.WorkingSet, loc entity.LocationContext) (*dto.SubmitMovementResponse, error) {
	if !ValidType(movType) || len(lines) == 0 {
		return nil, domain.ErrEntradaInvalida
	}
	req := dto.SubmitMovementRequest{
		Type:        movType,
		BranchID:    loc.BranchID,
		WarehouseID: loc.WarehouseID,
		SubLocation: loc.SubLocation,
		Lines:       make([]dto.MovementLineDTO, 0, len(lines)),
		TotalUnits:  lines.TotalUnits(),
		TotalAmount: lines.TotalAmount(),
		DeviceID:    s.deviceID,
	}
	for i := range lines {
		l := lines[i]
		if l.Quantity <= 0 {
			return nil, domain.ErrEntradaInvalida
		}
		req.Lines = append(req.Lines, dto.MovementLineDTO{
			Code:      l.Code,
			Quantity:  l.Quantity,
			Unit:      l.Unit,
			UnitPrice: l.Price,
			Total:     l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		})
	}

	resp, err := s.api.SubmitMovement(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enviar movimiento %s: %w", movType, err)
	}
	s.log.Info().
		Str("type", movType).
		Str("movement_id", resp.MovementID).
		Int("lines", len(lines)).
		Msg("movimiento registrado")

	if s.drafts != nil {
		if err := s.drafts.Clear(ctx); err != nil {
			// El movimiento ya quedó registrado en el servidor; el borrador
			// rancio se limpiará en el próximo Load.
			s.log.Warn().Err(err).Msg("no se pudo limpiar el borrador tras el envío")
		}
	}
	return resp, nil
}
