package entity

import "time"

// LocationContext ubicación del movimiento en curso. Todos los campos son
// opcionales: cadena vacía significa "sin seleccionar".
type LocationContext struct {
	BranchID    string `json:"branch_id,omitempty"`    // sucursal
	WarehouseID string `json:"warehouse_id,omitempty"` // bodega
	SubLocation string `json:"sub_location,omitempty"` // ubicación libre (pasillo, estante...)
}

// Draft es el snapshot persistido de un conjunto de trabajo más su ubicación,
// usado para retomar trabajo interrumpido. Existe a lo sumo un borrador por
// clave de almacenamiento (una por tipo de movimiento/pantalla).
type Draft struct {
	Location LocationContext `json:"location"`
	Lines    WorkingSet      `json:"lines"`
	SavedAt  time.Time       `json:"saved_at"`
}

// Empty indica si el borrador no tiene líneas (no vale la pena persistirlo).
func (d *Draft) Empty() bool {
	return d == nil || len(d.Lines) == 0
}
