package kv

import "context"

// Store define el puerto de almacenamiento clave-valor asíncrono del dispositivo.
// Se asume consistencia ante fallos a granularidad de una clave; no se requieren
// transacciones multi-clave. Get devuelve (nil, nil) cuando la clave no existe.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
