package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// La conectividad se distingue de "no encontrado": la primera se reintenta
// con una acción explícita del usuario; la segunda se corrige el código.
var (
	ErrArticuloNoEncontrado = errors.New("artículo no encontrado")
	ErrConectividad         = errors.New("error de conectividad con el servidor")
	ErrAlmacenamiento       = errors.New("error de almacenamiento local")
	ErrEntradaInvalida      = errors.New("entrada inválida")
	ErrBorradorPendiente    = errors.New("existe un borrador pendiente sin resolver")
	ErrSesionExpirada       = errors.New("la sesión ha expirado")
	ErrNoAutorizado         = errors.New("no autorizado")
)
