package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más los campos que el backend emite
// en el login del terminal. El cliente no posee el secreto de firma: solo
// inspecciona claims sin verificar, la validación real la hace el servidor.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"user_id"`
	DatabaseID string `json:"database_id"` // base de datos/tenant del login
	Role       string `json:"role"`        // "bodeguero" | "vendedor" | "supervisor"
}

// Inspect decodifica el token sin verificar la firma y devuelve sus claims.
func Inspect(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	return claims, nil
}

// ExpiresAt devuelve el instante de expiración del token, o cero si el token
// no trae claim exp.
func ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := Inspect(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// Expired indica si el token ya venció en el instante dado. Un token ilegible
// o sin exp se considera expirado: mejor fallar rápido que enviar peticiones
// que el servidor va a rechazar.
func Expired(tokenString string, now time.Time) bool {
	exp, err := ExpiresAt(tokenString)
	if err != nil || exp.IsZero() {
		return true
	}
	return now.After(exp)
}
