package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ Store = (*FileStore)(nil)

// FileStore implementa Store con un archivo JSON por clave bajo un directorio
// de datos. La escritura es atómica (archivo temporal + rename), con lo que la
// consistencia ante fallos queda a granularidad de una clave.
type FileStore struct {
	dir string
}

// NewFileStore crea el directorio de datos si no existe.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("kv: directorio vacío")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kv: crear directorio %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Get lee el valor de la clave. Devuelve (nil, nil) si no existe.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("kv: leer %s: %w", key, err)
	}
	return data, nil
}

// Set escribe el valor de forma atómica: primero a un temporal en el mismo
// directorio y luego rename sobre el definitivo.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := s.path(key)
	tmp, err := os.CreateTemp(s.dir, sanitize(key)+".tmp-*")
	if err != nil {
		return fmt.Errorf("kv: temporal para %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("kv: escribir %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kv: cerrar temporal de %s: %w", key, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kv: publicar %s: %w", key, err)
	}
	return nil
}

// Delete elimina la clave; borrar una clave inexistente no es error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("kv: eliminar %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitize(key)+".json")
}

// sanitize mapea la clave a un nombre de archivo seguro.
func sanitize(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_", " ", "_")
	return r.Replace(key)
}
