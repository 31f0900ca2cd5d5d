package ports

import "context"

// TreeCache caché de respuestas de corta duración para listados de árbol y conteos.
// Get devuelve false si la clave no está.
type TreeCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Invalidate descarta todas las entradas; se llama tras cada mutación del árbol.
	Invalidate(ctx context.Context) error
}

// NoopCache no guarda nada (Redis deshabilitado).
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NoopCache) Set(context.Context, string, any) error { return nil }
func (NoopCache) Invalidate(context.Context) error { return nil }
