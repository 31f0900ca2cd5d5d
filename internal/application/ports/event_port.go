package ports

import (
	"context"
	"time"
)

// Tipos de evento de catálogo.
const (
	EventCategoriesDeleted = "CATEGORIES_DELETED"
	EventCategoryMerged    = "CATEGORY_MERGED"
	EventImportCompleted   = "IMPORT_COMPLETED"
)

// CatalogEvent evento de dominio publicado tras una mutación del catálogo.
type CatalogEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"` // clave de partición
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// EventPublisher puerto de salida para eventos de catálogo. La publicación es best effort:
// el llamador registra el error y continúa.
type EventPublisher interface {
	Publish(ctx context.Context, event CatalogEvent) error
}

// NoopPublisher descarta los eventos (Kafka deshabilitado o tests).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, CatalogEvent) error { return nil }
