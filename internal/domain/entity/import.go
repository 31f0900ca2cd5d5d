package entity

import (
	"fmt"
	"strings"
)

// ImportMode política ante un SKU existente o ausente.
type ImportMode string

const (
	// ImportModeCreate inserta filas nuevas; un SKU existente se omite.
	ImportModeCreate ImportMode = "create"
	// ImportModeUpdate actualiza filas existentes; un SKU inexistente se omite.
	ImportModeUpdate ImportMode = "update"
)

// ParseImportMode acepta "create" o "update" (sin distinguir mayúsculas).
func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ImportModeCreate, ImportModeUpdate:
		return m, nil
	case "":
		return ImportModeCreate, nil
	default:
		return "", fmt.Errorf("modo de importación desconocido %q", s)
	}
}

// ImportStatus estado del trabajo de importación.
type ImportStatus string

const (
	ImportStatusReceiving  ImportStatus = "receiving"
	ImportStatusResolving  ImportStatus = "resolving_categories"
	ImportStatusProcessing ImportStatus = "batch_processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// ImportRowError error de una fila, retenido en la lista acotada del resumen.
type ImportRowError struct {
	Row     int    `json:"row"` // 1-based, sin contar la cabecera
	SKU     string `json:"sku,omitempty"`
	Message string `json:"message"`
}

// ImportProgress evento emitido tras cada lote.
type ImportProgress struct {
	ProcessedCount int     `json:"processedCount"`
	TotalCount     int     `json:"totalCount"`
	Imported       int     `json:"imported"`
	Updated        int     `json:"updated"`
	Skipped        int     `json:"skipped"`
	ErrorCount     int     `json:"errorCount"`
	Rate           float64 `json:"rate"` // filas por segundo
}

// ImportSummary resumen final. Total = Imported + Updated + Skipped + ErrorCount + Unprocessed;
// Unprocessed solo es distinto de cero en un trabajo abortado.
type ImportSummary struct {
	JobID                 string           `json:"jobId"`
	Imported              int              `json:"imported"`
	Updated               int              `json:"updated"`
	Skipped               int              `json:"skipped"`
	ErrorCount            int              `json:"errorCount"`
	Unprocessed           int              `json:"unprocessed,omitempty"`
	Total                 int              `json:"total"`
	Errors                []ImportRowError `json:"errors"`
	ProcessingTimeSeconds float64          `json:"processingTimeSeconds"`
}
