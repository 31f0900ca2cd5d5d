package dto

import "github.com/jhoicas/catalogo-api/internal/domain/entity"

// ImportEventType tipo de evento del stream de importación.
type ImportEventType string

const (
	ImportEventProgress ImportEventType = "progress"
	ImportEventComplete ImportEventType = "complete"
	ImportEventError    ImportEventType = "error"
)

// ImportEvent línea NDJSON del stream de importación. Exactamente un evento terminal
// (complete o error) cierra el stream.
type ImportEvent struct {
	Type     ImportEventType        `json:"type"`
	JobID    string                 `json:"job_id"`
	Progress *entity.ImportProgress `json:"progress,omitempty"`
	Summary  *entity.ImportSummary  `json:"summary,omitempty"`
	Error    *ErrorResponse         `json:"error,omitempty"`
}

// Terminal indica si el evento cierra el stream.
func (e ImportEvent) Terminal() bool {
	return e.Type == ImportEventComplete || e.Type == ImportEventError
}

// ImportParams parámetros de query del endpoint de importación.
type ImportParams struct {
	Mode     string `query:"mode" validate:"omitempty,oneof=create update"`
	VendorID *int64 `query:"vendor_id" validate:"omitempty,min=1"`
	// Mapping JSON {"cabecera CSV": "campo destino"}; vacío usa la cabecera tal cual.
	Mapping string `query:"mapping"`
}
