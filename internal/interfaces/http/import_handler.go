package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/catalogo-api/internal/application/dto"
	"github.com/jhoicas/catalogo-api/internal/application/importer"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// ImportHandler recibe el CSV de productos y transmite el progreso como NDJSON.
type ImportHandler struct {
	pipeline *importer.Pipeline
	log      zerolog.Logger
}

// NewImportHandler construye el handler.
func NewImportHandler(pipeline *importer.Pipeline, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{pipeline: pipeline, log: log.With().Str("component", "import_http").Logger()}
}

// Import godoc
// @Summary      Importar productos desde CSV
// @Description  Acepta multipart (campo "file") o el CSV como cuerpo. Responde un stream
// @Description  application/x-ndjson: eventos progress y un único evento complete o error.
// @Tags         imports
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        file       formData  file    false  "Archivo CSV"
// @Param        mode       query     string  false  "create | update"  default(create)
// @Param        vendor_id  query     int     false  "Vendedor asignado a los productos"
// @Param        mapping    query     string  false  "JSON {cabecera: campo}"
// @Success      200  {object}  dto.ImportEvent
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/import [post]
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	params := dto.ImportParams{
		Mode:    c.Query("mode"),
		Mapping: c.Query("mapping"),
	}
	if v := int64(c.QueryInt("vendor_id", 0)); v > 0 {
		params.VendorID = &v
	}
	if err := validate.Struct(params); err != nil {
		return validationError(c, err)
	}
	mode, err := entity.ParseImportMode(params.Mode)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	mapping, err := importer.ParseMapping(params.Mapping)
	if err != nil {
		return writeError(c, err)
	}
	data, err := csvBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_CSV", Message: err.Error()})
	}
	vendorID := scopedVendor(c, params.VendorID)

	// El trabajo sobrevive al handler: el stream se escribe después de que Import retorna.
	ctx, cancel := context.WithCancel(context.Background())
	events := h.pipeline.Start(ctx, bytes.NewReader(data), mapping, mode, vendorID)

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		enc := json.NewEncoder(w)
		for ev := range events {
			if err := enc.Encode(ev); err != nil {
				h.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("cliente desconectado, se cancela la importación")
				return
			}
			if err := w.Flush(); err != nil {
				h.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("cliente desconectado, se cancela la importación")
				return
			}
		}
	})
	return nil
}

// csvBody copia el CSV de la petición: el campo multipart "file" o el cuerpo crudo.
func csvBody(c *fiber.Ctx) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return bytes.Clone(c.Body()), nil
}
