package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jhoicas/catalogo-api/internal/domain"
)

// ReadCSV consume todo el CSV aplicando el mapping de cabeceras. Quita el BOM UTF-8, recorta
// cabeceras y celdas, admite filas con menos columnas que la cabecera y descarta columnas sin
// campo destino. Una celda vacía o faltante deja el campo ausente.
func ReadCSV(src io.Reader, mapping Mapping) ([]Row, error) {
	dec := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(dec)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("CSV sin cabecera: %w", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("leer cabecera: %w: %w", domain.ErrInvalidInput, err)
	}
	targets := make([]string, len(header))
	mapped := 0
	for i, h := range header {
		if f, ok := mapping.Target(h); ok {
			targets[i] = f
			mapped++
		}
	}
	if mapped == 0 {
		return nil, fmt.Errorf("ninguna columna mapea a un campo conocido: %w", domain.ErrInvalidInput)
	}

	var rows []Row
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer fila %d: %w: %w", line, domain.ErrInvalidInput, err)
		}
		row := Row{Line: line, Values: make(map[string]string, mapped)}
		for i, cell := range rec {
			if i >= len(targets) || targets[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if _, dup := row.Values[targets[i]]; !dup {
				row.Values[targets[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
