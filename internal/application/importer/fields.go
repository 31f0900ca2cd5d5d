package importer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// Campos destino de la importación.
const (
	FieldSKU           = "sku"
	FieldName          = "name"
	FieldDescription   = "description"
	FieldPrice         = "price"
	FieldCost          = "cost"
	FieldComparePrice  = "compare_price"
	FieldWeight        = "weight"
	FieldLength        = "length"
	FieldWidth         = "width"
	FieldHeight        = "height"
	FieldStockQuantity = "stock_quantity"
	FieldVendorID      = "vendor_id"
	FieldPublished     = "published"
	FieldFeatured      = "featured"
)

// Sufijos de campos de categoría; se anteponen con la taxonomía ("vendor_category").
const (
	suffixCategory    = "_category"
	suffixCategoryID  = "_category_id"
	suffixCategoryPth = "_category_path"
	infixSubcategory  = "_subcategory_"
)

var plainFields = map[string]struct{}{
	FieldSKU: {}, FieldName: {}, FieldDescription: {}, FieldPrice: {}, FieldCost: {},
	FieldComparePrice: {}, FieldWeight: {}, FieldLength: {}, FieldWidth: {}, FieldHeight: {},
	FieldStockQuantity: {}, FieldVendorID: {}, FieldPublished: {}, FieldFeatured: {},
}

// CategoryField "<taxonomía>_category".
func CategoryField(t entity.Taxonomy) string { return string(t) + suffixCategory }

// CategoryIDField "<taxonomía>_category_id".
func CategoryIDField(t entity.Taxonomy) string { return string(t) + suffixCategoryID }

// CategoryPathField "<taxonomía>_category_path".
func CategoryPathField(t entity.Taxonomy) string { return string(t) + suffixCategoryPth }

// SubcategoryField "<taxonomía>_subcategory_<n>".
func SubcategoryField(t entity.Taxonomy, n int) string {
	return string(t) + infixSubcategory + strconv.Itoa(n)
}

// subcategoryLevel devuelve la taxonomía y el nivel de un campo "<tax>_subcategory_<n>".
func subcategoryLevel(field string) (entity.Taxonomy, int, bool) {
	for _, t := range entity.Taxonomies() {
		prefix := string(t) + infixSubcategory
		if !strings.HasPrefix(field, prefix) {
			continue
		}
		n, err := strconv.Atoi(field[len(prefix):])
		if err != nil || n < 1 {
			return "", 0, false
		}
		return t, n, true
	}
	return "", 0, false
}

// IsKnownField indica si field es un campo destino válido.
func IsKnownField(field string) bool {
	if _, ok := plainFields[field]; ok {
		return true
	}
	for _, t := range entity.Taxonomies() {
		switch field {
		case CategoryField(t), CategoryIDField(t), CategoryPathField(t):
			return true
		}
	}
	_, _, ok := subcategoryLevel(field)
	return ok
}

// Mapping cabecera CSV → campo destino. Vacío: la cabecera normalizada es el campo.
type Mapping map[string]string

// ParseMapping decodifica un mapping JSON {"cabecera": "campo"} y valida los destinos.
func ParseMapping(raw string) (Mapping, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("mapping: %w: %w", domain.ErrInvalidInput, err)
	}
	out := make(Mapping, len(m))
	for header, field := range m {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if !IsKnownField(field) {
			return nil, fmt.Errorf("mapping: campo destino %q desconocido: %w", field, domain.ErrInvalidInput)
		}
		out[normalizeHeader(header)] = field
	}
	return out, nil
}

// Target campo destino para una cabecera; false si la columna se ignora.
func (m Mapping) Target(header string) (string, bool) {
	key := normalizeHeader(header)
	if len(m) > 0 {
		f, ok := m[key]
		return f, ok
	}
	return key, IsKnownField(key)
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

// Row fila cruda ya mapeada a campos destino. Solo contiene valores no vacíos: un campo
// ausente significa "no informado", no cadena vacía.
type Row struct {
	Line   int // 1-based, sin contar la cabecera
	Values map[string]string
}

// Get valor del campo y si está presente.
func (r Row) Get(field string) (string, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// subcategories nombres de "<tax>_subcategory_<n>" ordenados por n.
func (r Row) subcategories(t entity.Taxonomy) []string {
	type level struct {
		n    int
		name string
	}
	var levels []level
	for field, v := range r.Values {
		if tax, n, ok := subcategoryLevel(field); ok && tax == t {
			levels = append(levels, level{n, v})
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].n < levels[j].n })
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = l.name
	}
	return out
}
