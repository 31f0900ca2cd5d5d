package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// ParseDecimal interpreta un número decimal; lo no interpretable vale 0 (sin error).
func ParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseBool "true", "1" y "yes" (sin distinguir mayúsculas) son verdadero; todo lo demás, falso.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// ParseID interpreta una referencia por id; lo no interpretable es nil.
func ParseID(s string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseStock cantidad entera; un decimal se trunca.
func parseStock(s string) int64 {
	return ParseDecimal(s).IntPart()
}

// categoryRef cómo informa una fila la categoría de una taxonomía.
type categoryRef struct {
	present  bool
	explicit bool          // <tax>_category_id presente: sin resolución
	id       *int64        // id explícito (nil si no era interpretable)
	chain    catalog.Chain // cadena a resolver si !explicit
	hasChain bool          // false con raíz vacía: producto sin categoría
}

// rowPlan fila preparada antes de abrir transacciones.
type rowPlan struct {
	row        Row
	sku        string
	name       string
	missing    string // campo obligatorio ausente
	categories map[entity.Taxonomy]categoryRef
}

func planRow(row Row) rowPlan {
	p := rowPlan{row: row, categories: make(map[entity.Taxonomy]categoryRef, 2)}
	p.sku, _ = row.Get(FieldSKU)
	p.name, _ = row.Get(FieldName)
	switch {
	case p.sku == "":
		p.missing = FieldSKU
	case p.name == "":
		p.missing = FieldName
	}

	for _, t := range entity.Taxonomies() {
		var ref categoryRef
		if v, ok := row.Get(CategoryIDField(t)); ok {
			ref = categoryRef{present: true, explicit: true, id: ParseID(v)}
		} else if v, ok := row.Get(CategoryPathField(t)); ok {
			ref.present = true
			ref.chain, ref.hasChain = catalog.ChainFromPath(t, v)
		} else {
			root, rootOK := row.Get(CategoryField(t))
			subs := row.subcategories(t)
			if rootOK || len(subs) > 0 {
				ref.present = true
				ref.chain, ref.hasChain = catalog.NewChain(t, root, subs)
			}
		}
		if ref.present {
			p.categories[t] = ref
		}
	}
	return p
}

// chains cadenas a resolver de la fila.
func (p rowPlan) chains() []catalog.Chain {
	var out []catalog.Chain
	for _, t := range entity.Taxonomies() {
		if ref, ok := p.categories[t]; ok && !ref.explicit && ref.hasChain {
			out = append(out, ref.chain)
		}
	}
	return out
}

// applyRow vuelca los campos presentes sobre product. En alta, un campo numérico ausente
// queda en 0; en actualización, un campo ausente no se toca.
func applyRow(product *entity.Product, row Row, vendorID *int64, create bool) {
	set := func(field string, fn func(v string)) {
		if v, ok := row.Get(field); ok {
			fn(v)
		}
	}
	set(FieldName, func(v string) { product.Name = v })
	set(FieldDescription, func(v string) { product.Description = v })
	set(FieldPrice, func(v string) { product.Price = ParseDecimal(v) })
	set(FieldCost, func(v string) { product.Cost = ParseDecimal(v) })
	set(FieldComparePrice, func(v string) { product.ComparePrice = ParseDecimal(v) })
	set(FieldWeight, func(v string) { product.Weight = ParseDecimal(v) })
	set(FieldLength, func(v string) { product.Length = ParseDecimal(v) })
	set(FieldWidth, func(v string) { product.Width = ParseDecimal(v) })
	set(FieldHeight, func(v string) { product.Height = ParseDecimal(v) })
	set(FieldStockQuantity, func(v string) { product.StockQuantity = parseStock(v) })
	set(FieldPublished, func(v string) { product.Published = ParseBool(v) })
	set(FieldFeatured, func(v string) { product.Featured = ParseBool(v) })

	// Con proveedor en el trabajo, la columna vendor_id no se aplica.
	switch v, ok := row.Get(FieldVendorID); {
	case vendorID != nil:
		if create {
			id := *vendorID
			product.VendorID = &id
		}
	case ok:
		product.VendorID = ParseID(v)
	}
	product.UpdatedAt = time.Now()
	if create {
		product.CreatedAt = product.UpdatedAt
	}
}
