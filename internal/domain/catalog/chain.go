package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// NormalizeName recorta espacios y normaliza a NFC, de modo que "Café" escrito con tilde
// combinada y precompuesta sea la misma clave de deduplicación.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Chain cadena ordenada de nombres de categoría (raíz → hoja) de una taxonomía.
type Chain struct {
	Taxonomy entity.Taxonomy
	Names    []string
}

// NewChain arma la cadena normalizando nombres y descartando los vacíos: los niveles se
// encadenan en el orden en que aparecen, no por posición. Una raíz vacía no produce cadena.
func NewChain(taxonomy entity.Taxonomy, root string, subs []string) (Chain, bool) {
	root = NormalizeName(root)
	if root == "" {
		return Chain{}, false
	}
	names := make([]string, 0, len(subs)+1)
	names = append(names, root)
	for _, s := range subs {
		if s = NormalizeName(s); s != "" {
			names = append(names, s)
		}
	}
	return Chain{Taxonomy: taxonomy, Names: names}, true
}

// ChainFromPath interpreta "A > B > C" o "A/B/C".
func ChainFromPath(taxonomy entity.Taxonomy, path string) (Chain, bool) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return Chain{}, false
	}
	return NewChain(taxonomy, parts[0], parts[1:])
}

// SplitPath separa una ruta por ">" o, si no lo contiene, por "/".
func SplitPath(path string) []string {
	sep := ">"
	if !strings.Contains(path, sep) {
		sep = "/"
	}
	var out []string
	for _, p := range strings.Split(path, sep) {
		if p = NormalizeName(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Root primer nombre de la cadena.
func (c Chain) Root() string { return c.Names[0] }

// Subs nombres debajo de la raíz.
func (c Chain) Subs() []string { return c.Names[1:] }

// Key clave estable para deduplicar cadenas dentro de un trabajo.
func (c Chain) Key() string {
	return string(c.Taxonomy) + "\x1f" + strings.Join(c.Names, "\x1f")
}

// String "Electronics > Phones".
func (c Chain) String() string {
	return strings.Join(c.Names, " > ")
}
