package category

import (
	"context"
	"fmt"

	"github.com/jhoicas/catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/catalogo-api/internal/domain/repository"
)

// Expand devuelve la clausura de descendientes de ids (incluye ids). Si el repositorio sabe
// recorrer el árbol en una sola consulta se delega en él; si no, recorrido por niveles.
func Expand(ctx context.Context, repo repository.CategoryRepository, ids []int64, maxDepth int) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if t, ok := repo.(repository.DescendantTraverser); ok {
		out, err := t.Descendants(ctx, ids, maxDepth)
		if err != nil {
			return nil, fmt.Errorf("expand descendants: %w", err)
		}
		return out, nil
	}
	out, err := catalog.Expand(ctx, ids, maxDepth, repo.FindChildren)
	if err != nil {
		return nil, fmt.Errorf("expand descendants: %w", err)
	}
	return out, nil
}
