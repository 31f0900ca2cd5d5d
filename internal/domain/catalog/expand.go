package catalog

import "context"

// DefaultMaxDepth niveles que recorre la expansión de descendientes si no se configura otro valor.
const DefaultMaxDepth = 10

// ChildrenFunc devuelve los ids hijos directos de id.
type ChildrenFunc func(ctx context.Context, id int64) ([]int64, error)

// Expand recorre en anchura los enlaces padre→hijos desde seeds y devuelve la clausura:
// las semillas (siempre, aunque no tengan hijos) más todo descendiente a maxDepth niveles
// o menos. Un id ya visitado no se vuelve a expandir, lo que corta ciclos accidentales.
// El orden de salida es el de visita.
func Expand(ctx context.Context, seeds []int64, maxDepth int, children ChildrenFunc) ([]int64, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	visited := make(map[int64]struct{}, len(seeds))
	result := make([]int64, 0, len(seeds))
	frontier := make([]int64, 0, len(seeds))
	for _, id := range seeds {
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		result = append(result, id)
		frontier = append(frontier, id)
	}

	for level := 0; level < maxDepth && len(frontier) > 0; level++ {
		var next []int64
		for _, id := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			kids, err := children(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, k := range kids {
				if _, ok := visited[k]; ok {
					continue
				}
				visited[k] = struct{}{}
				result = append(result, k)
				next = append(next, k)
			}
		}
		frontier = next
	}
	return result, nil
}

// ChildrenFromIndex adapta un índice de adyacencia en memoria a ChildrenFunc.
func ChildrenFromIndex(index map[int64][]int64) ChildrenFunc {
	return func(_ context.Context, id int64) ([]int64, error) {
		return index[id], nil
	}
}
