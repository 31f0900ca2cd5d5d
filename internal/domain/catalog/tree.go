package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/catalogo-api/internal/domain"
	"github.com/jhoicas/catalogo-api/internal/domain/entity"
)

// ChildIndex índice padre → hijos de un conjunto de categorías. Solo incluye aristas cuyo
// padre también está en el conjunto.
func ChildIndex(categories []*entity.Category) map[int64][]int64 {
	present := make(map[int64]struct{}, len(categories))
	for _, c := range categories {
		present[c.ID] = struct{}{}
	}
	index := make(map[int64][]int64)
	for _, c := range categories {
		if c.ParentID == nil {
			continue
		}
		if _, ok := present[*c.ParentID]; ok {
			index[*c.ParentID] = append(index[*c.ParentID], c.ID)
		}
	}
	return index
}

// BuildTree arma el bosque de nodos con conteos directos (direct) y jerárquicos.
// Una categoría cuyo padre no está en el conjunto se trata como raíz. Hijos y raíces
// quedan ordenados por nombre.
func BuildTree(categories []*entity.Category, direct map[int64]int, maxDepth int) []*entity.CategoryNode {
	nodes := make(map[int64]*entity.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &entity.CategoryNode{Category: *c, DirectCount: direct[c.ID]}
	}
	index := ChildIndex(categories)
	children := ChildrenFromIndex(index)

	for id, n := range nodes {
		closure, _ := Expand(context.Background(), []int64{id}, maxDepth, children)
		total := 0
		for _, d := range closure {
			total += direct[d]
		}
		n.HierarchicalCount = total
	}

	attached := make(map[int64]struct{}, len(nodes))
	var attach func(n *entity.CategoryNode, level int)
	attach = func(n *entity.CategoryNode, level int) {
		attached[n.ID] = struct{}{}
		if level >= maxDepth {
			return
		}
		for _, kid := range index[n.ID] {
			if _, ok := attached[kid]; ok {
				continue
			}
			child := nodes[kid]
			n.Children = append(n.Children, child)
			attach(child, level+1)
		}
		sortNodes(n.Children)
	}

	var roots []*entity.CategoryNode
	for _, c := range categories {
		if c.ParentID != nil {
			if _, ok := nodes[*c.ParentID]; ok {
				continue
			}
		}
		roots = append(roots, nodes[c.ID])
	}
	sortNodes(roots)
	for _, r := range roots {
		attach(r, 1)
	}
	return roots
}

func sortNodes(nodes []*entity.CategoryNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// CheckReparent valida que newParentID no sea el propio nodo ni uno de sus descendientes.
// closure es la expansión de id (incluye id).
func CheckReparent(id int64, newParentID *int64, closure []int64) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == id {
		return fmt.Errorf("categoría %d como su propio padre: %w", id, domain.ErrCycle)
	}
	for _, d := range closure {
		if d == *newParentID {
			return fmt.Errorf("categoría %d es descendiente de %d: %w", *newParentID, id, domain.ErrCycle)
		}
	}
	return nil
}

// SubtreeDepths recalcula la profundidad de rootID y todo su subárbol a partir de rootDepth.
// Devuelve domain.ErrInvalidInput si algún nodo supera maxDepth.
func SubtreeDepths(rootID int64, rootDepth int, index map[int64][]int64, maxDepth int) (map[int64]int, error) {
	depths := map[int64]int{rootID: rootDepth}
	frontier := []int64{rootID}
	for len(frontier) > 0 {
		var next []int64
		for _, id := range frontier {
			d := depths[id]
			if maxDepth > 0 && d > maxDepth {
				return nil, fmt.Errorf("profundidad %d supera el máximo %d: %w", d, maxDepth, domain.ErrInvalidInput)
			}
			for _, kid := range index[id] {
				if _, ok := depths[kid]; ok {
					continue
				}
				depths[kid] = d + 1
				next = append(next, kid)
			}
		}
		frontier = next
	}
	return depths, nil
}
