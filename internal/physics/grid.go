package physics

import (
	"math"
	"sync"

	"github.com/annel0/chase-arena/internal/vec"
)

// Grid is a uniform ground-plane index over static colliders. A collider is
// registered in every cell its footprint touches, so a query only has to look
// at the cells under the probe segment instead of every foliage instance.
type Grid struct {
	cellSize  float64
	mu        sync.RWMutex
	cells     map[cellKey][]*Collider
	colliders []*Collider
	nextID    int
}

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, z int
}

// NewGrid создаёт пустой индекс с указанным размером ячейки
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 8.0
	}

	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]*Collider),
		nextID:   1,
	}
}

// Insert registers a collider and assigns its ID.
func (g *Grid) Insert(box Box, solid bool, tag string) *Collider {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := &Collider{ID: g.nextID, Box: box, Solid: solid, Tag: tag}
	g.nextID++
	g.colliders = append(g.colliders, c)

	lo, hi := box.Min(), box.Max()
	for _, key := range g.cellsForBounds(lo.Horizontal(), hi.Horizontal()) {
		g.cells[key] = append(g.cells[key], c)
	}
	return c
}

// Query returns every collider whose cells intersect the rectangle, each at
// most once.
func (g *Grid) Query(min, max vec.Vec2Float) []*Collider {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[int]struct{})
	var result []*Collider
	for _, key := range g.cellsForBounds(min, max) {
		for _, c := range g.cells[key] {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			result = append(result, c)
		}
	}
	return result
}

// Colliders returns all registered colliders in insertion order.
func (g *Grid) Colliders() []*Collider {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]*Collider, len(g.colliders))
	copy(out, g.colliders)
	return out
}

// Len возвращает количество коллайдеров
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.colliders)
}

// cellsForBounds вычисляет ячейки, которые покрывает прямоугольник
func (g *Grid) cellsForBounds(min, max vec.Vec2Float) []cellKey {
	minX := int(math.Floor(min.X / g.cellSize))
	minZ := int(math.Floor(min.Y / g.cellSize))
	maxX := int(math.Floor(max.X / g.cellSize))
	maxZ := int(math.Floor(max.Y / g.cellSize))

	keys := make([]cellKey, 0, (maxX-minX+1)*(maxZ-minZ+1))
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			keys = append(keys, cellKey{x: x, z: z})
		}
	}
	return keys
}
