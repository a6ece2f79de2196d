package world

import (
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annel0/chase-arena/internal/vec"
)

const (
	foliageHeight = 0.8 // высота центра травинки
	foliageWidth  = 0.5
	foliageTall   = 1.0
	// Порог плотности шума: ниже него трава не растёт
	foliageThreshold = 0.35
)

// FoliagePlanner scatters ground-cover instances, thinning them with Perlin
// noise so the field has clearings instead of uniform coverage.
type FoliagePlanner struct {
	noise  *perlin.Perlin
	rng    *rand.Rand
	spread float64
}

// NewFoliagePlanner создаёт планировщик с указанным сидом.
// spread - сторона квадрата, в котором растёт трава.
func NewFoliagePlanner(seed int64, spread float64) *FoliagePlanner {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав

	return &FoliagePlanner{
		noise:  perlin.NewPerlin(alpha, beta, n, seed),
		rng:    rand.New(rand.NewSource(seed)),
		spread: spread,
	}
}

// Density returns the noise value at (x, z) mapped into [0, 1].
func (fp *FoliagePlanner) Density(x, z float64) float64 {
	// Шум Перлина возвращает значения от -1 до 1
	return (fp.noise.Noise2D(x/10, z/10) + 1.0) / 2.0
}

// Place returns up to count instance centres. Sampling gives up after four
// draws per requested instance, so sparse noise yields fewer instances.
func (fp *FoliagePlanner) Place(count int) []vec.Vec3Float {
	if count <= 0 {
		return nil
	}

	positions := make([]vec.Vec3Float, 0, count)
	for attempts := 0; attempts < count*4 && len(positions) < count; attempts++ {
		x := (fp.rng.Float64() - 0.5) * fp.spread
		z := (fp.rng.Float64() - 0.5) * fp.spread
		if fp.Density(x, z) < foliageThreshold {
			continue
		}
		positions = append(positions, vec.NewVec3(x, foliageHeight, z))
	}
	return positions
}
