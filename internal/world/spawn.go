package world

import (
	"math/rand"

	"github.com/annel0/chase-arena/internal/vec"
)

const (
	// SpawnRange is the half-extent of the square spawn points are drawn from.
	SpawnRange = 40.0
	// SpawnAttempts bounds rejection sampling.
	SpawnAttempts = 100
	// DefaultMinDistance from the excluded point.
	DefaultMinDistance = 10.0
)

// SpawnPlanner picks spawn points by rejection sampling on y = 0.
type SpawnPlanner struct {
	obstacles   []Obstacle
	rng         *rand.Rand
	spawnRange  float64
	maxAttempts int
}

// NewSpawnPlanner создаёт планировщик точек появления
func NewSpawnPlanner(obstacles []Obstacle, rng *rand.Rand) *SpawnPlanner {
	return &SpawnPlanner{
		obstacles:   obstacles,
		rng:         rng,
		spawnRange:  SpawnRange,
		maxAttempts: SpawnAttempts,
	}
}

// Find draws points until one is off every obstacle footprint and, when
// exclude is set, at least minDistance from it. ok is false when the attempts
// ran out; the origin is returned then and may itself be invalid.
func (sp *SpawnPlanner) Find(exclude *vec.Vec3Float, minDistance float64) (pos vec.Vec3Float, ok bool) {
	for attempt := 0; attempt < sp.maxAttempts; attempt++ {
		x := (sp.rng.Float64() - 0.5) * 2 * sp.spawnRange
		z := (sp.rng.Float64() - 0.5) * 2 * sp.spawnRange
		candidate := vec.NewVec3(x, 0, z)

		if InsideAnyObstacle(candidate, sp.obstacles) {
			continue
		}
		if exclude != nil && candidate.DistanceTo(*exclude) < minDistance {
			continue
		}
		return candidate, true
	}
	return vec.Zero, false
}

// FindSpawn is the one-shot form of SpawnPlanner.Find.
func FindSpawn(obstacles []Obstacle, exclude *vec.Vec3Float, minDistance float64, rng *rand.Rand) vec.Vec3Float {
	pos, _ := NewSpawnPlanner(obstacles, rng).Find(exclude, minDistance)
	return pos
}
