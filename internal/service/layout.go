package service

import (
	"math"
	"math/rand/v2"

	"github.com/curiolabs/curio-graph/internal/domain"
)

// Layout geometry defaults, in the coordinate units the frontend
// renders directly.
const (
	defaultRadiusMin = 220.0
	defaultRadiusMax = 420.0
	defaultJitter    = 40.0
)

// LayoutEngine assigns radial positions: the query node sits at the
// origin and the remaining nodes fan out at evenly spaced angles with
// a randomized radius and a small per-axis jitter.
type LayoutEngine struct {
	RadiusMin float64
	RadiusMax float64
	Jitter    float64
}

// NewLayoutEngine returns an engine with the default geometry.
func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		RadiusMin: defaultRadiusMin,
		RadiusMax: defaultRadiusMax,
		Jitter:    defaultJitter,
	}
}

// Assign writes positions into nodes in place. A zero seed picks a
// random one; any other seed reproduces the same geometry for the
// same node sequence.
func (l *LayoutEngine) Assign(nodes []domain.GraphNode, seed uint64) {
	var rng *rand.Rand
	if seed == 0 {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	} else {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	n := 0
	for i := range nodes {
		if !nodes[i].IsQuery {
			n++
		}
	}

	rank := 0
	for i := range nodes {
		if nodes[i].IsQuery {
			nodes[i].Position = domain.Position{}
			continue
		}
		angle := 2 * math.Pi * float64(rank) / float64(n)
		radius := l.RadiusMin + rng.Float64()*(l.RadiusMax-l.RadiusMin)
		nodes[i].Position = domain.Position{
			X: radius*math.Cos(angle) + (rng.Float64()*2-1)*l.Jitter,
			Y: radius*math.Sin(angle) + (rng.Float64()*2-1)*l.Jitter,
		}
		rank++
	}
}
