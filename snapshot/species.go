package snapshot

import (
	"fmt"

	"github.com/notargets/picverify/types"
)

// Species holds the macroparticles of one particle species. Momentum is in
// kg*m/s per physical particle, Weight is the number of physical particles
// each macroparticle represents.
type Species struct {
	Name     string
	Mass     float64
	Momentum [3][]float64
	Weight   []float64
}

// NewSpecies checks that all arrays have the same length. A nil weight means
// every macroparticle represents one particle. The mass comes from the
// species name when known.
func NewSpecies(name string, px, py, pz, w []float64) (s *Species, err error) {
	np := len(px)
	if len(py) != np || len(pz) != np {
		return nil, fmt.Errorf("species %s: momentum components differ in length: %d, %d, %d",
			name, len(px), len(py), len(pz))
	}
	if w == nil {
		w = make([]float64, np)
		for i := range w {
			w[i] = 1
		}
	}
	if len(w) != np {
		return nil, fmt.Errorf("species %s: %d weights for %d particles", name, len(w), np)
	}
	s = &Species{
		Name:     name,
		Mass:     types.SpeciesMassMap[name],
		Momentum: [3][]float64{px, py, pz},
		Weight:   w,
	}
	return
}

func (s *Species) Len() int { return len(s.Weight) }
