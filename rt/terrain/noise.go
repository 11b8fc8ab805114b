package terrain

import (
	"github.com/ojrac/opensimplex-go"
)

// Noise is a coherent 3D noise source returning values roughly in [-2, 2].
type Noise interface {
	Value(x, y, z float64) float64
}

const (
	DefaultOctaves     = 6
	DefaultLacunarity  = 2.0
	DefaultPersistence = 0.5
)

// Fractal sums octaves of seeded OpenSimplex noise without normalising, so
// six octaves at persistence 0.5 span about [-2, 2].
type Fractal struct {
	src  opensimplex.Noise
	seed int64

	Octaves     int
	Lacunarity  float64
	Persistence float64
}

func NewFractal(seed int64) *Fractal {
	return &Fractal{
		src:         opensimplex.New(seed),
		seed:        seed,
		Octaves:     DefaultOctaves,
		Lacunarity:  DefaultLacunarity,
		Persistence: DefaultPersistence,
	}
}

func (f *Fractal) Seed() int64 { return f.seed }

func (f *Fractal) Value(x, y, z float64) float64 {
	var total float64
	amp, freq := 1.0, 1.0
	for o := 0; o < f.Octaves; o++ {
		total += f.src.Eval3(x*freq, y*freq, z*freq) * amp
		amp *= f.Persistence
		freq *= f.Lacunarity
	}
	return total
}
