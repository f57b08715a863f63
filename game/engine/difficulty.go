package engine

import "golang.org/x/exp/rand"

// densitySamples is the number of evenly spaced densities per level.
const densitySamples = 11

// densityScale is the fixed-point denominator used for densities so mine
// counts are floored exactly.
const densityScale = 10000

// DensityRange is the inclusive range a level samples its density from,
// expressed in 1/10000ths.
type DensityRange struct {
	Base int `json:"base"`
	Step int `json:"step"`
}

// Min returns the lowest density of the range
func (r DensityRange) Min() float64 {
	return float64(r.Base) / densityScale
}

// Max returns the highest density of the range
func (r DensityRange) Max() float64 {
	return float64(r.Base+r.Step*(densitySamples-1)) / densityScale
}

// Preset is a built-in difficulty level
type Preset struct {
	Level   int          `json:"level"`
	Name    string       `json:"name"`
	Size    int          `json:"size"`
	Density DensityRange `json:"density"`
}

var presets = []Preset{
	{Level: 1, Name: "very_easy", Size: 15, Density: DensityRange{Base: 1250, Step: 25}},
	{Level: 2, Name: "easy", Size: 20, Density: DensityRange{Base: 1250, Step: 25}},
	{Level: 3, Name: "normal", Size: 25, Density: DensityRange{Base: 1500, Step: 50}},
	{Level: 4, Name: "hard", Size: 30, Density: DensityRange{Base: 2000, Step: 50}},
	{Level: 5, Name: "very_hard", Size: 35, Density: DensityRange{Base: 2500, Step: 100}},
}

// customDensity mirrors the hardest level
var customDensity = presets[len(presets)-1].Density

// Presets returns the built-in difficulty levels in ascending order
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset returns the preset for a level between 1 and 5
func LookupPreset(level int) (Preset, bool) {
	for _, p := range presets {
		if p.Level == level {
			return p, true
		}
	}
	return Preset{}, false
}

// DensityFor returns the density range used by a level, including the
// custom level 0.
func DensityFor(level int) (DensityRange, bool) {
	if level == CustomLevel {
		return customDensity, true
	}
	p, ok := LookupPreset(level)
	return p.Density, ok
}

// sample draws one of the evenly spaced densities of the range, in 1/10000ths
func (r DensityRange) sample(rng *rand.Rand) int {
	return r.Base + r.Step*rng.Intn(densitySamples)
}

// mineCount returns floor(size² × density) for a fixed-point density
func mineCount(size, density int) int {
	return size * size * density / densityScale
}
