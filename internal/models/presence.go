package models

import "github.com/san-kum/pollinet/internal/dynamo"

// Default starting abundances for species present at a patch.
const (
	DefaultPlantAbundance  = 100.0
	DefaultInsectAbundance = 500.0
)

// PlantInPatch reports whether a plant has any positive interaction at patch.
func PlantInPatch(gamma *dynamo.Tensor, plant, patch int) bool {
	for j := 0; j < gamma.Insects(); j++ {
		if gamma.At(patch, plant, j) > 0 {
			return true
		}
	}
	return false
}

// InsectInPatch reports whether an insect has any positive interaction at patch.
func InsectInPatch(gamma *dynamo.Tensor, insect, patch int) bool {
	for i := 0; i < gamma.Plants(); i++ {
		if gamma.At(patch, i, insect) > 0 {
			return true
		}
	}
	return false
}

// InitialState seeds p0 for each plant and v0 for each insect at the
// patches where it interacts with something, and zero elsewhere.
func InitialState(gamma *dynamo.Tensor, p0, v0 float64) dynamo.State {
	// dimensions come from a valid tensor, so this cannot fail
	x, _ := dynamo.NewState(gamma.Plants(), gamma.Insects(), gamma.Patches())
	for s := 0; s < gamma.Patches(); s++ {
		for i := 0; i < gamma.Plants(); i++ {
			if PlantInPatch(gamma, i, s) {
				x.P.Set(i, s, p0)
			}
		}
		for j := 0; j < gamma.Insects(); j++ {
			if InsectInPatch(gamma, j, s) {
				x.V.Set(j, s, v0)
			}
		}
	}
	return x
}
