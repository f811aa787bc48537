package worker

import (
	"math/rand"

	"mkpbt/config"
)

// Hyperparameters are the three tunable SA knobs of spec.md §3.
type Hyperparameters struct {
	Temperature float64
	CoolingRate float64
	PMutations  float64
}

// InitHyperparameters draws a fresh Hyperparameters from the config's
// inits distributions, using rng (the worker's own, per spec.md §9).
func InitHyperparameters(inits map[string]config.Distribution, rng *rand.Rand) Hyperparameters {
	return Hyperparameters{
		Temperature: inits["temperature"].Sample(rng),
		CoolingRate: inits["cooling rate"].Sample(rng),
		PMutations:  inits["p mutations"].Sample(rng),
	}
}

// Perturb multiplicatively jitters each hyperparameter by 1 + scale*N(0,1),
// clipping PMutations to [0,1], per spec.md §4.2 "explore".
func (h Hyperparameters) Perturb(scales map[string]float64, rng *rand.Rand) Hyperparameters {
	h.Temperature *= 1 + scales["temperature"]*rng.NormFloat64()
	h.CoolingRate *= 1 + scales["cooling rate"]*rng.NormFloat64()
	h.PMutations *= 1 + scales["p mutations"]*rng.NormFloat64()
	if h.PMutations < 0 {
		h.PMutations = 0
	}
	if h.PMutations > 1 {
		h.PMutations = 1
	}
	return h
}
