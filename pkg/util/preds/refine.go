package preds

import (
	"math"

	"github.com/stattip/stattip/internal/logger"
)

// RefinementPort supplies an externally learned confidence score in
// [0,1] for a six-element feature vector. The goal model and the VIP
// ranker each feed it their own vector shape; the port does not care
// which, only that callers keep the feature order stable.
type RefinementPort interface {
	Score(features [6]float64) float64
}

// StaticScorer is a fixed-weight two-layer network standing in for a
// trained model. The weights are hand-set so that strong goal signals
// map high and flat signals map low; they are not fitted to data.
// Construct with NewStaticScorer and call Warm once before first use.
type StaticScorer struct {
	hiddenW [4][6]float64
	hiddenB [4]float64
	outW    [4]float64
	outB    float64
	warm    bool
}

// NewStaticScorer returns the scorer with its baked-in weights
func NewStaticScorer() *StaticScorer {
	return &StaticScorer{
		hiddenW: [4][6]float64{
			{0.8, 0.8, 0.4, 0.4, 0.3, 0.3},
			{0.2, 0.2, 1.0, 0.8, 0.2, 0.2},
			{0.5, 0.5, 0.2, 0.2, 0.8, 0.8},
			{-0.4, -0.4, 0.3, 0.3, 0.3, 0.3},
		},
		hiddenB: [4]float64{-1.2, -0.9, -1.0, 0.2},
		outW:    [4]float64{1.2, 0.9, 0.9, 0.4},
		outB:    0.1,
	}
}

// Warm prepares the scorer for use. The static implementation has
// nothing to load, but the composition root owns the call so a weight
// file or remote model can slot in behind the same interface.
func (s *StaticScorer) Warm() error {
	if !s.warm {
		logger.Debug("refinement scorer initialised")
		s.warm = true
	}
	return nil
}

// Score runs the feature vector through the network. Hidden units use
// tanh, the output a sigmoid, so the result is always in (0,1).
func (s *StaticScorer) Score(features [6]float64) float64 {
	out := s.outB
	for h := 0; h < 4; h++ {
		sum := s.hiddenB[h]
		for i := 0; i < 6; i++ {
			sum += s.hiddenW[h][i] * features[i]
		}
		out += s.outW[h] * math.Tanh(sum)
	}
	return 1 / (1 + math.Exp(-out))
}
