package vad

import "math"

// Scorer rates a frame of samples with a speech probability in [0, 1].
type Scorer interface {
	Score(frame []float32) float64
}

// EnergyScorer maps frame RMS level linearly from FloorDB (score 0) to CeilDB
// (score 1). The zero value uses -60 dBFS and 0 dBFS.
type EnergyScorer struct {
	FloorDB float64
	CeilDB  float64
}

func (e EnergyScorer) Score(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	floor, ceil := e.FloorDB, e.CeilDB
	if floor == 0 && ceil == 0 {
		floor, ceil = -60, 0
	}
	if ceil <= floor {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(frame)))
	if rms <= 0 {
		return 0
	}
	db := 20 * math.Log10(rms)
	score := (db - floor) / (ceil - floor)
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
