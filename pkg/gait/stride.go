// pkg/gait/stride.go
package gait

import (
	"fmt"
	"math"

	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// StrideSamples is the number of samples a normalized stride is resampled
// to: one per percent of the gait cycle, inclusive endpoints.
const StrideSamples = 101

// Stride is an angle trajectory normalized to the gait cycle.
type Stride struct {
	Mean []float64 // mean angle per % gait cycle
	Std  []float64 // standard deviation per % gait cycle
	N    int       // number of strides averaged
}

// NormData is normative reference data: mean and std per % gait cycle.
type NormData [][2]float64

// NormalizeStrides cuts the angle series at the given heel-strike frames,
// resamples every stride to StrideSamples points and averages them.
func NormalizeStrides(series []float64, cycles []int) (*Stride, error) {
	if len(cycles) < 2 {
		return nil, fmt.Errorf("need at least 2 heel strikes, have %d", len(cycles))
	}
	strides := make([][]float64, 0, len(cycles)-1)
	for i := 0; i+1 < len(cycles); i++ {
		lo, hi := cycles[i], cycles[i+1]
		if lo < 0 || hi > len(series) || hi-lo < 2 {
			return nil, fmt.Errorf("invalid cycle bounds [%d, %d) for %d samples", lo, hi, len(series))
		}
		strides = append(strides, pose.ResampleSeries(series[lo:hi], StrideSamples))
	}

	st := &Stride{
		Mean: make([]float64, StrideSamples),
		Std:  make([]float64, StrideSamples),
		N:    len(strides),
	}
	for i := 0; i < StrideSamples; i++ {
		var sum float64
		for _, s := range strides {
			sum += s[i]
		}
		mean := sum / float64(len(strides))
		var sq float64
		for _, s := range strides {
			d := s[i] - mean
			sq += d * d
		}
		st.Mean[i] = mean
		st.Std[i] = math.Sqrt(sq / float64(len(strides)))
	}
	return st, nil
}

// Deviation scores the stride against normative data: the root mean square
// of the z-scores across the gait cycle. Zero std entries contribute the
// raw difference.
func (s *Stride) Deviation(norm NormData) (float64, error) {
	if len(norm) != len(s.Mean) {
		return 0, fmt.Errorf("norm data has %d samples, want %d", len(norm), len(s.Mean))
	}
	var sum float64
	for i, ref := range norm {
		d := s.Mean[i] - ref[0]
		if ref[1] > 0 {
			d /= ref[1]
		}
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(norm))), nil
}
