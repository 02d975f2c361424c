// pkg/gait/phasespace.go
package gait

import "fmt"

// Reconstruct performs a delay embedding of the angle series into dims
// dimensions with delay tau frames: row d holds x(t + d*tau). The classic
// Takens reconstruction used for the phase-space diagram.
func Reconstruct(series []float64, tau, dims int) ([][]float64, error) {
	if tau < 1 {
		return nil, fmt.Errorf("delay must be positive, got %d", tau)
	}
	if dims < 2 {
		return nil, fmt.Errorf("need at least 2 embedding dimensions, got %d", dims)
	}
	n := len(series) - (dims-1)*tau
	if n < 1 {
		return nil, fmt.Errorf("series too short for delay %d and %d dimensions", tau, dims)
	}
	out := make([][]float64, dims)
	for d := 0; d < dims; d++ {
		out[d] = series[d*tau : d*tau+n]
	}
	return out, nil
}
