// pkg/gait/cycles.go
package gait

import (
	"fmt"
	"math"

	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// CycleOptions tunes heel-strike detection.
type CycleOptions struct {
	// MinCycle is the shortest plausible gait cycle in seconds. Peaks
	// closer together than this collapse into the stronger one.
	MinCycle float64
	// SmoothWindow is the moving-average window in seconds applied to the
	// ankle excursion before peak picking.
	SmoothWindow float64
}

// DefaultCycleOptions returns detection parameters that work for normal
// walking speed.
func DefaultCycleOptions() CycleOptions {
	return CycleOptions{MinCycle: 0.6, SmoothWindow: 0.1}
}

// DetectCycles returns heel-strike frame indices for one leg. A heel strike
// shows up as a maximum of the ankle's forward excursion relative to the
// pelvis.
func DetectCycles(s *pose.Sequence, side int, opts CycleOptions) ([]int, error) {
	if s.Joints() < pose.NumJoints {
		return nil, fmt.Errorf("sequence has %d joints, want %d", s.Joints(), pose.NumJoints)
	}
	if s.FPS <= 0 {
		return nil, fmt.Errorf("non-positive fps %v", s.FPS)
	}
	ankle := pose.RAnkle
	if side == pose.Left {
		ankle = pose.LAnkle
	}

	// Ankle position relative to the pelvis, horizontal plane only.
	rel := make([][2]float64, s.Len())
	for i, f := range s.Frames {
		rel[i][0] = f[ankle][0] - f[pose.MHip][0]
		rel[i][1] = f[ankle][1] - f[pose.MHip][1]
	}

	// Project onto the dominant horizontal direction of motion.
	dir := principalAxis(rel)
	d := make([]float64, len(rel))
	for i, r := range rel {
		d[i] = r[0]*dir[0] + r[1]*dir[1]
	}

	window := int(opts.SmoothWindow * s.FPS)
	d = movingAverage(d, window)

	minGap := int(opts.MinCycle * s.FPS)
	if minGap < 1 {
		minGap = 1
	}
	return pickPeaks(d, minGap), nil
}

// principalAxis returns the unit eigenvector of the 2x2 covariance matrix
// with the larger eigenvalue.
func principalAxis(points [][2]float64) [2]float64 {
	if len(points) == 0 {
		return [2]float64{1, 0}
	}
	var mx, my float64
	for _, p := range points {
		mx += p[0]
		my += p[1]
	}
	n := float64(len(points))
	mx /= n
	my /= n

	var sxx, syy, sxy float64
	for _, p := range points {
		dx, dy := p[0]-mx, p[1]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	// Largest eigenvalue of [[sxx, sxy], [sxy, syy]].
	tr := sxx + syy
	det := sxx*syy - sxy*sxy
	lambda := tr/2 + math.Sqrt(tr*tr/4-det)

	v := [2]float64{lambda - syy, sxy}
	if math.Abs(v[0]) < 1e-12 && math.Abs(v[1]) < 1e-12 {
		if sxx >= syy {
			return [2]float64{1, 0}
		}
		return [2]float64{0, 1}
	}
	norm := math.Hypot(v[0], v[1])
	return [2]float64{v[0] / norm, v[1] / norm}
}

func movingAverage(values []float64, window int) []float64 {
	if window < 2 {
		return values
	}
	half := window / 2
	out := make([]float64, len(values))
	for i := range values {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(values) {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// pickPeaks returns indices of local maxima above the series mean, at least
// minGap frames apart, keeping the higher peak on conflicts.
func pickPeaks(values []float64, minGap int) []int {
	if len(values) < 3 {
		return nil
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var peaks []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] <= mean {
			continue
		}
		if values[i] < values[i-1] || values[i] < values[i+1] {
			continue
		}
		if n := len(peaks); n > 0 && i-peaks[n-1] < minGap {
			if values[i] > values[peaks[n-1]] {
				peaks[n-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}
	return peaks
}

// Cadence returns steps per minute given heel strikes of both legs over the
// sequence duration.
func Cadence(right, left []int, fps float64, frames int) float64 {
	if fps <= 0 || frames == 0 {
		return 0
	}
	steps := float64(len(right) + len(left))
	minutes := float64(frames) / fps / 60
	if minutes == 0 {
		return 0
	}
	return steps / minutes
}
