// pkg/pose/interp.go
package pose

import "fmt"

// TargetFPS is the frame rate the 3D estimator was trained on. Slower
// footage is upsampled to it before analysis.
const TargetFPS = 50.0

// spline is a natural cubic spline over uniformly indexed samples.
type spline struct {
	ys []float64
	m  []float64 // second derivatives at the knots
}

func newSpline(ys []float64) *spline {
	n := len(ys)
	s := &spline{ys: ys, m: make([]float64, n)}
	if n < 3 {
		return s
	}

	// Tridiagonal solve for natural boundary conditions (m[0]=m[n-1]=0),
	// unit knot spacing.
	c := make([]float64, n)
	d := make([]float64, n)
	for i := 1; i < n-1; i++ {
		rhs := 6 * (ys[i+1] - 2*ys[i] + ys[i-1])
		denom := 4.0
		if i > 1 {
			denom -= c[i-1]
		}
		c[i] = 1 / denom
		num := rhs
		if i > 1 {
			num -= d[i-1]
		}
		d[i] = num / denom
	}
	for i := n - 2; i >= 1; i-- {
		s.m[i] = d[i] - c[i]*s.m[i+1]
	}
	return s
}

// at evaluates the spline at position x in knot units, clamped to the
// sample range.
func (s *spline) at(x float64) float64 {
	n := len(s.ys)
	if n == 0 {
		return 0
	}
	if x <= 0 || n == 1 {
		return s.ys[0]
	}
	if x >= float64(n-1) {
		return s.ys[n-1]
	}
	i := int(x)
	t := x - float64(i)
	if len(s.m) < n || n < 3 {
		// Linear fallback for short series.
		return s.ys[i] + t*(s.ys[i+1]-s.ys[i])
	}
	a := s.ys[i]
	b := s.ys[i+1] - s.ys[i] - (2*s.m[i]+s.m[i+1])/6
	return a + b*t + s.m[i]/2*t*t + (s.m[i+1]-s.m[i])/6*t*t*t
}

// ResampleSeries resamples values to n samples with cubic interpolation.
func ResampleSeries(values []float64, n int) []float64 {
	if n <= 0 || len(values) == 0 {
		return nil
	}
	out := make([]float64, n)
	if len(values) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	sp := newSpline(values)
	scale := float64(len(values)-1) / float64(n-1)
	for i := range out {
		out[i] = sp.at(float64(i) * scale)
	}
	return out
}

// ResampleFPS interpolates the sequence to the target frame rate. Sequences
// already at or above the target are returned unchanged.
func (s *Sequence) ResampleFPS(target float64) (*Sequence, error) {
	if target <= 0 {
		return nil, fmt.Errorf("non-positive target fps %v", target)
	}
	if s.FPS >= target || s.Len() < 2 {
		return s, nil
	}
	n := int(target / s.FPS * float64(s.Len()))
	out := NewSequence(n, s.Joints(), target)
	for j := 0; j < s.Joints(); j++ {
		for c := 0; c < 3; c++ {
			resampled := ResampleSeries(s.Series(j, c), n)
			for i, v := range resampled {
				out.Frames[i][j][c] = v
			}
		}
	}
	return out, nil
}
