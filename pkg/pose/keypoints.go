// pkg/pose/keypoints.go
package pose

import (
	"fmt"
	"math"
)

// Average femur length and spread in the H36M training set, used to scale
// arbitrary skeletons to familiar proportions.
const (
	femurMean = 0.21372303
	femurStd  = 0.04855966
)

// Point2 is a 2D image-space keypoint.
type Point2 [2]float64

// Keypoints is a 2D keypoint series: one slice of joints per frame.
type Keypoints [][]Point2

// NormalizeScreen maps pixel coordinates into the estimator's normalized
// camera frame: x to [-1, 1], y scaled by the same factor to preserve
// aspect ratio.
func (k Keypoints) NormalizeScreen(width, height int) (Keypoints, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", width, height)
	}
	w, h := float64(width), float64(height)
	out := make(Keypoints, len(k))
	for i, frame := range k {
		out[i] = make([]Point2, len(frame))
		for j, p := range frame {
			out[i][j] = Point2{p[0]/w*2 - 1, p[1]/w*2 - h/w}
		}
	}
	return out, nil
}

// NormalizeFemur rescales the keypoints so the mean femur length matches the
// H36M training distribution.
func (k Keypoints) NormalizeFemur() Keypoints {
	if len(k) == 0 {
		return k
	}
	var sum float64
	for _, frame := range k {
		r := dist2(frame[CocoRHip], frame[CocoRKnee])
		l := dist2(frame[CocoLHip], frame[CocoLKnee])
		sum += (r + l) / 2
	}
	mean := sum / float64(len(k))
	if mean == 0 {
		return k
	}
	scale := femurMean / mean
	out := make(Keypoints, len(k))
	for i, frame := range k {
		out[i] = make([]Point2, len(frame))
		for j, p := range frame {
			out[i][j] = Point2{p[0] * scale, p[1] * scale}
		}
	}
	return out
}

func dist2(a, b Point2) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return math.Sqrt(dx*dx + dy*dy)
}
