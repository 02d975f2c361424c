// pkg/pose/angles.go
package pose

import (
	"fmt"
	"math"
)

// Side indexes the Angles columns.
const (
	Right = 0
	Left  = 1
)

// Angles is a per-frame pair of joint angles in degrees, column 0 right,
// column 1 left.
type Angles [][2]float64

// Series returns one side's angle trajectory.
func (a Angles) Series(side int) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = v[side]
	}
	return out
}

// KneeAngles computes knee flexion/extension for both legs: 0° for a
// straight leg, growing with flexion. The knee angle is measured between
// the femur (knee to hip) and tibia (knee to ankle) segments.
func KneeAngles(s *Sequence) (Angles, error) {
	if s.Joints() < NumJoints {
		return nil, fmt.Errorf("sequence has %d joints, want %d", s.Joints(), NumJoints)
	}
	out := make(Angles, s.Len())
	for i, f := range s.Frames {
		out[i][Right] = flexion(f[RHip], f[RKnee], f[RAnkle])
		out[i][Left] = flexion(f[LHip], f[LKnee], f[LAnkle])
	}
	return out, nil
}

// flexion returns the deviation from a fully extended joint in degrees.
func flexion(hip, knee, ankle Point) float64 {
	femur := hip.Sub(knee)
	tibia := ankle.Sub(knee)
	denom := femur.Norm() * tibia.Norm()
	if denom == 0 {
		return 0
	}
	cos := femur.Dot(tibia) / denom
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 180 - math.Acos(cos)*180/math.Pi
}
