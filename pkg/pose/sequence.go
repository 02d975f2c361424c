// pkg/pose/sequence.go
package pose

import (
	"fmt"
	"math"
	"time"
)

// Point is a 3D joint position in meters.
type Point [3]float64

func (p Point) Sub(o Point) Point {
	return Point{p[0] - o[0], p[1] - o[1], p[2] - o[2]}
}

func (p Point) Dot(o Point) float64 {
	return p[0]*o[0] + p[1]*o[1] + p[2]*o[2]
}

func (p Point) Cross(o Point) Point {
	return Point{
		p[1]*o[2] - p[2]*o[1],
		p[2]*o[0] - p[0]*o[2],
		p[0]*o[1] - p[1]*o[0],
	}
}

func (p Point) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

func (p Point) Scale(s float64) Point {
	return Point{p[0] * s, p[1] * s, p[2] * s}
}

func (p Point) Add(o Point) Point {
	return Point{p[0] + o[0], p[1] + o[1], p[2] + o[2]}
}

// Frame holds one pose: a position per joint.
type Frame []Point

// Sequence is a 3D pose series at a fixed frame rate.
type Sequence struct {
	Frames []Frame `json:"frames"`
	FPS    float64 `json:"fps"`
}

// NewSequence allocates a sequence of n zeroed frames with the given joint
// count.
func NewSequence(n, joints int, fps float64) *Sequence {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = make(Frame, joints)
	}
	return &Sequence{Frames: frames, FPS: fps}
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.Frames) }

// Joints returns the number of joints per frame, 0 for an empty sequence.
func (s *Sequence) Joints() int {
	if len(s.Frames) == 0 {
		return 0
	}
	return len(s.Frames[0])
}

// Duration returns the wall-clock length of the sequence.
func (s *Sequence) Duration() time.Duration {
	if s.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(s.Len()) / s.FPS * float64(time.Second))
}

// Validate checks frame shape consistency.
func (s *Sequence) Validate() error {
	if s.FPS <= 0 {
		return fmt.Errorf("non-positive fps %v", s.FPS)
	}
	joints := s.Joints()
	for i, f := range s.Frames {
		if len(f) != joints {
			return fmt.Errorf("frame %d has %d joints, want %d", i, len(f), joints)
		}
	}
	return nil
}

// Slice returns the sub-sequence [start, end) by frame index, clamped to the
// valid range.
func (s *Sequence) Slice(start, end int) *Sequence {
	if start < 0 {
		start = 0
	}
	if end > s.Len() {
		end = s.Len()
	}
	if start >= end {
		return &Sequence{FPS: s.FPS}
	}
	return &Sequence{Frames: s.Frames[start:end], FPS: s.FPS}
}

// ClipSeconds returns the sub-sequence covering [from, to] in seconds.
func (s *Sequence) ClipSeconds(from, to float64) *Sequence {
	start := int(math.Round(from * s.FPS))
	end := int(math.Round(to * s.FPS))
	return s.Slice(start, end)
}

// Series extracts one coordinate of one joint across all frames.
func (s *Sequence) Series(joint, coord int) []float64 {
	out := make([]float64, s.Len())
	for i, f := range s.Frames {
		out[i] = f[joint][coord]
	}
	return out
}
