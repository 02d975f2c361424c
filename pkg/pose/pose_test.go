// pkg/pose/pose_test.go
package pose

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legFrame builds a single frame with the given knee positions for a figure
// standing at the origin.
func legFrame(bendRight, bendLeft float64) Frame {
	f := make(Frame, NumJoints)
	// Right leg: hip at z=1, knee at z=0.5, ankle position depends on bend.
	f[RHip] = Point{0.1, 0, 1}
	f[RKnee] = Point{0.1, 0, 0.5}
	f[RAnkle] = anklePos(f[RKnee], bendRight)
	f[LHip] = Point{-0.1, 0, 1}
	f[LKnee] = Point{-0.1, 0, 0.5}
	f[LAnkle] = anklePos(f[LKnee], bendLeft)
	return f
}

// anklePos places the ankle 0.5 below the knee, rotated forward by the given
// flexion angle in degrees.
func anklePos(knee Point, deg float64) Point {
	rad := deg * math.Pi / 180
	return Point{knee[0], knee[1] + 0.5*math.Sin(rad), knee[2] - 0.5*math.Cos(rad)}
}

func TestKneeAngles(t *testing.T) {
	s := &Sequence{FPS: 50, Frames: []Frame{
		legFrame(0, 0),
		legFrame(30, 60),
		legFrame(90, 45),
	}}

	angles, err := KneeAngles(s)
	require.NoError(t, err)
	require.Len(t, angles, 3)

	assert.InDelta(t, 0, angles[0][Right], 1e-6)
	assert.InDelta(t, 0, angles[0][Left], 1e-6)
	assert.InDelta(t, 30, angles[1][Right], 1e-6)
	assert.InDelta(t, 60, angles[1][Left], 1e-6)
	assert.InDelta(t, 90, angles[2][Right], 1e-6)
	assert.InDelta(t, 45, angles[2][Left], 1e-6)
}

func TestKneeAnglesJointCount(t *testing.T) {
	s := NewSequence(2, 5, 50)
	_, err := KneeAngles(s)
	assert.Error(t, err)
}

func TestSequenceSlice(t *testing.T) {
	s := NewSequence(100, NumJoints, 50)
	assert.Equal(t, 2*time.Second, s.Duration())

	clip := s.ClipSeconds(0.5, 1.5)
	assert.Equal(t, 50, clip.Len())

	empty := s.Slice(80, 20)
	assert.Equal(t, 0, empty.Len())

	clamped := s.Slice(-5, 1000)
	assert.Equal(t, 100, clamped.Len())
}

func TestResampleSeriesEndpoints(t *testing.T) {
	values := []float64{0, 1, 4, 9, 16, 25}
	out := ResampleSeries(values, 11)
	require.Len(t, out, 11)
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 25, out[10], 1e-9)
	// Interior points track the quadratic reasonably.
	assert.InDelta(t, 2.25, out[3], 0.3)
}

func TestResampleFPS(t *testing.T) {
	s := NewSequence(100, 1, 25)
	for i := range s.Frames {
		s.Frames[i][0] = Point{float64(i), 0, 0}
	}

	up, err := s.ResampleFPS(TargetFPS)
	require.NoError(t, err)
	assert.Equal(t, 200, up.Len())
	assert.Equal(t, TargetFPS, up.FPS)
	// Same start and end positions, monotone in between.
	assert.InDelta(t, 0, up.Frames[0][0][0], 1e-9)
	assert.InDelta(t, 99, up.Frames[up.Len()-1][0][0], 1e-9)

	// Already fast enough: unchanged.
	same, err := up.ResampleFPS(TargetFPS)
	require.NoError(t, err)
	assert.Equal(t, up, same)
}

func TestCameraToWorldGroundsPose(t *testing.T) {
	s := NewSequence(3, NumJoints, 50)
	for i := range s.Frames {
		for j := range s.Frames[i] {
			s.Frames[i][j] = Point{float64(j) * 0.1, 0.2, float64(i) * 0.05}
		}
	}
	world := CameraToWorld(s)

	minZ := math.Inf(1)
	for _, f := range world.Frames {
		for _, p := range f {
			if p[2] < minZ {
				minZ = p[2]
			}
		}
	}
	assert.InDelta(t, 0, minZ, 1e-9)

	// Rotation preserves distances between joints.
	orig := s.Frames[0][1].Sub(s.Frames[0][2]).Norm()
	got := world.Frames[0][1].Sub(world.Frames[0][2]).Norm()
	assert.InDelta(t, orig, got, 1e-9)
}

func TestNormalizeScreen(t *testing.T) {
	k := Keypoints{{Point2{0, 0}, Point2{1920, 1080}}}
	out, err := k.NormalizeScreen(1920, 1080)
	require.NoError(t, err)

	assert.InDelta(t, -1, out[0][0][0], 1e-9)
	assert.InDelta(t, -1080.0/1920, out[0][0][1], 1e-9)
	assert.InDelta(t, 1, out[0][1][0], 1e-9)
	assert.InDelta(t, 1080.0/1920, out[0][1][1], 1e-9)

	_, err = k.NormalizeScreen(0, 1080)
	assert.Error(t, err)
}

func TestNormalizeFemur(t *testing.T) {
	frame := make([]Point2, CocoNumJoints)
	frame[CocoRHip] = Point2{0, 0}
	frame[CocoRKnee] = Point2{0, 0.4}
	frame[CocoLHip] = Point2{0.1, 0}
	frame[CocoLKnee] = Point2{0.1, 0.4}
	k := Keypoints{frame}

	out := k.NormalizeFemur()
	got := dist2(out[0][CocoRHip], out[0][CocoRKnee])
	assert.InDelta(t, femurMean, got, 1e-9)
}

func TestValidate(t *testing.T) {
	s := NewSequence(2, 3, 50)
	require.NoError(t, s.Validate())

	s.Frames[1] = s.Frames[1][:2]
	assert.Error(t, s.Validate())

	s2 := NewSequence(1, 3, 0)
	assert.Error(t, s2.Validate())
}
