// pkg/gait/gait_test.go
package gait

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// walkSequence simulates a figure walking along the x axis at the given
// cycle duration: ankles swing sinusoidally around the pelvis, half a cycle
// out of phase.
func walkSequence(frames int, fps, cycleSec float64) *pose.Sequence {
	s := pose.NewSequence(frames, pose.NumJoints, fps)
	omega := 2 * math.Pi / (cycleSec * fps)
	for i := 0; i < frames; i++ {
		hipX := 0.02 * float64(i) // steady forward drift
		f := s.Frames[i]
		f[pose.MHip] = pose.Point{hipX, 0, 1}
		f[pose.RHip] = pose.Point{hipX, 0.1, 1}
		f[pose.LHip] = pose.Point{hipX, -0.1, 1}
		f[pose.RAnkle] = pose.Point{hipX + 0.3*math.Sin(omega*float64(i)), 0.1, 0.05}
		f[pose.LAnkle] = pose.Point{hipX + 0.3*math.Sin(omega*float64(i)+math.Pi), -0.1, 0.05}
		f[pose.RKnee] = pose.Point{hipX, 0.1, 0.5}
		f[pose.LKnee] = pose.Point{hipX, -0.1, 0.5}
	}
	return s
}

func TestDetectCycles(t *testing.T) {
	const fps = 50.0
	const cycleSec = 1.0
	s := walkSequence(300, fps, cycleSec) // 6 cycles

	right, err := DetectCycles(s, pose.Right, DefaultCycleOptions())
	require.NoError(t, err)

	// Peaks of sin(omega*t) at t = (0.25 + k) * cycle. Six cycles fit,
	// the boundary ones may fall outside the peak-pickable interior.
	require.GreaterOrEqual(t, len(right), 4)
	for i := 1; i < len(right); i++ {
		gap := float64(right[i]-right[i-1]) / fps
		assert.InDelta(t, cycleSec, gap, 0.15, "cycle %d", i)
	}

	left, err := DetectCycles(s, pose.Left, DefaultCycleOptions())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(left), 4)

	// Legs are half a cycle out of phase.
	phase := math.Mod(float64(left[0]-right[0]), cycleSec*fps)
	if phase < 0 {
		phase += cycleSec * fps
	}
	assert.InDelta(t, cycleSec*fps/2, phase, cycleSec*fps*0.15)
}

func TestDetectCyclesErrors(t *testing.T) {
	_, err := DetectCycles(pose.NewSequence(10, 3, 50), pose.Right, DefaultCycleOptions())
	assert.Error(t, err)

	bad := pose.NewSequence(10, pose.NumJoints, 0)
	_, err = DetectCycles(bad, pose.Right, DefaultCycleOptions())
	assert.Error(t, err)
}

func TestCadence(t *testing.T) {
	// 4 + 4 steps over 4 seconds = 120 steps/min.
	right := []int{10, 60, 110, 160}
	left := []int{35, 85, 135, 185}
	got := Cadence(right, left, 50, 200)
	assert.InDelta(t, 120, got, 1e-9)

	assert.Zero(t, Cadence(nil, nil, 0, 100))
}

func TestNormalizeStrides(t *testing.T) {
	// Two identical strides of a known waveform.
	series := make([]float64, 120)
	for i := range series {
		series[i] = 30 * math.Abs(math.Sin(math.Pi*float64(i)/60))
	}
	st, err := NormalizeStrides(series, []int{0, 60, 120})
	require.NoError(t, err)

	assert.Equal(t, 2, st.N)
	require.Len(t, st.Mean, StrideSamples)
	require.Len(t, st.Std, StrideSamples)

	assert.InDelta(t, 0, st.Mean[0], 0.5)
	assert.InDelta(t, 30, st.Mean[50], 1.0)
	// Identical strides: negligible spread.
	for i, sd := range st.Std {
		assert.InDelta(t, 0, sd, 0.5, "sample %d", i)
	}
}

func TestNormalizeStridesErrors(t *testing.T) {
	_, err := NormalizeStrides([]float64{1, 2, 3}, []int{0})
	assert.Error(t, err)

	_, err = NormalizeStrides([]float64{1, 2, 3}, []int{0, 10})
	assert.Error(t, err)
}

func TestStrideDeviation(t *testing.T) {
	st := &Stride{Mean: []float64{10, 20}, Std: []float64{0, 0}, N: 1}
	norm := NormData{{10, 2}, {24, 2}}
	got, err := st.Deviation(norm)
	require.NoError(t, err)
	// z-scores 0 and -2 -> rms sqrt(2).
	assert.InDelta(t, math.Sqrt2, got, 1e-9)

	_, err = st.Deviation(NormData{{0, 1}})
	assert.Error(t, err)
}

func TestReconstruct(t *testing.T) {
	series := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	traj, err := Reconstruct(series, 2, 3)
	require.NoError(t, err)

	require.Len(t, traj, 3)
	require.Len(t, traj[0], 6)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, traj[0])
	assert.Equal(t, []float64{2, 3, 4, 5, 6, 7}, traj[1])
	assert.Equal(t, []float64{4, 5, 6, 7, 8, 9}, traj[2])

	_, err = Reconstruct(series, 0, 3)
	assert.Error(t, err)
	_, err = Reconstruct([]float64{1, 2}, 5, 3)
	assert.Error(t, err)
}
