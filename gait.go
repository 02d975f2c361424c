// gait.go
package analyzer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kamisoel/gait-analyzer/internal/log"
	"github.com/kamisoel/gait-analyzer/pkg/estimate"
	"github.com/kamisoel/gait-analyzer/pkg/gait"
	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// Options tunes the analysis pipeline.
type Options struct {
	TargetFPS  float64           // upsample slower footage to this rate
	Cycles     gait.CycleOptions // heel-strike detection parameters
	PhaseDelay int               // delay embedding tau in frames
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		TargetFPS:  pose.TargetFPS,
		Cycles:     gait.DefaultCycleOptions(),
		PhaseDelay: 10,
	}
}

// Result bundles everything one analysis produces.
type Result struct {
	Pose    *pose.Sequence  `json:"pose"`
	Angles  pose.Angles     `json:"angles"`
	Cycles  [2][]int        `json:"cycles"`  // heel strikes, indexed by side
	Strides [2]*gait.Stride `json:"strides"` // nil when too few cycles
	Cadence float64         `json:"cadence"` // steps per minute
}

// Summary is the compact representation served in listings.
type Summary struct {
	Frames     int           `json:"frames"`
	FPS        float64       `json:"fps"`
	DurationS  float64       `json:"duration_s"`
	Cadence    float64       `json:"cadence"`
	CycleCount [2]int        `json:"cycle_count"`
	KneeRange  [2][2]float64 `json:"knee_range"` // [side][min, max] degrees
}

// Summarize reduces the result for listings and status responses.
func (r *Result) Summarize() Summary {
	s := Summary{
		Frames:     r.Pose.Len(),
		FPS:        r.Pose.FPS,
		DurationS:  r.Pose.Duration().Seconds(),
		Cadence:    r.Cadence,
		CycleCount: [2]int{len(r.Cycles[pose.Right]), len(r.Cycles[pose.Left])},
	}
	for side := range s.KneeRange {
		if len(r.Angles) == 0 {
			continue
		}
		lo, hi := r.Angles[0][side], r.Angles[0][side]
		for _, a := range r.Angles {
			if a[side] < lo {
				lo = a[side]
			}
			if a[side] > hi {
				hi = a[side]
			}
		}
		s.KneeRange[side] = [2]float64{lo, hi}
	}
	return s
}

// PhaseSpace reconstructs both sides' phase-space trajectories.
func (r *Result) PhaseSpace(tau int) ([][][]float64, error) {
	if tau < 1 {
		tau = DefaultOptions().PhaseDelay
	}
	out := make([][][]float64, 0, 2)
	for side := pose.Right; side <= pose.Left; side++ {
		traj, err := gait.Reconstruct(r.Angles.Series(side), tau, 3)
		if err != nil {
			return nil, err
		}
		out = append(out, traj)
	}
	return out, nil
}

// Analyzer runs the full gait analysis pipeline: estimation, world
// transform, knee angles, gait cycles and stride statistics.
type Analyzer struct {
	estimator estimate.Estimator
	opts      Options
	log       zerolog.Logger
}

// New creates an analyzer. The estimator may be nil if only AnalyzeSequence
// is used.
func New(estimator estimate.Estimator, opts Options) *Analyzer {
	if opts.TargetFPS <= 0 {
		opts.TargetFPS = pose.TargetFPS
	}
	if opts.Cycles == (gait.CycleOptions{}) {
		opts.Cycles = gait.DefaultCycleOptions()
	}
	if opts.PhaseDelay < 1 {
		opts.PhaseDelay = DefaultOptions().PhaseDelay
	}
	return &Analyzer{
		estimator: estimator,
		opts:      opts,
		log:       log.WithComponent("analyzer"),
	}
}

// AnalyzeVideo estimates the pose from a video file and analyzes it.
func (a *Analyzer) AnalyzeVideo(ctx context.Context, videoPath string, opts estimate.Options) (*Result, error) {
	if a.estimator == nil {
		return nil, ErrNoEstimator
	}
	a.log.Info().Str("video", videoPath).Str("estimator", a.estimator.Name()).Msg("estimating pose")
	seq, err := a.estimator.Estimate(ctx, videoPath, opts)
	if err != nil {
		return nil, &Error{Op: "estimate", Video: videoPath, Err: err}
	}
	return a.AnalyzeSequence(seq)
}

// AnalyzeSequence analyzes a precomputed camera-space pose sequence.
func (a *Analyzer) AnalyzeSequence(seq *pose.Sequence) (*Result, error) {
	if err := seq.Validate(); err != nil {
		return nil, &Error{Op: "validate", Err: err}
	}
	if seq.Len() < 2 {
		return nil, &Error{Op: "analyze", Err: ErrTooShort}
	}

	seq, err := seq.ResampleFPS(a.opts.TargetFPS)
	if err != nil {
		return nil, &Error{Op: "resample", Err: err}
	}
	world := pose.CameraToWorld(seq)

	angles, err := pose.KneeAngles(world)
	if err != nil {
		return nil, &Error{Op: "angles", Err: err}
	}

	result := &Result{Pose: world, Angles: angles}
	for side := pose.Right; side <= pose.Left; side++ {
		cycles, err := gait.DetectCycles(world, side, a.opts.Cycles)
		if err != nil {
			return nil, &Error{Op: "cycles", Err: err}
		}
		result.Cycles[side] = cycles

		if len(cycles) < 2 {
			a.log.Warn().Int("side", side).Int("strikes", len(cycles)).Msg("too few heel strikes for stride statistics")
			continue
		}
		stride, err := gait.NormalizeStrides(angles.Series(side), cycles)
		if err != nil {
			return nil, &Error{Op: "strides", Err: err}
		}
		result.Strides[side] = stride
	}
	result.Cadence = gait.Cadence(result.Cycles[pose.Right], result.Cycles[pose.Left], world.FPS, world.Len())

	a.log.Info().
		Int("frames", world.Len()).
		Float64("cadence", result.Cadence).
		Msg("analysis complete")
	return result, nil
}

// String implements fmt.Stringer for quick CLI output.
func (s Summary) String() string {
	return fmt.Sprintf("%d frames @ %.4g fps (%.1fs), cadence %.1f steps/min, cycles R:%d L:%d",
		s.Frames, s.FPS, s.DurationS, s.Cadence, s.CycleCount[pose.Right], s.CycleCount[pose.Left])
}
