// pkg/estimate/estimator.go
package estimate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// Options configures a pose estimation run.
type Options struct {
	// StartSec/EndSec clip the video before estimation; both zero means
	// the full video.
	StartSec float64
	EndSec   float64
}

// Estimator produces a 3D pose sequence from a walking video.
type Estimator interface {
	// Name identifies the estimator implementation.
	Name() string

	// Estimate runs pose estimation on the video at the given path.
	Estimate(ctx context.Context, videoPath string, opts Options) (*pose.Sequence, error)
}

// output is the JSON document estimator backends produce.
type output struct {
	FPS    float64        `json:"fps"`
	Frames [][][3]float64 `json:"frames"` // frames x joints x xyz
}

// decodeSequence parses estimator JSON output into a validated sequence.
func decodeSequence(data []byte) (*pose.Sequence, error) {
	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding pose data: %w", err)
	}
	seq := pose.NewSequence(len(out.Frames), 0, out.FPS)
	for i, frame := range out.Frames {
		joints := make(pose.Frame, len(frame))
		for j, p := range frame {
			joints[j] = pose.Point(p)
		}
		seq.Frames[i] = joints
	}
	if err := seq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pose data: %w", err)
	}
	return seq, nil
}

// LoadSequence reads precomputed pose data from a JSON file, for the
// analyze-without-estimation path.
func LoadSequence(path string) (*pose.Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pose file: %w", err)
	}
	return decodeSequence(data)
}
