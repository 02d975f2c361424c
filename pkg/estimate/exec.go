// pkg/estimate/exec.go
package estimate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// ExecEstimator shells out to an external estimator command (the Python
// pose worker). The command receives the video path and optional clip
// bounds and must print the pose JSON document to stdout.
type ExecEstimator struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewExecEstimator creates an exec-based estimator.
func NewExecEstimator(command string, args []string, timeout time.Duration) *ExecEstimator {
	return &ExecEstimator{Command: command, Args: args, Timeout: timeout}
}

func (e *ExecEstimator) Name() string { return "exec:" + e.Command }

// Estimate runs the external command and parses its output.
func (e *ExecEstimator) Estimate(ctx context.Context, videoPath string, opts Options) (*pose.Sequence, error) {
	if e.Command == "" {
		return nil, fmt.Errorf("no estimator command configured")
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append([]string(nil), e.Args...)
	if opts.EndSec > opts.StartSec {
		args = append(args,
			"--start", strconv.FormatFloat(opts.StartSec, 'f', -1, 64),
			"--end", strconv.FormatFloat(opts.EndSec, 'f', -1, 64),
		)
	}
	args = append(args, videoPath)

	cmd := exec.CommandContext(ctx, e.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("estimator timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("estimator failed: %w: %s", err, firstLine(stderr.Bytes()))
	}

	seq, err := decodeSequence(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("estimator output: %w", err)
	}
	return seq, nil
}

func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimSpace(b))
}
