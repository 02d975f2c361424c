// internal/cli/analyze.go
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	analyzer "github.com/kamisoel/gait-analyzer"
	"github.com/kamisoel/gait-analyzer/internal/figures"
	"github.com/kamisoel/gait-analyzer/pkg/estimate"
	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

var (
	analyzeStart   float64
	analyzeEnd     float64
	analyzeJSON    bool
	analyzeFigures string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video|pose.json>",
	Short: "Analyze a walking video or a precomputed pose sequence",
	Long: `Analyze gait from a video file or a pose sequence JSON file.

Video files are passed to the configured pose estimator; files ending in
.json are loaded as precomputed sequences.

Examples:
  gait-analyzer analyze walk.mp4
  gait-analyzer analyze walk.mp4 --start 2 --end 10
  gait-analyzer analyze poses.json --figures out/`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeStart, "start", 0, "clip start in seconds")
	analyzeCmd.Flags().Float64Var(&analyzeEnd, "end", 0, "clip end in seconds")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full result as JSON")
	analyzeCmd.Flags().StringVar(&analyzeFigures, "figures", "", "write figure JSON files to this directory")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input := args[0]

	var res *analyzer.Result
	var err error
	if strings.HasSuffix(input, ".json") {
		var seq *pose.Sequence
		seq, err = estimate.LoadSequence(input)
		if err != nil {
			return fmt.Errorf("loading sequence: %w", err)
		}
		if analyzeStart > 0 || analyzeEnd > 0 {
			seq = seq.ClipSeconds(analyzeStart, analyzeEnd)
		}
		res, err = analyzer.New(nil, analyzer.DefaultOptions()).AnalyzeSequence(seq)
	} else {
		est := estimate.NewExecEstimator(
			cfg.Estimator.Command,
			cfg.Estimator.Args,
			time.Duration(cfg.Estimator.Timeout),
		)
		a := analyzer.New(est, analyzer.DefaultOptions())
		res, err = a.AnalyzeVideo(cmd.Context(), input, estimate.Options{
			StartSec: analyzeStart,
			EndSec:   analyzeEnd,
		})
	}
	if err != nil {
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Println(res.Summarize())
	}

	if analyzeFigures != "" {
		if err := writeFigures(res, analyzeFigures); err != nil {
			return fmt.Errorf("writing figures: %w", err)
		}
		fmt.Printf("Figures written to %s\n", analyzeFigures)
	}
	return nil
}

func writeFigures(res *analyzer.Result, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	figs := map[string]*figures.Figure{
		"pose":   figures.SkeletonFigure(res.Pose),
		"angles": figures.AngleFigure(res.Angles, res.Cycles[pose.Right]),
		"stride": figures.StrideFigure(res.Strides[pose.Right], res.Strides[pose.Left], nil),
	}
	if trajs, err := res.PhaseSpace(0); err == nil {
		figs["phasespace"] = figures.PhaseSpaceFigure(trajs)
	}

	for name, fig := range figs {
		data, err := json.Marshal(fig)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
