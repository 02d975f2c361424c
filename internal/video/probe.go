// internal/video/probe.go
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Meta holds the probe results for an uploaded video.
type Meta struct {
	Duration float64 // seconds
	FPS      float64
	Width    int
	Height   int
}

// Prober extracts video metadata via ffprobe.
type Prober struct {
	Binary string // ffprobe binary, default "ffprobe"
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe on the given file.
func (p *Prober) Probe(ctx context.Context, path string) (*Meta, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,width,height,r_frame_rate,avg_frame_rate",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("ffprobe %s: %s", path, msg)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	meta := &Meta{}
	if out.Format.Duration != "" {
		d, err := strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing duration %q: %w", out.Format.Duration, err)
		}
		meta.Duration = d
	}
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		meta.Width = s.Width
		meta.Height = s.Height
		meta.FPS = parseRate(s.AvgFrameRate)
		if meta.FPS == 0 {
			meta.FPS = parseRate(s.RFrameRate)
		}
		break
	}
	if meta.FPS == 0 && meta.Duration == 0 {
		return nil, fmt.Errorf("no video metadata in %s", path)
	}
	return meta, nil
}

// parseRate parses an ffprobe rational like "30000/1001".
func parseRate(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// FrameRange converts a second range into frame indices at the given rate.
func FrameRange(startSec, endSec, fps float64) (int, int) {
	start := int(math.Round(startSec * fps))
	end := int(math.Round(endSec * fps))
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return start, end
}
