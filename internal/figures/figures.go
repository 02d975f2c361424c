// internal/figures/figures.go

// Package figures builds the Plotly figure payloads the dashboard frontend
// renders: the animated 3D pose viewer, the knee-angle trajectory, the
// average stride and the phase-space diagram.
package figures

import (
	"fmt"

	"github.com/kamisoel/gait-analyzer/pkg/gait"
	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// Trace is one plotly trace, serialized as-is.
type Trace map[string]any

// Layout is a plotly layout object.
type Layout map[string]any

// AnimFrame is one animation frame of the pose viewer.
type AnimFrame struct {
	Name string  `json:"name"`
	Data []Trace `json:"data"`
}

// Figure is a plotly figure document.
type Figure struct {
	Data   []Trace     `json:"data"`
	Layout Layout      `json:"layout"`
	Frames []AnimFrame `json:"frames,omitempty"`
}

const (
	darkTemplate = "plotly_dark"
	transparent  = "rgba(0, 0, 0, 0)"
	accentColor  = "#B2FF66"
	normColor    = "rgba(162,162,162,0.5)"
)

// sliderStep is the frame stride of the pose viewer's scrub slider.
const sliderStep = 10

// SkeletonFigure builds the animated 3D skeleton viewer.
func SkeletonFigure(s *pose.Sequence) *Figure {
	frames := make([]AnimFrame, s.Len())
	for i, f := range s.Frames {
		frames[i] = AnimFrame{
			Name: fmt.Sprintf("%d", i),
			Data: []Trace{skeletonTrace(f)},
		}
	}

	var steps []map[string]any
	for f := 0; f <= s.Len(); f += sliderStep {
		steps = append(steps, map[string]any{
			"args":   []any{[]any{fmt.Sprintf("%d", f)}, frameArgs(0)},
			"label":  f,
			"method": "animate",
		})
	}

	fps := s.FPS
	if fps <= 0 {
		fps = pose.TargetFPS
	}

	fig := &Figure{
		Layout: Layout{
			"template":      darkTemplate,
			"plot_bgcolor":  transparent,
			"paper_bgcolor": transparent,
			"margin":        map[string]any{"l": 0, "r": 0, "b": 0, "t": 0},
			"scene": map[string]any{
				"xaxis":       map[string]any{"range": []float64{-0.75, 0.75}, "autorange": false, "zeroline": false},
				"yaxis":       map[string]any{"range": []float64{-0.75, 0.75}, "autorange": false, "zeroline": false},
				"zaxis":       map[string]any{"range": []float64{-0.2, 2}, "autorange": false, "zeroline": false},
				"aspectratio": map[string]any{"x": 1, "y": 1, "z": 2.0},
			},
			"scene_camera": map[string]any{
				"eye": map[string]any{"x": -1.0, "y": 3.0, "z": 0.5},
			},
			"hovermode": "closest",
			"height":    550,
			"sliders": []map[string]any{{
				"active":  0,
				"yanchor": "top",
				"xanchor": "left",
				"currentvalue": map[string]any{
					"font":    map[string]any{"size": 15},
					"prefix":  "Frame:",
					"xanchor": "right",
				},
				"pad":   map[string]any{"b": 10, "t": 15},
				"len":   0.7,
				"x":     0.2,
				"y":     0,
				"steps": steps,
			}},
			"updatemenus": []map[string]any{{
				"buttons": []map[string]any{
					{"args": []any{nil, frameArgs(1000 / fps)}, "label": "&#9654;", "method": "animate"},
					{"args": []any{[]any{nil}, frameArgs(0)}, "label": "&#9724;", "method": "animate"},
				},
				"direction":  "left",
				"pad":        map[string]any{"r": 10, "t": 40},
				"showactive": false,
				"type":       "buttons",
				"x":          0,
				"xanchor":    "left",
				"y":          0,
				"yanchor":    "top",
			}},
		},
		Frames: frames,
	}
	if len(frames) > 0 {
		fig.Data = frames[0].Data
	}
	return fig
}

func frameArgs(durationMS float64) map[string]any {
	return map[string]any{
		"frame":       map[string]any{"duration": durationMS, "redraw": true},
		"mode":        "immediate",
		"fromcurrent": true,
		"transition":  map[string]any{"duration": 0},
	}
}

// skeletonTrace renders one pose as a scatter3d of bone segments separated
// by nulls.
func skeletonTrace(f pose.Frame) Trace {
	var xs, ys, zs []*float64
	var text []*string
	push := func(p pose.Point, name string) {
		x, y, z := p[0], p[1], p[2]
		xs = append(xs, &x)
		ys = append(ys, &y)
		zs = append(zs, &z)
		text = append(text, &name)
	}
	gap := func() {
		xs = append(xs, nil)
		ys = append(ys, nil)
		zs = append(zs, nil)
		text = append(text, nil)
	}
	for _, b := range pose.Bones() {
		push(f[b.Joint], pose.JointNames[b.Joint])
		push(f[b.Parent], pose.JointNames[b.Parent])
		gap()
	}
	return Trace{
		"type":   "scatter3d",
		"x":      xs,
		"y":      ys,
		"z":      zs,
		"mode":   "markers+lines",
		"line":   map[string]any{"width": 5},
		"marker": map[string]any{"size": 5},
		"text":   text,
		"hovertemplate": "<b>%{text}</b><br>" +
			"<b>x</b>: %{x:.3f}<br>" +
			"<b>y</b>: %{y:.3f}<br>" +
			"<b>z</b>: %{z:.3f}<br>" +
			"<extra></extra>",
	}
}

// AngleFigure builds the knee-angle trajectory chart with heel strikes
// marked as vertical lines.
func AngleFigure(angles pose.Angles, cycles []int) *Figure {
	names := []string{"Right Knee", "Left Knee"}
	fig := &Figure{}
	for side, name := range names {
		fig.Data = append(fig.Data, Trace{
			"type":          "scatter",
			"y":             angles.Series(side),
			"name":          name,
			"meta":          name,
			"hovertemplate": "%{meta}: %{y:.1f}°<extra></extra>",
		})
	}

	var shapes []map[string]any
	shapes = append(shapes, map[string]any{
		"type": "rect", "x0": 0, "x1": 15, "xref": "x", "yref": "paper",
		"y0": 0, "y1": 1, "fillcolor": "grey", "layer": "below",
		"opacity": 0.3, "line": map[string]any{"width": 0},
	})
	for _, x := range cycles {
		shapes = append(shapes, map[string]any{
			"type": "line", "x0": x, "x1": x, "xref": "x", "yref": "paper",
			"y0": 0, "y1": 1,
			"line": map[string]any{"color": "orange", "dash": "dot"},
		})
	}

	fig.Layout = Layout{
		"dragmode": "pan",
		"xaxis": map[string]any{
			"range": []float64{0, 300}, "title": "Frame", "zeroline": true,
			"spikedash": "dash", "spikecolor": "white",
		},
		"yaxis": map[string]any{
			"fixedrange": true, "title": "Knee Extension/Flexion", "zeroline": true,
		},
		"margin":             map[string]any{"l": 10, "r": 10, "b": 10, "t": 10},
		"hovermode":          "x unified",
		"template":           darkTemplate,
		"paper_bgcolor":      transparent,
		"hoverlabel_bgcolor": "black",
		"legend": map[string]any{
			"x": 0.01, "y": 0.98, "traceorder": "normal", "bgcolor": "black",
		},
		"newshape": map[string]any{
			"line_color": accentColor, "line_width": 2,
			"fillcolor": "rgba(178, 255, 102, 0.5)",
		},
		"shapes": shapes,
	}
	return fig
}

// StrideFigure builds the average-stride chart, optionally with a normative
// mean ± std band.
func StrideFigure(right, left *gait.Stride, norm gait.NormData) *Figure {
	fig := &Figure{}
	for _, s := range []struct {
		name   string
		stride *gait.Stride
	}{
		{"Right Knee", right},
		{"Left Knee", left},
	} {
		if s.stride == nil {
			continue
		}
		fig.Data = append(fig.Data, Trace{
			"type":          "scatter",
			"y":             s.stride.Mean,
			"name":          s.name,
			"meta":          s.name,
			"hovertemplate": "%{meta}: %{y:.1f}°<extra></extra>",
		})
	}

	if len(norm) > 0 {
		n := len(norm)
		band := make([]float64, 0, 2*n)
		xs := make([]float64, 0, 2*n)
		for i := 0; i < n; i++ {
			xs = append(xs, float64(i))
			band = append(band, norm[i][0]+norm[i][1])
		}
		for i := n - 1; i >= 0; i-- {
			xs = append(xs, float64(i))
			band = append(band, norm[i][0]-norm[i][1])
		}
		mean := make([]float64, n)
		for i := range norm {
			mean[i] = norm[i][0]
		}
		fig.Data = append(fig.Data,
			Trace{
				"type": "scatter", "x": xs, "y": band,
				"fill": "tozerox", "showlegend": false, "mode": "none",
				"hoverinfo": "skip", "legendgroup": "Norm", "fillcolor": normColor,
			},
			Trace{
				"type": "scatter", "y": mean,
				"name": "Norm value", "meta": "Norm value",
				"legendgroup": "Norm", "line": map[string]any{"color": normColor},
				"hovertemplate": "%{meta}: %{y:.1f}°<extra></extra>",
			},
		)
	}

	fig.Layout = Layout{
		"dragmode": "pan",
		"xaxis": map[string]any{
			"range": []float64{0, 100}, "fixedrange": true, "title": "% Gait Cycle",
			"spikedash": "dash", "spikecolor": "white",
		},
		"yaxis": map[string]any{
			"fixedrange": true, "title": "Avg. Knee Extension/Flexion",
		},
		"margin":             map[string]any{"l": 10, "r": 10, "b": 10, "t": 10},
		"hovermode":          "x unified",
		"template":           darkTemplate,
		"paper_bgcolor":      transparent,
		"hoverlabel_bgcolor": "black",
		"legend": map[string]any{
			"x": 0.01, "y": 0.99, "traceorder": "normal", "bgcolor": "black",
		},
		"newshape": map[string]any{
			"line_color": accentColor, "line_width": 2,
			"fillcolor": "rgba(178, 255, 102, 0.5)",
		},
	}
	return fig
}

// PhaseSpaceFigure builds the 3D phase-space reconstruction plot. Each
// trajectory holds one row per embedding dimension.
func PhaseSpaceFigure(trajs [][][]float64) *Figure {
	names := []string{"Right", "Left"}
	fig := &Figure{}
	for i, traj := range trajs {
		name := fmt.Sprintf("Trajectory %d", i)
		if i < len(names) {
			name = names[i]
		}
		if len(traj) < 3 {
			continue
		}
		fig.Data = append(fig.Data, Trace{
			"type": "scatter3d",
			"x":    traj[0],
			"y":    traj[1],
			"z":    traj[2],
			"mode": "lines",
			"name": name,
		})
	}
	fig.Layout = Layout{
		"scene_camera": map[string]any{
			"eye": map[string]any{"x": 0.4, "y": -1.8, "z": 0.4},
		},
		"margin":             map[string]any{"l": 0, "r": 0, "b": 10, "t": 5},
		"hovermode":          "x unified",
		"template":           darkTemplate,
		"paper_bgcolor":      transparent,
		"hoverlabel_bgcolor": "black",
		"height":             350,
		"legend": map[string]any{
			"x": 0.01, "y": 0.98, "traceorder": "normal", "bgcolor": "black",
		},
	}
	return fig
}
