// pkg/manifest/parser_test.go
package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Requirement
	}{
		{
			name: "bare name",
			line: "mediapipe",
			want: Requirement{Name: "mediapipe"},
		},
		{
			name: "exact pin",
			line: "torch==1.13.1",
			want: Requirement{Name: "torch", Constraints: []Constraint{{OpEqual, "1.13.1"}}},
		},
		{
			name: "minimum version",
			line: "opencv-python>=4.5.0",
			want: Requirement{Name: "opencv-python", Constraints: []Constraint{{OpGreaterEqual, "4.5.0"}}},
		},
		{
			name: "constraint list",
			line: "plotly>=5.0,<6.0,!=5.3.0",
			want: Requirement{Name: "plotly", Constraints: []Constraint{
				{OpGreaterEqual, "5.0"}, {OpLess, "6.0"}, {OpNotEqual, "5.3.0"},
			}},
		},
		{
			name: "compatible release",
			line: "dash~=2.7.0",
			want: Requirement{Name: "dash", Constraints: []Constraint{{OpCompatible, "2.7.0"}}},
		},
		{
			name: "whitespace around operator",
			line: "c3d >= 0.5.0",
			want: Requirement{Name: "c3d", Constraints: []Constraint{{OpGreaterEqual, "0.5.0"}}},
		},
		{
			name: "extras",
			line: "dash[diskcache,celery]==2.7.0",
			want: Requirement{
				Name:        "dash",
				Extras:      []string{"diskcache", "celery"},
				Constraints: []Constraint{{OpEqual, "2.7.0"}},
			},
		},
		{
			name: "git reference",
			line: "vg @ git+https://github.com/lace/vg.git",
			want: Requirement{Name: "vg", Source: &SourceRef{VCS: "git", URL: "https://github.com/lace/vg.git"}},
		},
		{
			name: "git reference without spaces",
			line: "vg@git+https://github.com/lace/vg.git",
			want: Requirement{Name: "vg", Source: &SourceRef{VCS: "git", URL: "https://github.com/lace/vg.git"}},
		},
		{
			name: "git reference with revision",
			line: "videopose3d @ git+https://github.com/facebookresearch/VideoPose3D.git@v1.0",
			want: Requirement{Name: "videopose3d", Source: &SourceRef{
				VCS: "git", URL: "https://github.com/facebookresearch/VideoPose3D.git", Rev: "v1.0",
			}},
		},
		{
			name: "ssh url keeps user",
			line: "weights @ git+ssh://git@github.com/kamisoel/weights.git",
			want: Requirement{Name: "weights", Source: &SourceRef{
				VCS: "git", URL: "ssh://git@github.com/kamisoel/weights.git",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.Extras, got.Extras)
			assert.Equal(t, tt.want.Constraints, got.Constraints)
			assert.Equal(t, tt.want.Source, got.Source)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"invalid name", "not a package"},
		{"leading dash", "-torch==1.0"},
		{"bad operator", "torch=1.0"},
		{"bad version", "torch==one.two"},
		{"empty constraint", "torch==1.0,,<2"},
		{"unterminated extras", "dash[celery==2.0"},
		{"unsupported vcs", "vg @ hg+https://example.com/vg"},
		{"missing scheme", "vg @ git+github.com/lace/vg"},
		{"empty revision", "vg @ git+https://github.com/lace/vg.git@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestParse(t *testing.T) {
	const input = `# model weights and runtime deps
torch==1.13.1
torchvision==0.14.1  # must match torch

-f https://download.pytorch.org/whl/torch_stable.html
mediapipe>=0.9
vg @ git+https://github.com/lace/vg.git@v2.0.0

--find-links=https://dl.fbaipublicfiles.com/video-pose-3d/
c3d
`
	m, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, m.Requirements, 5)
	require.Len(t, m.Directives, 2)

	assert.Equal(t, []string{
		"https://download.pytorch.org/whl/torch_stable.html",
		"https://dl.fbaipublicfiles.com/video-pose-3d/",
	}, m.FindLinks())

	// A find-links directive only affects requirements after it.
	torch, ok := m.Get("torch")
	require.True(t, ok)
	assert.Empty(t, torch.FindLinks)

	mp, ok := m.Get("mediapipe")
	require.True(t, ok)
	assert.Equal(t, []string{"https://download.pytorch.org/whl/torch_stable.html"}, mp.FindLinks)

	c3d, ok := m.Get("c3d")
	require.True(t, ok)
	assert.Len(t, c3d.FindLinks, 2)

	// Line numbers survive for error reporting.
	assert.Equal(t, 2, torch.Line)
	assert.Equal(t, 10, c3d.Line)
}

func TestParseSyntaxErrorHasLine(t *testing.T) {
	_, err := Parse(strings.NewReader("torch==1.0\nnot a package\n"))
	require.Error(t, err)

	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 2, serr.Line)
}

func TestParseFileIncludes(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "requirements.txt")
	extra := filepath.Join(dir, "extra.txt")

	require.NoError(t, os.WriteFile(base, []byte("-r extra.txt\ntorch==1.13.1\n"), 0o644))
	require.NoError(t, os.WriteFile(extra, []byte("plotly>=5.0\n"), 0o644))

	m, err := ParseFile(base)
	require.NoError(t, err)
	require.Len(t, m.Requirements, 2)

	_, ok := m.Get("plotly")
	assert.True(t, ok)
}

func TestParseFileIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")

	require.NoError(t, os.WriteFile(a, []byte("-r b.txt\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("-r a.txt\n"), 0o644))

	_, err := ParseFile(a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestRoundTrip(t *testing.T) {
	const input = `torch==1.13.1
-f https://download.pytorch.org/whl/torch_stable.html
mediapipe>=0.9
vg @ git+https://github.com/lace/vg.git@v2.0.0
`
	m, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, input, m.String())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:  "clean",
			input: "torch==1.13.1\nplotly>=5.0\n",
		},
		{
			name:    "duplicate normalized names",
			input:   "opencv-python==4.5.0\nopencv_python==4.6.0\n",
			wantErr: "duplicate requirement",
		},
		{
			name:    "pin conflicts with bound",
			input:   "torch==1.13.1,<1.0\n",
			wantErr: "conflicts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			err = m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDiff(t *testing.T) {
	old, err := Parse(strings.NewReader("torch==1.12.0\nplotly>=5.0\nc3d\n"))
	require.NoError(t, err)
	updated, err := Parse(strings.NewReader("torch==1.13.1\nplotly>=5.0\nmediapipe>=0.9\n"))
	require.NoError(t, err)

	added, removed, changed := Diff(old, updated)

	require.Len(t, added, 1)
	assert.Equal(t, "mediapipe", added[0].Name)

	require.Len(t, removed, 1)
	assert.Equal(t, "c3d", removed[0].Name)

	require.Len(t, changed, 1)
	assert.Equal(t, "torch==1.12.0", changed[0].Old)
	assert.Equal(t, "torch==1.13.1", changed[0].New)
}
