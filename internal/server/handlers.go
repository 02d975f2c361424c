// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	analyzer "github.com/kamisoel/gait-analyzer"
	"github.com/kamisoel/gait-analyzer/internal/figures"
	"github.com/kamisoel/gait-analyzer/internal/store"
	"github.com/kamisoel/gait-analyzer/pkg/estimate"
	"github.com/kamisoel/gait-analyzer/pkg/pose"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// handleUpload accepts a multipart video upload and stores it under a
// fresh token directory. The token is the handle for starting analyses.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Uploads.MaxBytes)

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("missing video file"))
		return
	}
	defer file.Close()

	token := uuid.NewString()
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload.mp4"
	}
	dir := filepath.Join(s.cfg.UploadDir(), token)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	size, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.RemoveAll(dir)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	recordUpload(size)
	s.log.Info().Str("upload", token).Str("file", name).Int64("bytes", size).Msg("upload accepted")

	resp := map[string]any{
		"upload": token + "/" + name,
		"bytes":  size,
	}
	// Metadata is best-effort; ffprobe may be absent or the file opaque.
	if meta, err := s.prober.Probe(r.Context(), filepath.Join(dir, name)); err == nil {
		resp["duration_s"] = meta.Duration
		resp["fps"] = meta.FPS
	} else {
		s.log.Debug().Err(err).Str("upload", token).Msg("probe failed")
	}
	writeJSON(w, http.StatusCreated, resp)
}

type analysisRequest struct {
	Upload   string  `json:"upload"`    // "<token>/<file>" from the upload endpoint
	StartSec float64 `json:"start_sec"` // optional clip bounds
	EndSec   float64 `json:"end_sec"`
}

// handleCreateAnalysis starts an asynchronous analysis of an uploaded video.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	videoPath, err := s.resolveUpload(req.Upload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := uuid.NewString()
	rec, err := s.store.Create(r.Context(), id, req.Upload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.jobs.Add(1)
	go s.runAnalysis(id, videoPath, estimate.Options{StartSec: req.StartSec, EndSec: req.EndSec})

	writeJSON(w, http.StatusAccepted, rec)
}

// resolveUpload maps an upload handle to a path inside the upload dir,
// rejecting traversal.
func (s *Server) resolveUpload(upload string) (string, error) {
	if upload == "" {
		return "", errors.New("missing upload")
	}
	cleaned := filepath.Clean(upload)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", errors.New("invalid upload handle")
	}
	path := filepath.Join(s.cfg.UploadDir(), cleaned)
	if _, err := os.Stat(path); err != nil {
		return "", errors.New("upload not found")
	}
	return path, nil
}

func (s *Server) runAnalysis(id, videoPath string, opts estimate.Options) {
	defer s.jobs.Done()
	ctx := context.Background()
	start := time.Now()

	if err := s.store.SetStatus(ctx, id, store.StatusRunning, ""); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("marking analysis running")
		return
	}

	res, err := s.analyzer.AnalyzeVideo(ctx, videoPath, opts)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("analysis failed")
		recordAnalysis(time.Since(start), store.StatusFailed)
		if serr := s.store.SetStatus(ctx, id, store.StatusFailed, err.Error()); serr != nil {
			s.log.Error().Err(serr).Str("id", id).Msg("marking analysis failed")
		}
		return
	}

	if err := s.store.SetResult(ctx, id, res.Summarize(), res); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("storing result")
		return
	}
	recordAnalysis(time.Since(start), store.StatusDone)
	s.log.Info().Str("id", id).Dur("duration", time.Since(start)).Msg("analysis done")
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFigure renders one of the plotly figures from a stored result.
func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	blob, err := s.store.GetResult(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var res analyzer.Result
	if err := json.Unmarshal(blob, &res); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var fig *figures.Figure
	switch kind := chi.URLParam(r, "kind"); kind {
	case "pose":
		fig = figures.SkeletonFigure(res.Pose)
	case "angles":
		fig = figures.AngleFigure(res.Angles, res.Cycles[pose.Right])
	case "stride":
		fig = figures.StrideFigure(res.Strides[pose.Right], res.Strides[pose.Left], nil)
	case "phasespace":
		trajs, perr := res.PhaseSpace(0)
		if perr != nil {
			writeError(w, http.StatusInternalServerError, perr)
			return
		}
		fig = figures.PhaseSpaceFigure(trajs)
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown figure kind "+kind))
		return
	}
	writeJSON(w, http.StatusOK, fig)
}
