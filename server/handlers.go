package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"copymatch/checker"
	"copymatch/highlight"
	"copymatch/ingest"
	"copymatch/logger"
	"copymatch/store"
	"copymatch/types"
)

const defaultMaxUpload = 20 << 20

func (s *Server) uploadLimit() int64 {
	if s.maxUpload > 0 {
		return s.maxUpload
	}
	return defaultMaxUpload
}

// handleCheck serves the multipart comparison form: mode, fileA, fileB or textB
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.uploadLimit() {
		writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())
	if err := r.ParseMultipartForm(s.uploadLimit()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	mode := strings.ToLower(strings.TrimSpace(r.FormValue("mode")))
	if mode == "" {
		mode = types.ModeLocal
	}
	if mode != types.ModeLocal {
		writeError(w, r, http.StatusBadRequest, "mode must be 'local'")
		return
	}

	nameA, textA, okA := readUpload(r, "fileA")
	nameB, textB, okB := readUpload(r, "fileB")
	inlineB := r.FormValue("textB")
	if !okA || (!okB && strings.TrimSpace(inlineB) == "") {
		writeError(w, r, http.StatusBadRequest, "local mode requires fileA and fileB or textB")
		return
	}
	if !okB || strings.TrimSpace(textB) == "" {
		nameB, textB = "", inlineB
	}

	report, err := s.checker.Check(r.Context(), checker.Request{
		TextA:     textA,
		TextB:     textB,
		NameA:     nameA,
		NameB:     nameB,
		Transport: "http",
	})
	if err != nil {
		s.writeCheckError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// readUpload decodes one uploaded document. ok is false when the field is absent.
func readUpload(r *http.Request, field string) (name, text string, ok bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Warn("server: failed to read %s: %v", field, err)
		return "", "", false
	}
	return header.Filename, ingest.Decode(header.Filename, data), true
}

func (s *Server) writeCheckError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checker.ErrMissingDocument):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ingest.ErrTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, "comparison cancelled")
	default:
		logger.Error("server: check failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "comparison failed")
	}
}

type highlightsRequest struct {
	TextA   string          `json:"textA"`
	TextB   string          `json:"textB"`
	Score   float64         `json:"score"`
	Matches json.RawMessage `json:"matches"`
}

type highlightsResponse struct {
	*highlight.Result
	DroppedMatches int `json:"droppedMatches"`
}

// handleHighlights runs only the highlight pipeline over caller-supplied raw matches
func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())

	var req highlightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var matches []highlight.RawMatch
	dropped := 0
	if len(req.Matches) > 0 && string(req.Matches) != "null" {
		var err error
		matches, dropped, err = highlight.ParseRawMatches(req.Matches)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	res := s.checker.Refine(req.TextA, req.TextB, matches, req.Score)
	writeJSON(w, r, http.StatusOK, highlightsResponse{Result: res, DroppedMatches: dropped})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.checker.Report(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		logger.Error("server: report lookup failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "report lookup failed")
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	ids, err := s.checker.ReportIDs()
	if err != nil {
		logger.Error("server: %v", err)
		writeError(w, r, http.StatusInternalServerError, "report listing failed")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	err := s.checker.DeleteReport(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		logger.Error("server: report delete failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "report delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "engine": s.checker.EngineName()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.checker.Counters().Snapshot())
}
