package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

//go:embed static/*
var staticFS embed.FS

const sessionName = "sqlsift"

// maxBodyBytes caps request bodies. Templates are text; 1 MiB is plenty.
const maxBodyBytes = 1 << 20

type analyzeRequest struct {
	Template string         `json:"template"`
	Vars     map[string]any `json:"variables"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze runs the full analysis and remembers the template in the
// session so the page can restore it on reload.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	report := s.analyzer.Analyze(r.Context(), req.Template, req.Vars)

	session, _ := s.sessionStore.Get(r, sessionName)
	session.Values["template"] = req.Template
	if err := session.Save(r, w); err != nil {
		s.logger.Debug("failed to save session", "error", err)
	}

	writeJSON(w, http.StatusOK, report)
}

// handleRender substitutes variables without reducing. Unlike analyze,
// missing variables are an error here.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	result := s.analyzer.RenderOnly(r.Context(), req.Template, req.Vars)
	writeJSON(w, http.StatusOK, result)
}

// handleGetTemplate returns the session's last analyzed template.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessionStore.Get(r, sessionName)

	template := ""
	if v, ok := session.Values["template"].(string); ok {
		template = v
	}

	writeJSON(w, http.StatusOK, map[string]string{"template": template})
}

// handleHistory lists recent recorded runs.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "runs": runs})
}

// handleEvents streams a server-sent event whenever a watched template
// changes, so the page can re-run its analysis.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			_, _ = fmt.Fprint(w, "event: change\ndata: {}\n\n")
			flusher.Flush()
		}
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (analyzeRequest, bool) {
	var req analyzeRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	if req.Template == "" {
		writeError(w, http.StatusBadRequest, "template is required")
		return req, false
	}

	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
