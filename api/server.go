// Package api exposes the analysis pipeline and chat service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/marchepublic/ao-agent/chat"
	"github.com/marchepublic/ao-agent/config"
	"github.com/marchepublic/ao-agent/llm"
	"github.com/marchepublic/ao-agent/memory"
	"github.com/marchepublic/ao-agent/pipeline"
	"github.com/marchepublic/ao-agent/session"
)

const maxUploadBytes = 64 << 20

// Analyzer runs a full consultation analysis.
type Analyzer interface {
	Analyze(ctx context.Context, runID string, paths []string) (*pipeline.Run, error)
}

// Chatter answers a question inside a run's context.
type Chatter interface {
	Ask(ctx context.Context, runID, question string, history []llm.Message) (chat.Response, []llm.Message, error)
}

// RunDeleter removes run data from a side channel (index, graph). Optional.
type RunDeleter interface {
	DeleteRun(ctx context.Context, runID string) error
}

// Server routes HTTP requests to the wired services.
type Server struct {
	cfg      config.Config
	logger   *log.Logger
	handler  http.Handler
	analyzer Analyzer
	chatter  Chatter
	store    *session.Store
	deleters []RunDeleter
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type analyzeResponse struct {
	RunID     string   `json:"run_id"`
	Documents []string `json:"documents"`
	Types     []string `json:"types"`
	Summary   string   `json:"summary"`
}

type chatRequest struct {
	RunID    string        `json:"run_id"`
	Question string        `json:"question"`
	History  []llm.Message `json:"history"`
}

type chatResponse struct {
	Answer  string        `json:"answer"`
	Sources []chat.Source `json:"sources"`
	History []llm.Message `json:"history"`
}

type runDetail struct {
	session.RunInfo
	Summary string                   `json:"summary,omitempty"`
	Records []session.DocumentRecord `json:"records"`
}

func New(cfg config.Config, analyzer Analyzer, chatter Chatter, store *session.Store, logger *log.Logger, deleters ...RunDeleter) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		analyzer: analyzer,
		chatter:  chatter,
		store:    store,
		deleters: deleters,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/v1/chat", s.handleChat)
	mux.HandleFunc("/v1/runs", s.handleRuns)
	mux.HandleFunc("/v1/runs/", s.handleRun)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("at least one file is required"))
		return
	}

	staging, err := os.MkdirTemp("", "ao-upload-*")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("create staging directory: %w", err))
		return
	}
	defer os.RemoveAll(staging)

	paths := make([]string, 0, len(files))
	for _, header := range files {
		path, err := saveUpload(staging, header)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("save %s: %w", header.Filename, err))
			return
		}
		paths = append(paths, path)
	}

	run, err := s.analyzer.Analyze(r.Context(), "", paths)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("analyze: %w", err))
		return
	}

	resp := analyzeResponse{RunID: run.ID, Summary: run.Summary}
	for _, rec := range run.Records {
		resp.Documents = append(resp.Documents, rec.Name)
		resp.Types = append(resp.Types, rec.Type.Label())
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}
	if strings.TrimSpace(req.RunID) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("run_id is required"))
		return
	}

	resp, history, err := s.chatter.Ask(r.Context(), req.RunID, req.Question, req.History)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("chat: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{
		Answer:  resp.Answer,
		Sources: resp.Sources,
		History: history,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	runs, err := s.store.Runs()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("list runs: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	runID, resource, _ := strings.Cut(rest, "/")
	if runID == "" {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("run id is required"))
		return
	}

	switch {
	case resource == "" && r.Method == http.MethodGet:
		s.serveRunDetail(w, runID)
	case resource == "" && r.Method == http.MethodDelete:
		s.deleteRun(w, r, runID)
	case resource == "memory.md" && r.Method == http.MethodGet:
		s.serveMemoryMarkdown(w, runID)
	default:
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown resource"))
	}
}

func (s *Server) serveRunDetail(w http.ResponseWriter, runID string) {
	records, err := s.store.LoadAnalyses(runID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("load analyses: %w", err))
		return
	}
	if _, err := os.Stat(s.store.RunDir(runID)); err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("run %s not found", runID))
		return
	}

	detail := runDetail{Records: records}
	detail.ID = runID
	detail.Documents = len(records)
	if info, err := os.Stat(s.store.RunDir(runID)); err == nil {
		detail.UpdatedAt = info.ModTime()
	}
	if summary, err := s.store.LoadSummary(runID); err == nil {
		detail.Summary = summary
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) serveMemoryMarkdown(w http.ResponseWriter, runID string) {
	mem, err := s.store.LoadMemory(runID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("memory for run %s not found", runID))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "memoire_technique_"+runID+".md"))
	_, _ = io.WriteString(w, memory.RenderMarkdown(mem))
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request, runID string) {
	if _, err := os.Stat(s.store.RunDir(runID)); err != nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("run %s not found", runID))
		return
	}
	if err := s.store.DeleteRun(runID); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("delete run: %w", err))
		return
	}
	for _, deleter := range s.deleters {
		if deleter == nil {
			continue
		}
		if err := deleter.DeleteRun(r.Context(), runID); err != nil {
			s.logger.Printf("delete run %s side channel: %v", runID, err)
		}
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "run deleted"})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}

func saveUpload(dir string, header *multipart.FileHeader) (string, error) {
	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename")
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write staged file: %w", err)
	}
	return path, dst.Close()
}
