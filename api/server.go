// Package api exposes the REST surface: proposal CRUD, knowledge uploads,
// and the RFP parsing / sequential generation endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bigshift-projects/naraworks/engine"
	"github.com/bigshift-projects/naraworks/extract"
	"github.com/bigshift-projects/naraworks/proposal"
)

const maxUploadBytes = 32 << 20

// GenerationRunner runs one sequential generation pass. Satisfied by
// *engine.Engine.
type GenerationRunner interface {
	Run(ctx context.Context, in engine.Input) (string, error)
}

// SectionDrafter writes a standalone section from its title. Satisfied by
// *writer.Writer.
type SectionDrafter interface {
	Draft(ctx context.Context, title string) (string, error)
}

// RFPAnalyzer extracts structured data from RFP page text. Satisfied by
// *analyze.Analyzer.
type RFPAnalyzer interface {
	Overview(ctx context.Context, text string) proposal.Overview
	TOC(ctx context.Context, text string) proposal.TOC
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Proposals proposal.Store
	Knowledge proposal.KnowledgeStore
	Analyzer  RFPAnalyzer
	Drafter   SectionDrafter
	Runner    GenerationRunner
}

type Server struct {
	deps    Deps
	logger  *log.Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type createProposalRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

type updateProposalRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type knowledgeItem struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	ContentPreview string `json:"content_preview"`
	CreatedAt      string `json:"created_at"`
}

type parseRFPResponse struct {
	Overview proposal.Overview `json:"overview"`
	TOC      proposal.TOC      `json:"toc"`
	RFPText  string            `json:"rfp_text"`
}

type generationRequest struct {
	Title    string          `json:"title"`
	Overview json.RawMessage `json:"overview"`
	TOC      proposal.TOC    `json:"toc"`
	RFPText  string          `json:"rfp_text"`
	UserID   string          `json:"user_id"`
}

type sectionGenerationRequest struct {
	SectionTitle string `json:"section_title"`
}

type sectionGenerationResponse struct {
	Content string `json:"content"`
}

// New constructs a Server that serves the HTTP API with the provided
// collaborators.
func New(deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{deps: deps, logger: logger}
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
	mux.HandleFunc("/api/proposals", s.handleProposals)
	mux.HandleFunc("/api/proposals/", s.handleProposalByID)
	mux.HandleFunc("/api/knowledge", s.handleKnowledgeList)
	mux.HandleFunc("/api/knowledge/upload", s.handleKnowledgeUpload)
	mux.HandleFunc("/api/generation/parse-rfp", s.handleParseRFP)
	mux.HandleFunc("/api/generation/generate-sequential", s.handleGenerateSequential)
	mux.HandleFunc("/api/generation/", s.handleGenerateSection)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleProposals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		proposals, err := s.deps.Proposals.List(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("list proposals: %w", err))
			return
		}
		s.writeJSON(w, http.StatusOK, proposals)

	case http.MethodPost:
		var req createProposalRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("title is required"))
			return
		}

		created, err := s.deps.Proposals.Create(r.Context(), proposal.Proposal{
			Title:   req.Title,
			Content: req.Content,
			UserID:  req.UserID,
		})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("create proposal: %w", err))
			return
		}
		s.writeJSON(w, http.StatusCreated, created)

	default:
		s.methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleProposalByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/proposals/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.deps.Proposals.Get(r.Context(), id)
		if err != nil {
			s.writeStoreError(w, err, "fetch proposal")
			return
		}
		s.writeJSON(w, http.StatusOK, p)

	case http.MethodPut:
		var req updateProposalRequest
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}

		updated, err := s.deps.Proposals.Update(r.Context(), id, proposal.Update{
			Title:   req.Title,
			Content: req.Content,
		})
		if err != nil {
			s.writeStoreError(w, err, "update proposal")
			return
		}
		s.writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.deps.Proposals.Delete(r.Context(), id); err != nil {
			s.writeStoreError(w, err, "delete proposal")
			return
		}
		s.writeJSON(w, http.StatusOK, messageResponse{Message: "deleted"})

	default:
		s.methodNotAllowed(w, "GET, PUT, DELETE")
	}
}

func (s *Server) handleKnowledgeList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	items, err := s.deps.Knowledge.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("list knowledge: %w", err))
		return
	}

	converted := make([]knowledgeItem, len(items))
	for i, item := range items {
		converted[i] = toKnowledgeItem(item)
	}
	s.writeJSON(w, http.StatusOK, converted)
}

func (s *Server) handleKnowledgeUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	file, header, err := s.formFile(r, "file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	content := ""
	if strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		pages, err := extract.Pages(data)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("extract pdf text: %w", err))
			return
		}
		content = extract.FullText(pages)
	} else {
		content = string(data)
	}

	if strings.TrimSpace(content) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("could not extract text from file"))
		return
	}

	item, err := s.deps.Knowledge.Insert(r.Context(), header.Filename, content)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("store knowledge: %w", err))
		return
	}

	s.writeJSON(w, http.StatusCreated, toKnowledgeItem(item))
}

func (s *Server) handleParseRFP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	file, _, err := s.formFile(r, "rfp")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	pages, err := extract.Pages(data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("extract pdf text: %w", err))
		return
	}
	if len(pages) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("could not extract text from uploaded PDF"))
		return
	}

	ctx := r.Context()

	overviewPages := extract.OverviewCandidates(pages, extract.DefaultOverviewLimit)
	overview := s.deps.Analyzer.Overview(ctx, extract.FullText(overviewPages))

	tocPages := extract.TOCCandidates(pages)
	if len(tocPages) == 0 {
		tocPages = extract.TOCFallback(pages)
	}
	toc := s.deps.Analyzer.TOC(ctx, extract.FullText(tocPages))

	s.writeJSON(w, http.StatusOK, parseRFPResponse{
		Overview: overview,
		TOC:      toc,
		RFPText:  extract.FullText(pages),
	})
}

func (s *Server) handleGenerateSequential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req generationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("title is required"))
		return
	}

	overview := parseOverview(req.Overview)

	created, err := s.deps.Proposals.Create(r.Context(), proposal.Proposal{
		Title:    req.Title,
		TOC:      req.TOC,
		Overview: &overview,
		Status:   proposal.StatusGeneratingSections,
		UserID:   req.UserID,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("create proposal: %w", err))
		return
	}

	// Fire and forget: the run outlives this request and checkpoints its
	// own progress.
	input := engine.Input{
		ProjectID: created.ID,
		Overview:  overview,
		TOC:       req.TOC,
		RFPText:   req.RFPText,
	}
	go func() {
		if _, err := s.deps.Runner.Run(context.Background(), input); err != nil {
			s.logger.Printf("generation run failed for proposal %s: %v", input.ProjectID, err)
		}
	}()

	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGenerateSection(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/generation/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "generate-section" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req sectionGenerationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.SectionTitle) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("section_title is required"))
		return
	}

	content, err := s.deps.Drafter.Draft(r.Context(), req.SectionTitle)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("generate section: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, sectionGenerationResponse{Content: content})
}

func (s *Server) formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("missing form file %q: %w", field, err)
	}
	return file, header, nil
}

// parseOverview decodes request overview JSON; unparsable input is kept
// verbatim as the summary so it still reaches prompts as raw context.
func parseOverview(raw json.RawMessage) proposal.Overview {
	if len(raw) == 0 {
		return proposal.Overview{}
	}
	var overview proposal.Overview
	if err := json.Unmarshal(raw, &overview); err != nil {
		return proposal.Overview{Summary: string(raw)}
	}
	return overview
}

func toKnowledgeItem(item proposal.Knowledge) knowledgeItem {
	return knowledgeItem{
		ID:             item.ID,
		Filename:       item.Filename,
		ContentPreview: contentPreview(item.Content),
		CreatedAt:      item.CreatedAt.Format(time.RFC3339),
	}
}

func contentPreview(content string) string {
	runes := []rune(content)
	if len(runes) <= 100 {
		return content
	}
	return string(runes[:100]) + "..."
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, proposal.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, fmt.Errorf("%s: %w", op, err))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
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
