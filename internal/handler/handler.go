// Package handler exposes the paper pipeline over HTTP.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/papergen/internal/export"
	"github.com/pavelanni/papergen/internal/model"
	"github.com/pavelanni/papergen/internal/paper"
	"github.com/pavelanni/papergen/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	builder *paper.Builder
}

// New creates a new Handler.
func New(s *store.Store, b *paper.Builder) *Handler {
	return &Handler{store: s, builder: b}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/papers", h.handleGeneratePaper)
	r.Get("/papers", h.handleListPapers)
	r.Get("/papers/{paperID}", h.handleGetPaper)
	r.Get("/papers/{paperID}/csv", h.handleDownloadCSV)
	r.Get("/healthz", h.handleHealth)
}

type topicRequest struct {
	MainTopic string `json:"main_topic"`
	Subtopic  string `json:"subtopic"`
}

type sectionRequest struct {
	Name          string         `json:"name"`
	QuestionCount int            `json:"question_count"`
	Distribution  map[string]int `json:"difficulty_distribution"`
	Topics        []topicRequest `json:"topics"`
}

type generatePaperRequest struct {
	PaperName string           `json:"paper_name"`
	Subject   string           `json:"subject"`
	Sections  []sectionRequest `json:"sections"`
}

// handleGeneratePaper builds a complete paper synchronously and stores it.
// Generation can take minutes on large papers; callers are expected to use
// generous timeouts.
func (h *Handler) handleGeneratePaper(w http.ResponseWriter, r *http.Request) {
	var req generatePaperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg, sections, err := convertRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.builder.BuildPaper(r.Context(), cfg, sections, nil)
	if err != nil {
		slog.Error("paper generation failed", "paper", req.PaperName, "error", err)
		http.Error(w, "paper generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.store.InsertPaper(p); err != nil {
		slog.Error("store paper", "paper_id", p.ID, "error", err)
		http.Error(w, "store paper: "+err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, p.Summary())
}

func (h *Handler) handleListPapers(w http.ResponseWriter, r *http.Request) {
	papers, err := h.store.ListPapers()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if papers == nil {
		papers = []model.PaperSummary{}
	}
	respondJSON(w, http.StatusOK, papers)
}

func (h *Handler) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	p, err := h.loadPaper(w, r)
	if p == nil || err != nil {
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	p, err := h.loadPaper(w, r)
	if p == nil || err != nil {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.ID+".csv"))
	if err := export.WriteCSV(w, p); err != nil {
		slog.Error("stream csv", "paper_id", p.ID, "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadPaper resolves the {paperID} route parameter. On failure it writes
// the error response itself and returns a nil paper.
func (h *Handler) loadPaper(w http.ResponseWriter, r *http.Request) (*model.Paper, error) {
	id := chi.URLParam(r, "paperID")
	p, err := h.store.GetPaper(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "paper not found", http.StatusNotFound)
		return nil, err
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, err
	}
	return p, nil
}

func convertRequest(req generatePaperRequest) (model.PaperConfig, []model.SectionSpec, error) {
	if req.PaperName == "" {
		return model.PaperConfig{}, nil, fmt.Errorf("paper_name is required")
	}
	if req.Subject == "" {
		return model.PaperConfig{}, nil, fmt.Errorf("subject is required")
	}
	if len(req.Sections) == 0 {
		return model.PaperConfig{}, nil, fmt.Errorf("at least one section is required")
	}

	sections := make([]model.SectionSpec, 0, len(req.Sections))
	for _, sr := range req.Sections {
		if sr.QuestionCount <= 0 {
			return model.PaperConfig{}, nil, fmt.Errorf("section %q: question_count must be positive", sr.Name)
		}
		dist := make(map[model.Difficulty]int, len(sr.Distribution))
		total := 0
		for label, n := range sr.Distribution {
			d, err := model.ParseDifficulty(label)
			if err != nil {
				return model.PaperConfig{}, nil, fmt.Errorf("section %q: %w", sr.Name, err)
			}
			dist[d] = n
			total += n
		}
		if total != sr.QuestionCount {
			return model.PaperConfig{}, nil, fmt.Errorf("section %q: distribution sums to %d, question_count is %d", sr.Name, total, sr.QuestionCount)
		}
		topics := make([]model.TopicSpec, 0, len(sr.Topics))
		for _, tr := range sr.Topics {
			topics = append(topics, model.TopicSpec{MainTopic: tr.MainTopic, Subtopic: tr.Subtopic})
		}
		sections = append(sections, model.SectionSpec{
			Name:          sr.Name,
			QuestionCount: sr.QuestionCount,
			Distribution:  dist,
			Topics:        topics,
		})
	}

	cfg := model.PaperConfig{Name: req.PaperName, Subject: req.Subject}
	return cfg, sections, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
