// Package web is the thin HTMX presentation layer over the vault, review
// session, and analytics services.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cfarrelly/memovault/internal/analytics"
	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/importer"
	"github.com/cfarrelly/memovault/internal/review"
	"github.com/cfarrelly/memovault/internal/sm2"
	"github.com/cfarrelly/memovault/internal/storage"
	"github.com/cfarrelly/memovault/internal/vault"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	db        *storage.DB
	vault     *vault.Service
	session   *review.Session
	analytics *analytics.Service
	importer  *importer.Importer
	router    *http.ServeMux
	templates *template.Template
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, vaultSvc *vault.Service, session *review.Session, analyticsSvc *analytics.Service, imp *importer.Importer) *Server {
	funcs := template.FuncMap{"join": strings.Join}
	tpl, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	s := &Server{
		db:        db,
		vault:     vaultSvc,
		session:   session,
		analytics: analyticsSvc,
		importer:  imp,
		router:    http.NewServeMux(),
		templates: tpl,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	s.router.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("/", s.handleIndex())

	// Review session flow
	s.router.HandleFunc("/review/start", s.handleReviewStart())
	s.router.HandleFunc("/review/reveal", s.handleReviewReveal())
	s.router.HandleFunc("/review/rate", s.handleReviewRate())
	s.router.HandleFunc("/review/close", s.handleReviewClose())

	// Vault items
	s.router.HandleFunc("/items", s.handleItems())
	s.router.HandleFunc("/items/", s.handleItemAction())
	s.router.HandleFunc("/search", s.handleSearch())

	// Analytics
	s.router.HandleFunc("/analytics", s.handleAnalytics())

	// Import sources
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handleSync())
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
	}
}

// handleIndex renders the dashboard page.
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := s.session.Snapshot()
		if !snap.Active {
			stats, err := s.db.DashboardStats(time.Now())
			if err != nil {
				slog.Error("loading dashboard stats", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			snap.Stats = stats
		}
		s.render(w, "index", snap)
	}
}

// handleReviewStart begins a review session and renders the review panel.
func (s *Server) handleReviewStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := s.session.Start(); err != nil {
			slog.Error("starting review session", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.render(w, "review_panel", s.session.Snapshot())
	}
}

// handleReviewReveal flips the current card and re-renders the panel.
func (s *Server) handleReviewReveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.session.Reveal()
		s.render(w, "review_panel", s.session.Snapshot())
	}
}

// handleReviewRate applies a rating to the current card.
func (s *Server) handleReviewRate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		grade, err := strconv.Atoi(r.PostFormValue("rating"))
		if err != nil {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}
		rating, err := sm2.ParseRating(grade)
		if err != nil {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}

		if err := s.session.Rate(rating); err != nil {
			slog.Error("rating card", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.render(w, "review_panel", s.session.Snapshot())
	}
}

// handleReviewClose ends the session and renders the dashboard fragment.
func (s *Server) handleReviewClose() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.session.Close()
		s.render(w, "review_panel", s.session.Snapshot())
	}
}

// handleItems lists items on GET and creates one on POST.
func (s *Server) handleItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			items, err := s.vault.List(false)
			if err != nil {
				slog.Error("listing items", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			s.render(w, "items", itemListData(items))
		case http.MethodPost:
			input := vault.CreateInput{
				Title:         r.PostFormValue("title"),
				Content:       r.PostFormValue("content"),
				KnowledgeType: r.PostFormValue("knowledge_type"),
				Tags:          splitTags(r.PostFormValue("tags")),
			}
			if _, _, err := s.vault.Create(input); err != nil {
				slog.Warn("creating item", "error", err)
				http.Error(w, "Invalid item", http.StatusBadRequest)
				return
			}
			s.renderItemList(w)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleItemAction handles POST /items/{id}/archive, /items/{id}/pin,
// /items/{id}/edit, and DELETE /items/{id}.
func (s *Server) handleItemAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/items/")
		id, action, _ := strings.Cut(rest, "/")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		if r.Method == http.MethodDelete && action == "" {
			if err := s.vault.Delete(id); err != nil {
				slog.Error("deleting item", "id", id, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			s.renderItemList(w)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var err error
		switch action {
		case "archive":
			err = s.vault.SetArchived(id, r.PostFormValue("archived") != "0")
		case "pin":
			err = s.vault.SetPinned(id, r.PostFormValue("pinned") != "0")
		case "edit":
			input := vault.CreateInput{
				Title:         r.PostFormValue("title"),
				Content:       r.PostFormValue("content"),
				KnowledgeType: r.PostFormValue("knowledge_type"),
				Tags:          splitTags(r.PostFormValue("tags")),
			}
			if _, err := s.vault.Update(id, input); err != nil {
				slog.Warn("updating item", "id", id, "error", err)
				http.Error(w, "Invalid item", http.StatusBadRequest)
				return
			}
		default:
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("item action", "id", id, "action", action, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		s.renderItemList(w)
	}
}

func (s *Server) renderItemList(w http.ResponseWriter) {
	items, err := s.vault.List(false)
	if err != nil {
		slog.Error("listing items", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.render(w, "item_list", itemListData(items))
}

// handleSearch runs a full-text query and renders the matching items.
func (s *Server) handleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.vault.Search(r.URL.Query().Get("q"))
		if err != nil {
			slog.Error("searching items", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.render(w, "item_list", itemListData(items))
	}
}

// handleAnalytics renders the analytics panel.
func (s *Server) handleAnalytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := s.analytics.Snapshot()
		if err != nil {
			slog.Error("loading analytics", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.render(w, "analytics", snap)
	}
}

// handleSources lists sources on GET and registers one on POST.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.renderSources(w, "sources")
		case http.MethodPost:
			path := strings.TrimSpace(r.PostFormValue("path"))
			if path == "" {
				http.Error(w, "Path cannot be empty", http.StatusBadRequest)
				return
			}
			if _, err := s.importer.AddSource(path); err != nil {
				slog.Error("adding source", "path", path, "error", err)
				http.Error(w, "Failed to add source", http.StatusInternalServerError)
				return
			}
			s.renderSources(w, "source_list")
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleDeleteSource removes a source registration.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/sources/"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}
		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("deleting source", "id", id, "error", err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}
		s.renderSources(w, "source_list")
	}
}

// handleSync runs the importer in the foreground and re-renders the
// source list.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := s.importer.Run(); err != nil {
			slog.Error("running import", "error", err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}
		s.renderSources(w, "source_list")
	}
}

func (s *Server) renderSources(w http.ResponseWriter, name string) {
	sources, err := s.db.Sources()
	if err != nil {
		slog.Error("listing sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.render(w, name, map[string]any{"Sources": sources})
}

func itemListData(items []domain.VaultItem) map[string]any {
	return map[string]any{
		"Items":          items,
		"KnowledgeTypes": domain.KnowledgeTypes,
	}
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
