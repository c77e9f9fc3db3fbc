package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/Alksalt/llm-social-agent/internal/config"
	"github.com/Alksalt/llm-social-agent/internal/db"
	"github.com/Alksalt/llm-social-agent/internal/ops"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	deps     *ops.Deps
	renderer *Renderer
}

// HandleQueue renders the live draft queue.
func (h *Handlers) HandleQueue(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = "default"
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	out, err := ops.Queue(r.Context(), h.db, h.cfg, h.deps, ops.QueueInput{
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "queue", QueuePageData{
		PageData: PageData{
			Title:   "Queue",
			Version: h.renderer.version,
			Nav:     "queue",
		},
		Drafts: out.Drafts,
		UserID: userID,
		Limit:  limit,
	})
}

// HandleDraft renders a single draft with its source entry.
func (h *Handlers) HandleDraft(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	draft, err := db.GetDraft(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	entry, err := db.GetEntry(h.db, draft.EntryID)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   "Draft " + draft.ID,
			Version: h.renderer.version,
			Nav:     "queue",
		},
		Draft:        draft,
		Entry:        entry,
		RenderedHTML: renderMarkdown(draft.Text),
	})
}

// HandleStatus renders the pipeline status page.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Status(r.Context(), h.db, h.cfg, h.deps)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "status", StatusPageData{
		PageData: PageData{
			Title:   "Status",
			Version: h.renderer.version,
			Nav:     "status",
		},
		Status: out,
	})
}
