package waitlist

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Rocketman2178/kairo-platform/internal/tenancy"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// Handler serves the staff-facing waitlist views.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a waitlist handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("waitlist: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListForSession handles GET /admin/sessions/{sessionID}/waitlist.
func (h *Handler) ListForSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}

	orgID, _ := tenancy.OrgIDFromContext(r.Context())
	if orgID == "" {
		orgID = r.URL.Query().Get("orgId")
	}

	entries, err := h.repo.ListForSession(r.Context(), orgID, sessionID)
	if err != nil {
		h.logger.Error("failed to list waitlist entries", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to list waitlist", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"sessionId": sessionID,
		"count":     len(entries),
		"entries":   entries,
	}); err != nil {
		h.logger.Error("failed to write waitlist response", "error", err)
	}
}
