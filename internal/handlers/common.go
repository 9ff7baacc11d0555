package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/stockroom-dev/stockroom/internal/assets"
	"github.com/stockroom-dev/stockroom/internal/catalog"
	"github.com/stockroom-dev/stockroom/internal/config"
	"github.com/stockroom-dev/stockroom/internal/mirror"
	"github.com/stockroom-dev/stockroom/internal/selection"
)

type Handler struct {
	cfg        config.Config
	service    *catalog.Service
	ingestor   *assets.Ingestor
	selections *selection.Store
}

func New(cfg config.Config) *Handler {
	store := catalog.NewStore(cfg.SnapshotPath)
	client := mirror.New(cfg)
	return &Handler{
		cfg:        cfg,
		service:    catalog.NewService(store, client),
		ingestor:   assets.NewIngestor(cfg.AssetDir, client, client.RawURL),
		selections: selection.NewStore(),
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// requireRole gates mutating endpoints on the configured role allow-list.
// Role IDs arrive from the upstream gateway in the X-Role-IDs header.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request) bool {
	var roleIDs []int64
	for _, part := range strings.Split(r.Header.Get("X-Role-IDs"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		roleIDs = append(roleIDs, id)
	}

	if !h.cfg.RoleAllowed(roleIDs) {
		h.writeError(w, "You don't have permission to use this command", http.StatusForbidden)
		return false
	}
	return true
}
