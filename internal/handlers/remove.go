package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/stockroom-dev/stockroom/internal/catalog"
	"github.com/stockroom-dev/stockroom/internal/selection"
)

// HandleRemoveOffer opens a removal selection: the current products (sorted
// by id, capped at 25) are offered and a session id is returned for the
// follow-up choice.
func (h *Handler) HandleRemoveOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.requireRole(w, r) {
		return
	}

	// Opportunistic cleanup of abandoned sessions.
	h.selections.Purge()

	products, err := h.service.List()
	if err != nil {
		h.writeError(w, "Failed to load products: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(products) == 0 {
		h.writeError(w, "The store is currently empty", http.StatusNotFound)
		return
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	truncated := len(products) > selection.MaxCandidates

	session := selection.New(products, selection.DefaultTimeout)
	sessionID := fmt.Sprintf("remove_%d", time.Now().UnixNano())
	h.selections.Set(sessionID, session)

	response := map[string]any{
		"session_id": sessionID,
		"candidates": session.Candidates(),
		"truncated":  truncated,
	}
	if truncated {
		response["note"] = fmt.Sprintf("Only the first %d products are shown. Remove others by id via DELETE /api/products/{id}.", selection.MaxCandidates)
	}

	h.writeJSON(w, response)
}

// HandleSelection resolves a pending removal selection with exactly one
// choice. The session is consumed whatever the outcome.
func (h *Handler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.requireRole(w, r) {
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/api/selections/")
	session, exists := h.selections.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	var request struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, ok := session.Choose(request.ID)
	if !ok {
		// Already consumed: single-use sessions make repeat choices no-ops.
		h.writeError(w, "Session already resolved", http.StatusConflict)
		return
	}
	h.selections.Delete(sessionID)

	switch result.Outcome {
	case selection.OutcomeExpired:
		h.writeJSON(w, map[string]any{"outcome": result.Outcome})
	case selection.OutcomeNotFound:
		h.writeJSON(w, map[string]any{"outcome": result.Outcome})
	case selection.OutcomeResolved:
		removal, err := h.service.Remove(r.Context(), result.Product.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			// Removed concurrently between offer and choice.
			h.writeJSON(w, map[string]any{"outcome": selection.OutcomeNotFound})
			return
		}
		if err != nil {
			h.writeError(w, "Failed to remove product: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, map[string]any{
			"outcome": result.Outcome,
			"product": removal.Product,
			"mirror":  removal.Mirror,
		})
	}
}
