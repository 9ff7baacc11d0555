package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/stockroom-dev/stockroom/internal/catalog"
)

func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		products, err := h.service.List()
		if err != nil {
			h.writeError(w, "Failed to load products: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, products)
	case "POST":
		h.handleAdd(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r) {
		return
	}

	var request struct {
		Name     string `json:"name"`
		Price    string `json:"price"`
		Category string `json:"category"`
		Image    string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Name == "" {
		h.writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Add(r.Context(), catalog.AddInput{
		Name:     request.Name,
		Price:    request.Price,
		Category: request.Category,
		Image:    request.Image,
	})
	if err != nil {
		// Local persistence is the authority: nothing was saved.
		h.writeError(w, "Failed to save product: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	h.writeJSON(w, result)
}

func (h *Handler) HandleProductDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/products/")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		h.writeError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "DELETE":
		if !h.requireRole(w, r) {
			return
		}
		result, err := h.service.Remove(r.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			h.writeError(w, "Product not found", http.StatusNotFound)
			return
		}
		if err != nil {
			h.writeError(w, "Failed to remove product: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, result)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	categories, err := h.service.Categories(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, "Failed to load categories: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, categories)
}
