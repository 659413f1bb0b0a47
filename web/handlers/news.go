package handlers

import (
	"net/http"

	"github.com/theogognf/toi/pkg/types"
)

// NewsHandler serves headlines and the short links they point at.
type NewsHandler struct {
	news Headlines
}

// NewNewsHandler creates a new NewsHandler instance.
func NewNewsHandler(news Headlines) *NewsHandler {
	return &NewsHandler{news: news}
}

// Latest handles POST /news.
func (h *NewsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	var req types.NewsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	items, err := h.news.Latest(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, items)
}

// Redirect handles GET /news/{alias}.
func (h *NewsHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	url, err := h.news.Resolve(r.Context(), r.PathValue("alias"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
