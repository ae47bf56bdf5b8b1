package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookvault/internal/http/response"
	"bookvault/internal/service"
)

// ShortURLHandler redirects short links to their targets. It sits outside
// the session guard because reset links are followed by logged-out users.
type ShortURLHandler struct {
	shortener *service.URLShortener
}

func NewShortURLHandler(shortener *service.URLShortener) *ShortURLHandler {
	return &ShortURLHandler{shortener: shortener}
}

func (h *ShortURLHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	target, err := h.shortener.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrShortLinkGone) {
			response.Error(w, r, http.StatusNotFound, "LINK_GONE", "This link is invalid, expired, or has already been used.", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not resolve link", nil)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
