package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bookvault/internal/domain"
	"bookvault/internal/http/response"
	"bookvault/internal/repository"
	"bookvault/internal/service"
)

// BookHandler is the gated CRUD surface. Every mutation gets an audit entry
// with JSON snapshots of the record before and after.
type BookHandler struct {
	books repository.BookRepository
	audit *service.AuditService
}

func NewBookHandler(books repository.BookRepository, audit *service.AuditService) *BookHandler {
	return &BookHandler{books: books, audit: audit}
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not list books", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, books)
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	book, err := h.books.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not load book", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, book)
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var book domain.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if book.Title == "" || book.Author == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "Title and author are required.", nil)
		return
	}
	book.ID = 0
	if err := h.books.Create(&book); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not create book", nil)
		return
	}

	h.audit.Log(r.Context(), "Create Book",
		service.WithNewValue(snapshot(&book)),
		service.WithDescription(fmt.Sprintf("Book '%s' created.", book.Title)),
	)
	response.JSON(w, r, http.StatusCreated, book)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	existing, err := h.books.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not load book", nil)
		return
	}
	before := snapshot(existing)

	var incoming domain.Book
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if incoming.Title == "" || incoming.Author == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "Title and author are required.", nil)
		return
	}

	existing.Title = incoming.Title
	existing.Author = incoming.Author
	existing.Genre = incoming.Genre
	existing.PublishedAt = incoming.PublishedAt
	if err := h.books.Update(existing); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not update book", nil)
		return
	}

	h.audit.Log(r.Context(), "Edit Book",
		service.WithOldValue(before),
		service.WithNewValue(snapshot(existing)),
		service.WithDescription(fmt.Sprintf("Book '%s' updated.", existing.Title)),
	)
	response.JSON(w, r, http.StatusOK, existing)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	existing, err := h.books.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not load book", nil)
		return
	}

	if err := h.books.Delete(id); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not delete book", nil)
		return
	}

	h.audit.Log(r.Context(), "Delete Book",
		service.WithOldValue(snapshot(existing)),
		service.WithDescription(fmt.Sprintf("Book '%s' deleted.", existing.Title)),
	)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Book deleted."})
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

func snapshot(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
