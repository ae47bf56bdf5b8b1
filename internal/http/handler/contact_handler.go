package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"bookvault/internal/domain"
	"bookvault/internal/http/response"
	"bookvault/internal/repository"
	"bookvault/internal/service"
)

type ContactHandler struct {
	contacts repository.ContactRepository
	audit    *service.AuditService
}

func NewContactHandler(contacts repository.ContactRepository, audit *service.AuditService) *ContactHandler {
	return &ContactHandler{contacts: contacts, audit: audit}
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var msg domain.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(msg.FirstName) == "" || strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "First name, email, and message are required.", nil)
		return
	}

	msg.ID = 0
	if err := h.contacts.Create(&msg); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not save message", nil)
		return
	}
	h.audit.Log(r.Context(), "Contact Message",
		service.WithDescription("Contact message received from "+msg.Email+"."),
	)
	response.JSON(w, r, http.StatusCreated, msg)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.contacts.List()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not list messages", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, messages)
}
