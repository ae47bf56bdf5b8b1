package handler

import (
	"net/http"
	"strconv"

	"bookvault/internal/http/response"
	"bookvault/internal/service"
)

type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns recent audit entries, newest first. Paging is limit/offset;
// the repository clamps out-of-range limits.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	entries, err := h.audit.List(limit, offset)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not list audit trail", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, entries)
}
