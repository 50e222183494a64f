package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/service"
)

// DocumentsHandler manages document metadata and review.
type DocumentsHandler struct {
	documents *service.DocumentService
}

// NewDocumentsHandler constructs handler.
func NewDocumentsHandler(documentService *service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{documents: documentService}
}

// Upload handles POST /documents.
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DocumentUploadRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	doc, err := h.documents.Upload(c.UserContext(), principal, service.DocumentUploadInput{
		ClientID:     req.ClientID,
		TaskID:       req.TaskID,
		FileName:     req.FileName,
		StorageKey:   req.StorageKey,
		ContentType:  req.ContentType,
		SizeBytes:    req.SizeBytes,
		DocumentType: req.DocumentType,
	})
	if err != nil {
		return err
	}
	return respondCreated(c, documentResponse(doc))
}

// List handles GET /documents.
func (h *DocumentsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.DocumentListFilter{
		ClientID: queryString(c, "client_id"),
		TaskID:   queryString(c, "task_id"),
	}
	if raw := queryString(c, "status"); raw != nil {
		status := domain.DocumentStatus(strings.ToUpper(*raw))
		filter.Status = &status
	}
	filter.Limit, filter.Offset = pagination(c)

	docs, err := h.documents.List(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return respond(c, mapSlice(docs, documentResponse))
}

// Get handles GET /documents/:id.
func (h *DocumentsHandler) Get(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	doc, err := h.documents.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, documentResponse(doc))
}

// Verify handles POST /documents/:id/verify.
func (h *DocumentsHandler) Verify(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	doc, err := h.documents.Verify(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, documentResponse(doc))
}

// Reject handles POST /documents/:id/reject.
func (h *DocumentsHandler) Reject(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DocumentRejectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	doc, err := h.documents.Reject(c.UserContext(), principal, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return respond(c, documentResponse(doc))
}

// Reset handles POST /documents/:id/reset.
func (h *DocumentsHandler) Reset(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	doc, err := h.documents.Reset(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, documentResponse(doc))
}

// Delete handles DELETE /documents/:id.
func (h *DocumentsHandler) Delete(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.documents.Delete(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
