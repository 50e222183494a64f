package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/backoffice/internal/service"
)

// CatalogHandler serves the read-only service catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService}
}

// Tree handles GET /catalog.
func (h *CatalogHandler) Tree(c *fiber.Ctx) error {
	return respond(c, catalogResponse(h.catalog.Tree()))
}

// Item handles GET /catalog/items/:id.
func (h *CatalogHandler) Item(c *fiber.Ctx) error {
	item, err := h.catalog.GetItem(c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, catalogItemResponse(item))
}
