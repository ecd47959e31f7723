package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/greenbasket/plantfuture-backend/internal/service"
)

type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) List(c echo.Context) error {
	types, err := h.svc.List(c.Request().Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]map[string]interface{}, 0, len(types))
	for _, tt := range types {
		resp = append(resp, map[string]interface{}{
			"id":               tt.ID,
			"name":             tt.Name,
			"price":            tt.Price.StringFixed(2),
			"investmentReturn": tt.InvestmentReturn.StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
