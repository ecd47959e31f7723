package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/service"
)

type RewardHandler struct {
	svc service.RewardService
}

func NewRewardHandler(svc service.RewardService) *RewardHandler {
	return &RewardHandler{svc: svc}
}

type RewardResponse struct {
	ID        uint64 `json:"id"`
	FarmerUID string `json:"farmerUid"`
	Name      string `json:"name"`
	Points    int64  `json:"points"`
	Quantity  int    `json:"quantity"`
}

func toRewardResponse(p *model.RewardProduct) RewardResponse {
	return RewardResponse{
		ID:        p.ID,
		FarmerUID: p.FarmerID,
		Name:      p.Name,
		Points:    p.Points,
		Quantity:  p.Quantity,
	}
}

func (h *RewardHandler) List(c echo.Context) error {
	products, err := h.svc.List(c.Request().Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]RewardResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toRewardResponse(&products[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RewardHandler) Add(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Name     string `json:"name"`
		Points   int64  `json:"points"`
		Quantity int    `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	p, err := h.svc.Add(c.Request().Context(), uid, body.Name, body.Points, body.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toRewardResponse(p))
}

func (h *RewardHandler) Redeem(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid reward id"))
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	_ = c.Bind(&body)
	p, err := h.svc.Redeem(c.Request().Context(), uid, id, body.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toRewardResponse(p))
}
