package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/service"
)

type TreeHandler struct {
	svc    service.TreeService
	growth service.GrowthConfig
}

func NewTreeHandler(svc service.TreeService, growth service.GrowthConfig) *TreeHandler {
	return &TreeHandler{svc: svc, growth: growth}
}

type TreeResponse struct {
	ID                   uint64  `json:"id"`
	Type                 string  `json:"type"`
	CustomerUID          string  `json:"customerUid"`
	FarmerUID            string  `json:"farmerUid"`
	DeviceID             *string `json:"deviceId,omitempty"`
	Phase                string  `json:"phase"`
	Health               int     `json:"health"`
	Watered              bool    `json:"watered"`
	Fertilized           bool    `json:"fertilized"`
	PlantedOn            string  `json:"plantedOn"`
	TimeRemainingSeconds int64   `json:"timeRemainingSeconds"`
	Ready                bool    `json:"ready"`
	KillReason           string  `json:"killReason,omitempty"`
}

func toTreeResponse(t *model.Tree, timeRemaining time.Duration, ready bool) TreeResponse {
	return TreeResponse{
		ID:                   t.ID,
		Type:                 t.TypeID,
		CustomerUID:          t.CustomerID,
		FarmerUID:            t.FarmerID,
		DeviceID:             t.DeviceID,
		Phase:                string(t.Phase),
		Health:               t.Health,
		Watered:              t.Watered,
		Fertilized:           t.Fertilized,
		PlantedOn:            t.PlantedOn.Format(time.RFC3339),
		TimeRemainingSeconds: int64(timeRemaining / time.Second),
		Ready:                ready,
		KillReason:           t.KillReason,
	}
}

func toTreeViewResponse(v *service.TreeView) TreeResponse {
	return toTreeResponse(&v.Tree, v.TimeRemaining, v.Ready)
}

// respondTree renders a mutated tree with its countdown recomputed from
// planted_on, so mutation responses carry the same derived state as reads.
func (h *TreeHandler) respondTree(c echo.Context, status int, t *model.Tree) error {
	if t.Phase == model.PhaseDead {
		return c.JSON(status, toTreeResponse(t, 0, false))
	}
	rem := t.TimeRemaining(time.Now(), h.growth.PhaseDuration)
	ready := t.Watered && t.Fertilized && rem == 0
	return c.JSON(status, toTreeResponse(t, rem, ready))
}

func (h *TreeHandler) Plant(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Type          string `json:"type"`
		FarmerUID     string `json:"farmerUid"`
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if body.Type == "" || body.FarmerUID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "type and farmerUid are required"))
	}
	if body.PaymentMethod == "" {
		body.PaymentMethod = string(model.UnitBalance)
	}
	t, err := h.svc.Plant(c.Request().Context(), service.PlantParams{
		CustomerID:    uid,
		FarmerID:      body.FarmerUID,
		TypeID:        body.Type,
		PaymentMethod: model.LedgerUnit(body.PaymentMethod),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return h.respondTree(c, http.StatusCreated, t)
}

func (h *TreeHandler) Get(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := treeID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid tree id"))
	}
	v, err := h.svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTreeViewResponse(v))
}

func (h *TreeHandler) ListMine(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	views, err := h.svc.ListByCustomer(c.Request().Context(), uid)
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]TreeResponse, 0, len(views))
	for i := range views {
		resp = append(resp, toTreeViewResponse(&views[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *TreeHandler) ListFarm(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	views, err := h.svc.ListByFarmer(c.Request().Context(), uid)
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]TreeResponse, 0, len(views))
	for i := range views {
		resp = append(resp, toTreeViewResponse(&views[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *TreeHandler) Water(c echo.Context) error {
	return h.tend(c, false)
}

func (h *TreeHandler) Fertilize(c echo.Context) error {
	return h.tend(c, true)
}

func (h *TreeHandler) tend(c echo.Context, fertilize bool) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := treeID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid tree id"))
	}
	var t *model.Tree
	if fertilize {
		t, err = h.svc.Fertilize(c.Request().Context(), uid, id)
	} else {
		t, err = h.svc.Water(c.Request().Context(), uid, id)
	}
	if err != nil {
		return respondServiceError(c, err)
	}
	return h.respondTree(c, http.StatusOK, t)
}

func (h *TreeHandler) Advance(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := treeID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid tree id"))
	}
	res, err := h.svc.Advance(c.Request().Context(), uid, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if res.Payout != nil {
		return c.JSON(http.StatusOK, toPayoutResponse(res.Payout))
	}
	return h.respondTree(c, http.StatusOK, res.Tree)
}

type PayoutResponse struct {
	TreeID  uint64 `json:"treeId"`
	Payout  string `json:"payout"`
	Balance string `json:"balance"`
}

func toPayoutResponse(p *service.PayoutResult) PayoutResponse {
	return PayoutResponse{
		TreeID:  p.TreeID,
		Payout:  p.Payout.StringFixed(2),
		Balance: p.Balance.StringFixed(2),
	}
}

func (h *TreeHandler) Claim(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := treeID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid tree id"))
	}
	p, err := h.svc.Claim(c.Request().Context(), uid, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPayoutResponse(p))
}

func (h *TreeHandler) Kill(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := treeID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid tree id"))
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if body.Reason == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "reason is required"))
	}
	t, err := h.svc.Kill(c.Request().Context(), uid, id, body.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return h.respondTree(c, http.StatusOK, t)
}

func (h *TreeHandler) Delete(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := treeID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid tree id"))
	}
	if err := h.svc.Delete(c.Request().Context(), uid, id); err != nil {
		return respondServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TreeHandler) Move(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := treeID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid tree id"))
	}
	t, err := h.svc.MoveDevice(c.Request().Context(), uid, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return h.respondTree(c, http.StatusOK, t)
}

func treeID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
