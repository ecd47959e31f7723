package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/service"
)

type DeviceHandler struct {
	svc service.DeviceService
}

func NewDeviceHandler(svc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

type DeviceResponse struct {
	ID           string  `json:"id"`
	FarmerUID    string  `json:"farmerUid"`
	Status       string  `json:"status"`
	AssignedUser *string `json:"assignedUser,omitempty"`
}

func toDeviceResponse(d *model.Device) DeviceResponse {
	return DeviceResponse{
		ID:           d.ID,
		FarmerUID:    d.FarmerID,
		Status:       string(d.Status),
		AssignedUser: d.AssignedUser,
	}
}

func (h *DeviceHandler) Register(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		DeviceID string `json:"deviceId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	d, err := h.svc.Register(c.Request().Context(), uid, body.DeviceID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toDeviceResponse(d))
}

func (h *DeviceHandler) ListMine(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	devices, err := h.svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]DeviceResponse, 0, len(devices))
	for i := range devices {
		resp = append(resp, toDeviceResponse(&devices[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *DeviceHandler) MarkFaulty(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		FailureType string `json:"failureType"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	d, err := h.svc.MarkFaulty(c.Request().Context(), uid, c.Param("id"), body.FailureType)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toDeviceResponse(d))
}

func (h *DeviceHandler) Failures(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	failures, err := h.svc.Failures(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]map[string]interface{}, 0, len(failures))
	for _, f := range failures {
		resp = append(resp, map[string]interface{}{
			"id":          f.ID,
			"deviceId":    f.DeviceID,
			"failureType": f.FailureType,
			"status":      f.Status,
			"createdAt":   f.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
