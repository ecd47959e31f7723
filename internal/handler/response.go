package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/greenbasket/plantfuture-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// respondServiceError maps the engine's sentinel errors onto HTTP codes.
// Anything unrecognized is treated as a bad request, matching how handlers
// surface validation errors from the service layer.
func respondServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrInsufficientFunds):
		return c.JSON(http.StatusConflict, NewErrorResponse("insufficient_funds", err.Error()))
	case errors.Is(err, service.ErrNoAvailableDevice):
		return c.JSON(http.StatusConflict, NewErrorResponse("no_available_device", err.Error()))
	case errors.Is(err, service.ErrAlreadyRegistered):
		return c.JSON(http.StatusConflict, NewErrorResponse("already_registered", err.Error()))
	case errors.Is(err, service.ErrAlreadyDone):
		return c.JSON(http.StatusConflict, NewErrorResponse("already_done", err.Error()))
	case errors.Is(err, service.ErrNotReady):
		return c.JSON(http.StatusConflict, NewErrorResponse("not_ready", err.Error()))
	case errors.Is(err, service.ErrInvalidPhase):
		return c.JSON(http.StatusConflict, NewErrorResponse("invalid_phase", err.Error()))
	case errors.Is(err, service.ErrOutOfStock):
		return c.JSON(http.StatusConflict, NewErrorResponse("out_of_stock", err.Error()))
	default:
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
}

func requireUID(c echo.Context) (string, bool) {
	uid, _ := c.Get("uid").(string)
	return uid, uid != ""
}
