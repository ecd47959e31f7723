package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/greenbasket/plantfuture-backend/internal/model"
	"github.com/greenbasket/plantfuture-backend/internal/service"
	"github.com/shopspring/decimal"
)

type ProfileHandler struct {
	users  service.UserService
	ledger service.LedgerService
}

func NewProfileHandler(users service.UserService, ledger service.LedgerService) *ProfileHandler {
	return &ProfileHandler{users: users, ledger: ledger}
}

type UserResponse struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Balance string `json:"balance"`
	Points  int64  `json:"points"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		UID:     u.UID,
		Name:    u.Name,
		Role:    string(u.Role),
		Balance: u.Balance.StringFixed(2),
		Points:  u.Points,
	}
}

func (h *ProfileHandler) Register(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	u, err := h.users.Register(c.Request().Context(), uid, body.Name, model.UserRole(body.Role))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

func (h *ProfileHandler) Me(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	u, err := h.users.Get(c.Request().Context(), uid)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *ProfileHandler) TopUp(c echo.Context) error {
	return h.walletOp(c, func(uid string, amount decimal.Decimal, ec echo.Context) (*model.User, error) {
		return h.ledger.TopUp(ec.Request().Context(), uid, amount)
	})
}

func (h *ProfileHandler) ConvertToPoints(c echo.Context) error {
	return h.walletOp(c, func(uid string, amount decimal.Decimal, ec echo.Context) (*model.User, error) {
		return h.ledger.ConvertToPoints(ec.Request().Context(), uid, amount)
	})
}

func (h *ProfileHandler) walletOp(c echo.Context, op func(string, decimal.Decimal, echo.Context) (*model.User, error)) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Amount string `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid amount"))
	}
	u, err := op(uid, amount, c)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *ProfileHandler) GrantPoints(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body struct {
		Points int64 `json:"points"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	u, err := h.ledger.GrantPoints(c.Request().Context(), uid, c.Param("uid"), body.Points)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *ProfileHandler) Transactions(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.ledger.History(c.Request().Context(), uid, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	resp := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, map[string]interface{}{
			"reference": e.Reference,
			"unit":      string(e.Unit),
			"amount":    e.Amount.StringFixed(2),
			"points":    e.Points,
			"memo":      e.Memo,
			"createdAt": e.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}
