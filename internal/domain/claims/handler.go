package claims

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jayawardhanm/jay-claimsub-ai/pkg/pagination"
)

type Handler struct {
	proc *Processor
}

func NewHandler(proc *Processor) *Handler {
	return &Handler{proc: proc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/claims/process", h.ProcessClaim)
	api.POST("/claims/process-pending", h.ProcessPending)
	api.GET("/claims", h.ListClaims)
	api.GET("/claims/:id", h.GetClaim)
}

// ProcessRequest is the body of a single-claim process call.
type ProcessRequest struct {
	ClaimID string `json:"claim_id"`
}

func (h *Handler) ProcessClaim(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claim, err := h.proc.ProcessClaim(c.Request().Context(), req.ClaimID)
	switch {
	case errors.Is(err, ErrMissingClaimID):
		desc, _ := ReasonDescription(ReasonMissingClaimID)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":       desc,
			"reason_code": ReasonMissingClaimID,
		})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "claim not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, claim)
}

func (h *Handler) ProcessPending(c echo.Context) error {
	result, err := h.proc.ProcessPending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetClaim(c echo.Context) error {
	claim, err := h.proc.GetClaim(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, ErrMissingClaimID):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "claim not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, claim)
}

func (h *Handler) ListClaims(c echo.Context) error {
	status := Status(c.QueryParam("status"))
	if status != "" && !ValidStatus(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
	}

	pg := pagination.FromContext(c)
	list, total, err := h.proc.ListClaims(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}
