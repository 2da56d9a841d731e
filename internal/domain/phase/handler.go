package phase

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/oncotimeline/oncotimeline/internal/platform/apierror"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/phases/patient/:patientId", h.ListPatientPhases)
	api.GET("/phases/:id", h.GetPhase)
	api.POST("/phases", h.CreatePhase)
}

func (h *Handler) ListPatientPhases(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.ListPatientPhases(c.Request().Context(), patientID)
	if err != nil {
		return apierror.From(err, "patient not found")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetPhase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPhase(c.Request().Context(), id)
	if err != nil {
		return apierror.From(err, "treatment phase not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePhase(c echo.Context) error {
	var p TreatmentPhase
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePhase(c.Request().Context(), &p); err != nil {
		return apierror.From(err, "treatment phase not found")
	}
	return c.JSON(http.StatusCreated, p)
}
