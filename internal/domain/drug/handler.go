package drug

import (
	"net/http"
	"net/url"

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
	g := api.Group("/drugs")
	g.GET("", h.ListDrugs)
	g.GET("/:id", h.GetDrug)
	g.GET("/name/:name", h.GetDrugByName)
	g.POST("", h.CreateDrug)
}

func (h *Handler) ListDrugs(c echo.Context) error {
	items, err := h.svc.ListDrugs(c.Request().Context())
	if err != nil {
		return apierror.From(err, "drug not found")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDrug(c.Request().Context(), id)
	if err != nil {
		return apierror.From(err, "drug not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetDrugByName(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	d, err := h.svc.GetDrugByName(c.Request().Context(), name)
	if err != nil {
		return apierror.From(err, "drug not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDrug(c echo.Context) error {
	var d Drug
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDrug(c.Request().Context(), &d); err != nil {
		return apierror.From(err, "drug not found")
	}
	return c.JSON(http.StatusCreated, d)
}
