package timeline

import (
	"net/http"
	"time"

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
	g := api.Group("/timeline")
	g.GET("/patient/:patientId", h.GetPatientTimeline)
	g.GET("/patient/:patientId/range", h.GetTimelineByDateRange)
	g.GET("/:id", h.GetEvent)
	g.POST("", h.CreateEvent)
	g.PUT("/:id", h.UpdateEvent)
	g.DELETE("/:id", h.DeleteEvent)
}

func (h *Handler) GetPatientTimeline(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	views, err := h.svc.GetPatientTimeline(c.Request().Context(), patientID)
	if err != nil {
		return apierror.From(err, "patient not found")
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) GetTimelineByDateRange(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	start, err := queryTime(c, "start_date", "startDate")
	if err != nil {
		return err
	}
	end, err := queryTime(c, "end_date", "endDate")
	if err != nil {
		return err
	}
	views, err := h.svc.GetTimelineByDateRange(c.Request().Context(), patientID, start, end)
	if err != nil {
		return apierror.From(err, "patient not found")
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) GetEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return apierror.From(err, "timeline event not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateEvent(c echo.Context) error {
	var in CreateEventInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.CreateEvent(c.Request().Context(), in)
	if err != nil {
		return apierror.From(err, "timeline event not found")
	}
	c.Response().Header().Set("Location", "/api/v1/timeline/"+v.ID.String())
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateEventInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.UpdateEvent(c.Request().Context(), id, in)
	if err != nil {
		return apierror.From(err, "timeline event not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteEvent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteEvent(c.Request().Context(), id); err != nil {
		return apierror.From(err, "timeline event not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// queryTime reads the first non-empty of names as RFC 3339 or YYYY-MM-DD.
// A bare date is midnight UTC.
func queryTime(c echo.Context, names ...string) (time.Time, error) {
	var raw string
	for _, n := range names {
		if raw = c.QueryParam(n); raw != "" {
			break
		}
	}
	if raw == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, names[0]+" is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid "+names[0]+": expected RFC 3339 or YYYY-MM-DD")
}
