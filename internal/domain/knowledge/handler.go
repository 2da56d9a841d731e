package knowledge

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
	g := api.Group("/knowledge")
	g.GET("", h.ListArticles)
	g.GET("/:id", h.GetArticle)
	g.GET("/category/:category", h.ListByCategory)
	g.GET("/audience/:audience", h.ListByAudience)
	g.POST("", h.CreateArticle)
}

func (h *Handler) ListArticles(c echo.Context) error {
	items, err := h.svc.ListArticles(c.Request().Context())
	if err != nil {
		return apierror.From(err, "article not found")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetArticle(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetArticle(c.Request().Context(), id)
	if err != nil {
		return apierror.From(err, "article not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListByCategory(c echo.Context) error {
	items, err := h.svc.ListByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return apierror.From(err, "article not found")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListByAudience(c echo.Context) error {
	items, err := h.svc.ListByAudience(c.Request().Context(), c.Param("audience"))
	if err != nil {
		return apierror.From(err, "article not found")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateArticle(c echo.Context) error {
	var a Article
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateArticle(c.Request().Context(), &a); err != nil {
		return apierror.From(err, "article not found")
	}
	c.Response().Header().Set("Location", "/api/v1/knowledge/"+a.ID.String())
	return c.JSON(http.StatusCreated, a)
}
