package drug

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService())
	return h, echo.New()
}

func TestHandler_CreateDrug(t *testing.T) {
	h, e := newTestHandler()
	body := `{"name":"Vincristine","drug_class":"Vinca alkaloid","side_effects":[{"effect_name":"Constipation","severity":"Common"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreateDrug(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got Drug
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID == uuid.Nil || len(got.SideEffects) != 1 {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_CreateDrug_MissingName(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"drug_class":"Steroid"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreateDrug(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetDrug(t *testing.T) {
	h, e := newTestHandler()
	d := &Drug{Name: "Cytarabine"}
	h.svc.CreateDrug(nil, d)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())
	if err := h.GetDrug(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetDrug_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	err := h.GetDrug(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetDrug_NotFound(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	err := h.GetDrug(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_GetDrugByName(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateDrug(nil, &Drug{Name: "6-Mercaptopurine"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("6-mercaptopurine")
	if err := h.GetDrugByName(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Drug
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Name != "6-Mercaptopurine" {
		t.Errorf("expected 6-Mercaptopurine, got %q", got.Name)
	}
}

func TestHandler_ListDrugs(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateDrug(nil, &Drug{Name: "Vincristine"})
	h.svc.CreateDrug(nil, &Drug{Name: "Asparaginase"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListDrugs(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []Drug
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 2 || got[0].Name != "Asparaginase" {
		t.Errorf("unexpected list: %s", rec.Body.String())
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))
	want := map[string]bool{
		"GET /api/v1/drugs":            false,
		"GET /api/v1/drugs/:id":        false,
		"GET /api/v1/drugs/name/:name": false,
		"POST /api/v1/drugs":           false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("route %s not registered", k)
		}
	}
}
