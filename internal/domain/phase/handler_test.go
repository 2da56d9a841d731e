package phase

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
	return NewHandler(newTestService()), echo.New()
}

func TestHandler_CreatePhase(t *testing.T) {
	h, e := newTestHandler()
	body := `{"patient_id":"` + uuid.New().String() + `","name":"Induction","start_date":"2025-01-06T00:00:00Z","display_order":1}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreatePhase(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got TreatmentPhase
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Color != DefaultColor {
		t.Errorf("expected default color, got %q", got.Color)
	}
}

func TestHandler_CreatePhase_MissingPatient(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Induction","start_date":"2025-01-06T00:00:00Z"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreatePhase(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_ListPatientPhases(t *testing.T) {
	h, e := newTestHandler()
	patientID := uuid.New()
	h.svc.CreatePhase(nil, &TreatmentPhase{PatientID: patientID, Name: "Consolidation", StartDate: start, DisplayOrder: 2})
	h.svc.CreatePhase(nil, &TreatmentPhase{PatientID: patientID, Name: "Induction", StartDate: start, DisplayOrder: 1})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues(patientID.String())
	if err := h.ListPatientPhases(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []TreatmentPhase
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 2 || got[0].Name != "Induction" {
		t.Errorf("unexpected list: %s", rec.Body.String())
	}
}

func TestHandler_ListPatientPhases_Empty(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.New().String())
	if err := h.ListPatientPhases(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandler_ListPatientPhases_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("patientId")
	c.SetParamValues("abc")
	err := h.ListPatientPhases(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
