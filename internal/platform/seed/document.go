// Package seed loads reference drugs, demo patients and knowledge articles
// from a YAML document and writes them through the domain services.
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Document is the root of a seed file.
type Document struct {
	Drugs    []Drug    `yaml:"drugs"`
	Patients []Patient `yaml:"patients"`
	Articles []Article `yaml:"articles"`
}

type Drug struct {
	Name                      string       `yaml:"name"`
	DrugClass                 string       `yaml:"drug_class"`
	MechanismOfAction         string       `yaml:"mechanism_of_action"`
	WhyUsedInLeukemia         string       `yaml:"why_used_in_leukemia"`
	ParentFriendlyExplanation string       `yaml:"parent_friendly_explanation"`
	TypicalOnsetTiming        string       `yaml:"typical_onset_timing"`
	DurationOfEffects         string       `yaml:"duration_of_effects"`
	ExpectedLabChanges        string       `yaml:"expected_lab_changes"`
	NeurologicalImpacts       string       `yaml:"neurological_impacts"`
	TypicalTimeline           string       `yaml:"typical_timeline"`
	MonitoringReason          string       `yaml:"monitoring_reason"`
	CommonButNotDangerous     string       `yaml:"common_but_not_dangerous"`
	BloodCountPattern         string       `yaml:"blood_count_pattern"`
	IsCurrentlyRelevant       bool         `yaml:"is_currently_relevant"`
	SideEffects               []SideEffect `yaml:"side_effects"`
}

type SideEffect struct {
	Name         string `yaml:"name"`
	Severity     string `yaml:"severity"`
	Description  string `yaml:"description"`
	TypicalOnset string `yaml:"typical_onset"`
}

// Patient is seeded together with its phases and events. The id is required
// so repeated runs can detect an already seeded patient.
type Patient struct {
	ID            string     `yaml:"id"`
	FirstName     string     `yaml:"first_name"`
	LastName      string     `yaml:"last_name"`
	DateOfBirth   time.Time  `yaml:"date_of_birth"`
	DiagnosisDate *time.Time `yaml:"diagnosis_date"`
	DiagnosisType string     `yaml:"diagnosis_type"`
	RiskCategory  string     `yaml:"risk_category"`
	Phases        []Phase    `yaml:"phases"`
	Events        []Event    `yaml:"events"`
}

type Phase struct {
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	StartDate    time.Time  `yaml:"start_date"`
	EndDate      *time.Time `yaml:"end_date"`
	DisplayOrder int        `yaml:"display_order"`
	Color        string     `yaml:"color"`
}

// Event refers to its phase and drugs by name.
type Event struct {
	Title    string      `yaml:"title"`
	Date     time.Time   `yaml:"date"`
	Category string      `yaml:"category"`
	Notes    string      `yaml:"notes"`
	Tags     string      `yaml:"tags"`
	Phase    string      `yaml:"phase"`
	Drugs    []EventDrug `yaml:"drugs"`
}

type EventDrug struct {
	Name   string `yaml:"name"`
	Dosage string `yaml:"dosage"`
	Route  string `yaml:"route"`
}

type Article struct {
	Title         string `yaml:"title"`
	Category      string `yaml:"category"`
	Audience      string `yaml:"audience"`
	Content       string `yaml:"content"`
	Summary       string `yaml:"summary"`
	IsAIGenerated bool   `yaml:"is_ai_generated"`
	Disclaimer    string `yaml:"disclaimer"`
}

// Parse decodes and validates a seed document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the references inside the document. Drug names used by
// events may also resolve against the catalog at apply time, so they are
// not checked here.
func (d *Document) Validate() error {
	drugs := make(map[string]bool, len(d.Drugs))
	for i, dr := range d.Drugs {
		key := nameKey(dr.Name)
		if key == "" {
			return fmt.Errorf("drugs[%d]: name is required", i)
		}
		if drugs[key] {
			return fmt.Errorf("drugs[%d]: duplicate drug %q", i, dr.Name)
		}
		drugs[key] = true
	}

	patients := make(map[uuid.UUID]bool, len(d.Patients))
	for i, p := range d.Patients {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("patients[%d]: invalid id %q", i, p.ID)
		}
		if patients[id] {
			return fmt.Errorf("patients[%d]: duplicate id %s", i, id)
		}
		patients[id] = true

		phases := make(map[string]bool, len(p.Phases))
		for j, ph := range p.Phases {
			key := nameKey(ph.Name)
			if phases[key] {
				return fmt.Errorf("patients[%d].phases[%d]: duplicate phase %q", i, j, ph.Name)
			}
			phases[key] = true
		}
		for j, ev := range p.Events {
			if ev.Phase != "" && !phases[nameKey(ev.Phase)] {
				return fmt.Errorf("patients[%d].events[%d]: unknown phase %q", i, j, ev.Phase)
			}
		}
	}
	return nil
}

func nameKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
