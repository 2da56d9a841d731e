package seed

import (
	"strings"
	"testing"
)

func TestParse_EmbeddedDefault(t *testing.T) {
	doc, err := Parse(defaultDocument)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Drugs) == 0 {
		t.Fatal("expected drugs in the default document")
	}
	if len(doc.Patients) != 1 {
		t.Fatalf("expected 1 demo patient, got %d", len(doc.Patients))
	}
	p := doc.Patients[0]
	if p.ID != "00000000-0000-0000-0000-000000000001" {
		t.Errorf("unexpected demo patient id %s", p.ID)
	}
	if len(p.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(p.Phases))
	}
	if p.Phases[2].EndDate != nil {
		t.Error("expected maintenance to be ongoing")
	}
	if p.Phases[0].StartDate.IsZero() || p.DiagnosisDate == nil {
		t.Error("expected dates to be decoded")
	}
	if len(doc.Articles) != 3 {
		t.Errorf("expected 3 articles, got %d", len(doc.Articles))
	}
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Drugs) != 0 || len(doc.Patients) != 0 {
		t.Error("expected an empty document")
	}
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("drugs:\n  - name: Vincristine\n    colour: blue\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing drug name", "drugs:\n  - drug_class: Antimetabolite\n", "name is required"},
		{"duplicate drug", "drugs:\n  - name: Vincristine\n  - name: vincristine\n", "duplicate drug"},
		{"bad patient id", "patients:\n  - id: not-a-uuid\n", "invalid id"},
		{
			"duplicate patient",
			"patients:\n  - id: 00000000-0000-0000-0000-000000000001\n  - id: 00000000-0000-0000-0000-000000000001\n",
			"duplicate id",
		},
		{
			"unknown phase",
			"patients:\n  - id: 00000000-0000-0000-0000-000000000001\n    events:\n      - title: CBC\n        phase: Induction\n",
			"unknown phase",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
