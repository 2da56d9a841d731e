package drug

import (
	"time"

	"github.com/google/uuid"
)

// Drug maps to the drug table. It is reference data describing a medication
// for both clinicians and parents.
type Drug struct {
	ID                        uuid.UUID     `db:"id" json:"id"`
	Name                      string        `db:"name" json:"name"`
	DrugClass                 string        `db:"drug_class" json:"drug_class"`
	MechanismOfAction         string        `db:"mechanism_of_action" json:"mechanism_of_action"`
	WhyUsedInLeukemia         string        `db:"why_used_in_leukemia" json:"why_used_in_leukemia"`
	ParentFriendlyExplanation string        `db:"parent_friendly_explanation" json:"parent_friendly_explanation"`
	TypicalOnsetTiming        string        `db:"typical_onset_timing" json:"typical_onset_timing"`
	DurationOfEffects         string        `db:"duration_of_effects" json:"duration_of_effects"`
	ExpectedLabChanges        string        `db:"expected_lab_changes" json:"expected_lab_changes"`
	NeurologicalImpacts       string        `db:"neurological_impacts" json:"neurological_impacts"`
	TypicalTimeline           string        `db:"typical_timeline" json:"typical_timeline"`
	MonitoringReason          string        `db:"monitoring_reason" json:"monitoring_reason"`
	CommonButNotDangerous     string        `db:"common_but_not_dangerous" json:"common_but_not_dangerous"`
	BloodCountPattern         string        `db:"blood_count_pattern" json:"blood_count_pattern"`
	IsCurrentlyRelevant       bool          `db:"is_currently_relevant" json:"is_currently_relevant"`
	CreatedAt                 time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time     `db:"updated_at" json:"updated_at"`
	SideEffects               []*SideEffect `db:"-" json:"side_effects"`
}

// SideEffect maps to the drug_side_effect table.
type SideEffect struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DrugID       uuid.UUID `db:"drug_id" json:"drug_id"`
	EffectName   string    `db:"effect_name" json:"effect_name"`
	Severity     string    `db:"severity" json:"severity"`
	Description  string    `db:"description" json:"description"`
	TypicalOnset string    `db:"typical_onset" json:"typical_onset"`
}

// Severity tiers used by the reference data.
const (
	SeverityCommon   = "Common"
	SeverityModerate = "Moderate"
	SeveritySevere   = "Severe"
)

// Clone returns a deep copy of d including its side effects.
func (d *Drug) Clone() *Drug {
	if d == nil {
		return nil
	}
	c := *d
	c.SideEffects = make([]*SideEffect, len(d.SideEffects))
	for i, se := range d.SideEffects {
		s := *se
		c.SideEffects[i] = &s
	}
	return &c
}
