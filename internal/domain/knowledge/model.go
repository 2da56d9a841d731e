package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// Audiences an article can be written for.
const (
	AudienceTechnical    = "Technical"
	AudienceNonTechnical = "NonTechnical"
)

// DefaultDisclaimer is attached to articles created without one.
const DefaultDisclaimer = "This information is educational and does not replace medical advice from your oncology team."

// Article maps to the knowledge_article table.
type Article struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Category      string    `db:"category" json:"category"`
	Audience      string    `db:"audience" json:"audience"`
	Content       string    `db:"content" json:"content"`
	Summary       string    `db:"summary" json:"summary"`
	IsAIGenerated bool      `db:"is_ai_generated" json:"is_ai_generated"`
	Disclaimer    string    `db:"disclaimer" json:"disclaimer"`
	GeneratedAt   time.Time `db:"generated_at" json:"generated_at"`
	LastUpdated   time.Time `db:"last_updated" json:"last_updated"`
}

func validAudience(a string) bool {
	return a == AudienceTechnical || a == AudienceNonTechnical
}
