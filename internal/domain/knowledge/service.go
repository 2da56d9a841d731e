package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oncotimeline/oncotimeline/internal/platform/storage"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// CreateArticle stamps GeneratedAt and LastUpdated and fills in the default
// audience and disclaimer when they are empty.
func (s *Service) CreateArticle(ctx context.Context, a *Article) error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return storage.Invalid("title is required")
	}
	if a.Audience == "" {
		a.Audience = AudienceNonTechnical
	}
	if !validAudience(a.Audience) {
		return storage.Invalid(fmt.Sprintf("audience must be %s or %s", AudienceTechnical, AudienceNonTechnical))
	}
	if a.Disclaimer == "" {
		a.Disclaimer = DefaultDisclaimer
	}
	now := s.now()
	a.GeneratedAt = now
	a.LastUpdated = now
	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (s *Service) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

func (s *Service) ListArticles(ctx context.Context) ([]*Article, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return items, nil
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]*Article, error) {
	items, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list articles in category %q: %w", category, err)
	}
	return items, nil
}

func (s *Service) ListByAudience(ctx context.Context, audience string) ([]*Article, error) {
	items, err := s.repo.ListByAudience(ctx, audience)
	if err != nil {
		return nil, fmt.Errorf("list articles for audience %q: %w", audience, err)
	}
	return items, nil
}
