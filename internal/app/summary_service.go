package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"paperdeck/internal/domain"
	"paperdeck/internal/model"
)

type SummaryService struct {
	repo   SummaryRepository
	cache  SummaryCache
	logger zerolog.Logger
}

func NewSummaryService(repo SummaryRepository, cache SummaryCache, logger zerolog.Logger) *SummaryService {
	return &SummaryService{repo: repo, cache: cache, logger: logger}
}

// List returns every published deck, newest first. A cache failure falls
// through to the database.
func (s *SummaryService) List(ctx context.Context) ([]model.SummaryPage, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		pages, gen, hit, err := s.cache.GetList(ctx)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("read summary cache failed")
		case hit:
			return pages, nil
		default:
			generation, cacheable = gen, true
		}
	}

	pages, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if pages == nil {
		pages = []model.SummaryPage{}
	}

	if cacheable {
		if err := s.cache.SetList(ctx, pages, generation); err != nil {
			s.logger.Warn().Err(err).Msg("write summary cache failed")
		}
	}
	return pages, nil
}

// GetSummary returns the stored slide markup of one record.
func (s *SummaryService) GetSummary(ctx context.Context, id string) (*model.SummaryPage, error) {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, domain.NotFound(fmt.Sprintf("summary page %s", id), nil)
	}
	return page, nil
}
