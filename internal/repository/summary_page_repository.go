package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"paperdeck/internal/model"
)

// timestampResolution matches the datetime(3) columns gorm creates on MySQL.
const timestampResolution = time.Millisecond

type SummaryPageRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSummaryPageRepository(db *gorm.DB) *SummaryPageRepository {
	return &SummaryPageRepository{db: db, now: time.Now}
}

func (r *SummaryPageRepository) FindByTitle(ctx context.Context, title string) (*model.SummaryPage, error) {
	var page model.SummaryPage
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query summary page by title failed: %w", err)
	}
	return &page, nil
}

func (r *SummaryPageRepository) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.SummaryPage{}).Where("title = ?", title).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count summary pages by title failed: %w", err)
	}
	return count > 0, nil
}

func (r *SummaryPageRepository) GetByID(ctx context.Context, id string) (*model.SummaryPage, error) {
	var page model.SummaryPage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query summary page by id failed: %w", err)
	}
	return &page, nil
}

// List returns every record without its summary body, most recently updated
// first.
func (r *SummaryPageRepository) List(ctx context.Context) ([]model.SummaryPage, error) {
	var pages []model.SummaryPage
	err := r.db.WithContext(ctx).
		Select("id", "title", "url", "created_at", "updated_at").
		Order("updated_at DESC").
		Find(&pages).Error
	if err != nil {
		return nil, fmt.Errorf("list summary pages failed: %w", err)
	}
	return pages, nil
}

// Upsert creates or refreshes the record for title. An existing record keeps
// its id and created_at and gets an updated_at strictly later than before.
func (r *SummaryPageRepository) Upsert(ctx context.Context, title, url, summary string) (*model.SummaryPage, error) {
	existing, err := r.FindByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return r.update(ctx, existing, url, summary)
	}

	now := r.now().UTC().Truncate(timestampResolution)
	page := &model.SummaryPage{
		ID:        uuid.NewString(),
		Title:     title,
		URL:       url,
		Summary:   summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(page).Error; err != nil {
		// another writer may have inserted the same title in between
		raced, findErr := r.FindByTitle(ctx, title)
		if findErr != nil || raced == nil {
			return nil, fmt.Errorf("create summary page failed: %w", err)
		}
		return r.update(ctx, raced, url, summary)
	}
	return page, nil
}

func (r *SummaryPageRepository) update(ctx context.Context, page *model.SummaryPage, url, summary string) (*model.SummaryPage, error) {
	updatedAt := r.now().UTC().Truncate(timestampResolution)
	if !updatedAt.After(page.UpdatedAt) {
		updatedAt = page.UpdatedAt.Add(timestampResolution)
	}

	err := r.db.WithContext(ctx).Model(&model.SummaryPage{}).
		Where("id = ?", page.ID).
		Updates(map[string]interface{}{
			"url":        url,
			"summary":    summary,
			"updated_at": updatedAt,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("update summary page failed: %w", err)
	}

	page.URL = url
	page.Summary = summary
	page.UpdatedAt = updatedAt
	return page, nil
}
