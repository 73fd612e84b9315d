package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paperdeck/internal/model"
)

func newTestRepository(t *testing.T) *SummaryPageRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.SummaryPage{}))
	return NewSummaryPageRepository(db)
}

func TestFindByTitleMissingReturnsNil(t *testing.T) {
	repo := newTestRepository(t)

	page, err := repo.FindByTitle(context.Background(), "paper_x")
	require.NoError(t, err)
	assert.Nil(t, page)

	exists, err := repo.ExistsByTitle(context.Background(), "paper_x")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertCreatesThenUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	first, err := repo.Upsert(ctx, "paper_x", "https://cdn/paper/paper_x_slide.html", "M")
	require.NoError(t, err)

	// same clock reading: updated_at must still move forward
	second, err := repo.Upsert(ctx, "paper_x", "https://cdn/paper/paper_x_slide.html?v=2", "M'")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.UpdatedAt.After(first.CreatedAt))

	stored, err := repo.FindByTitle(ctx, "paper_x")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, first.ID, stored.ID)
	assert.True(t, stored.CreatedAt.Equal(fixed))
	assert.True(t, stored.UpdatedAt.After(fixed))
	assert.Equal(t, "M'", stored.Summary)
	assert.Equal(t, "https://cdn/paper/paper_x_slide.html?v=2", stored.URL)

	pages, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestListOrdersByUpdatedAtAndOmitsSummary(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	_, err := repo.Upsert(ctx, "older", "u1", "S1")
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "newer", "u2", "S2")
	require.NoError(t, err)

	pages, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "newer", pages[0].Title)
	assert.Equal(t, "older", pages[1].Title)
	assert.Empty(t, pages[0].Summary)

	byID, err := repo.GetByID(ctx, pages[1].ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "S1", byID.Summary)

	missing, err := repo.GetByID(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
