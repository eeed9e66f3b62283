package persistence_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/persistence"
	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
	"github.com/andrescamacho/gatherbot-go/test/helpers"
)

func sessionRecord(id string, startedAt time.Time) *domain.SessionRecord {
	return &domain.SessionRecord{
		SessionID:     id,
		State:         domain.StateCompleted,
		StatusMessage: "All tasks completed",
		StartedAt:     startedAt,
		FinishedAt:    startedAt.Add(10 * time.Minute),
		TotalGathered: 14,
		Tasks: []domain.TaskRecord{
			{Position: 0, ItemID: 101, ItemName: "Copper Ore", QuantityNeeded: 10, QuantityObserved: 10, Status: domain.TaskStatusCompleted},
			{Position: 1, ItemID: 201, ItemName: "Maple Log", QuantityNeeded: 6, QuantityObserved: 4, Status: domain.TaskStatusFailed, RetryCount: 3, ErrorMessage: "stalled"},
		},
	}
}

func TestSessionRepository_SaveAndFind(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	started := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)

	// Act
	require.NoError(t, repo.Save(context.Background(), sessionRecord("s-1", started)))
	found, err := repo.FindByID(context.Background(), "s-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, found.State)
	assert.Equal(t, "All tasks completed", found.StatusMessage)
	assert.True(t, found.StartedAt.Equal(started))
	assert.True(t, found.FinishedAt.Equal(started.Add(10*time.Minute)))
	assert.Equal(t, 14, found.TotalGathered)
	require.Len(t, found.Tasks, 2)
	assert.Equal(t, "Copper Ore", found.Tasks[0].ItemName)
	assert.Equal(t, domain.TaskStatusFailed, found.Tasks[1].Status)
	assert.Equal(t, 3, found.Tasks[1].RetryCount)
	assert.Equal(t, "stalled", found.Tasks[1].ErrorMessage)
}

func TestSessionRepository_SaveReplacesTasks(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	record := sessionRecord("s-1", time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC))
	require.NoError(t, repo.Save(context.Background(), record))

	// Act
	record.State = domain.StateError
	record.Tasks = record.Tasks[:1]
	require.NoError(t, repo.Save(context.Background(), record))

	// Assert
	found, err := repo.FindByID(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateError, found.State)
	assert.Len(t, found.Tasks, 1)
}

func TestSessionRepository_UnfinishedSessionKeepsZeroFinishTime(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	record := sessionRecord("s-1", time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC))
	record.FinishedAt = time.Time{}

	require.NoError(t, repo.Save(context.Background(), record))

	found, err := repo.FindByID(context.Background(), "s-1")
	require.NoError(t, err)
	assert.True(t, found.FinishedAt.IsZero())
}

func TestSessionRepository_FindMissing(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSessionRepository(db)

	_, err := repo.FindByID(context.Background(), "missing")

	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestSessionRepository_SaveRequiresID(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSessionRepository(db)

	assert.Error(t, repo.Save(context.Background(), &domain.SessionRecord{}))
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestSessionRepository_ListRecentNewestFirst(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormSessionRepository(db)
	base := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Save(context.Background(), sessionRecord(fmt.Sprintf("s-%d", i), base.Add(time.Duration(i)*time.Hour))))
	}

	// Act
	records, err := repo.ListRecent(context.Background(), 3)

	// Assert
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "s-3", records[0].SessionID)
	assert.Equal(t, "s-2", records[1].SessionID)
	assert.Equal(t, "s-1", records[2].SessionID)
	assert.Len(t, records[0].Tasks, 2)
	assert.Equal(t, 0, records[0].Tasks[0].Position)
}
