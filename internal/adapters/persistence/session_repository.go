package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// GormSessionRepository persists finished gathering sessions and their task outcomes
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new session repository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// Save upserts the session row and replaces its task records
func (r *GormSessionRepository) Save(ctx context.Context, record *domain.SessionRecord) error {
	if record == nil || record.SessionID == "" {
		return fmt.Errorf("session record requires a session id")
	}

	model := sessionToModel(record)
	tasks := model.Tasks
	model.Tasks = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "status_message", "started_at", "finished_at", "total_gathered"}),
		}).Create(model).Error; err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if err := tx.Where("session_id = ?", record.SessionID).Delete(&GatheringTaskRecordModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear task records: %w", err)
		}
		if len(tasks) == 0 {
			return nil
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return fmt.Errorf("failed to save task records: %w", err)
		}
		return nil
	})
}

// FindByID loads one session with its task records in queue order
func (r *GormSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	var model GatheringSessionModel
	result := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("session_id = ?", sessionID).
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to find session: %w", result.Error)
	}
	return modelToSession(&model), nil
}

// ListRecent returns the newest sessions first
func (r *GormSessionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SessionRecord, error) {
	var models []GatheringSessionModel
	if err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("started_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	records := make([]*domain.SessionRecord, len(models))
	for i := range models {
		records[i] = modelToSession(&models[i])
	}
	return records, nil
}

func sessionToModel(record *domain.SessionRecord) *GatheringSessionModel {
	model := &GatheringSessionModel{
		SessionID:     record.SessionID,
		State:         string(record.State),
		StatusMessage: record.StatusMessage,
		StartedAt:     record.StartedAt,
		TotalGathered: record.TotalGathered,
		Tasks:         make([]GatheringTaskRecordModel, len(record.Tasks)),
	}
	if !record.FinishedAt.IsZero() {
		finished := record.FinishedAt
		model.FinishedAt = &finished
	}
	for i, t := range record.Tasks {
		model.Tasks[i] = GatheringTaskRecordModel{
			SessionID:        record.SessionID,
			Position:         t.Position,
			ItemID:           t.ItemID,
			ItemName:         t.ItemName,
			QuantityNeeded:   t.QuantityNeeded,
			QuantityObserved: t.QuantityObserved,
			Status:           string(t.Status),
			RetryCount:       t.RetryCount,
			ErrorMessage:     t.ErrorMessage,
		}
	}
	return model
}

func modelToSession(model *GatheringSessionModel) *domain.SessionRecord {
	record := &domain.SessionRecord{
		SessionID:     model.SessionID,
		State:         domain.OrchestratorState(model.State),
		StatusMessage: model.StatusMessage,
		StartedAt:     model.StartedAt,
		TotalGathered: model.TotalGathered,
		Tasks:         make([]domain.TaskRecord, len(model.Tasks)),
	}
	if model.FinishedAt != nil {
		record.FinishedAt = *model.FinishedAt
	}
	for i, t := range model.Tasks {
		record.Tasks[i] = domain.TaskRecord{
			Position:         t.Position,
			ItemID:           t.ItemID,
			ItemName:         t.ItemName,
			QuantityNeeded:   t.QuantityNeeded,
			QuantityObserved: t.QuantityObserved,
			Status:           domain.TaskStatus(t.Status),
			RetryCount:       t.RetryCount,
			ErrorMessage:     t.ErrorMessage,
		}
	}
	return record
}
