package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/andrescamacho/gatherbot-go/internal/domain/gathering"
)

// GormItemRepository stores the static item catalog
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new item repository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// Upsert inserts or updates catalog entries by item id
func (r *GormItemRepository) Upsert(ctx context.Context, items []domain.ItemInfo) error {
	if len(items) == 0 {
		return nil
	}
	models := make([]ItemModel, len(items))
	for i, item := range items {
		models[i] = itemToModel(item)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		UpdateAll: true,
	}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("failed to upsert items: %w", err)
	}
	return nil
}

// FindAll loads the whole catalog
func (r *GormItemRepository) FindAll(ctx context.Context) ([]domain.ItemInfo, error) {
	var models []ItemModel
	if err := r.db.WithContext(ctx).Order("item_id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	items := make([]domain.ItemInfo, len(models))
	for i, m := range models {
		items[i] = modelToItem(m)
	}
	return items, nil
}

// LoadCatalog reads the table into an in-memory catalog. Lookups happen on the
// tick, so the orchestrator never queries the database directly.
func (r *GormItemRepository) LoadCatalog(ctx context.Context) (*domain.StaticCatalog, error) {
	items, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewStaticCatalog(items), nil
}

func itemToModel(item domain.ItemInfo) ItemModel {
	model := ItemModel{
		ItemID:   item.ItemID,
		Name:     item.Name,
		Class:    string(item.Class),
		NodeTier: item.NodeTier,
		Zone:     item.Zone,
	}
	if item.Timed != nil {
		start := item.Timed.StartHour
		model.TimedStartHour = &start
		model.TimedDurationHours = int(item.Timed.Duration / time.Hour)
	}
	return model
}

func modelToItem(model ItemModel) domain.ItemInfo {
	item := domain.ItemInfo{
		ItemID:   model.ItemID,
		Name:     model.Name,
		Class:    domain.GatherClass(model.Class),
		NodeTier: model.NodeTier,
		Zone:     model.Zone,
	}
	if model.TimedStartHour != nil {
		item.Timed = &domain.TimedWindow{
			StartHour: *model.TimedStartHour,
			Duration:  time.Duration(model.TimedDurationHours) * time.Hour,
		}
	}
	return item
}
